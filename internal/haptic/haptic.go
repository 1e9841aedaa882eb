// Package haptic scales and emits vibration pulses.
package haptic

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/rbright/voxboard/internal/tone"
)

const (
	// DefaultPulseMS is used when a caller asks for a non-positive duration.
	DefaultPulseMS = 40
	MinIntensity   = 0.5
	MaxIntensity   = 2.0
)

// Backend renders one vibration of a fixed duration.
type Backend interface {
	Supported() bool
	Vibrate(d time.Duration) error
}

// Port applies the enable flag and intensity to every pulse request.
type Port struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	enabled   bool
	intensity float64

	playMu   sync.Mutex
	inflight sync.WaitGroup
}

// New constructs an enabled port at intensity 1. A nil backend is unsupported.
func New(backend Backend, logger *slog.Logger) *Port {
	if backend == nil {
		backend = None{}
	}
	return &Port{backend: backend, logger: logger, enabled: true, intensity: 1}
}

// Supported reports whether the backend can vibrate.
func (p *Port) Supported() bool {
	return p.backend.Supported()
}

// Pulse requests a vibration of ms milliseconds scaled by the intensity. It returns
// false when disabled or unsupported. Playback is asynchronous and serialized.
func (p *Port) Pulse(ms int) bool {
	if ms <= 0 {
		ms = DefaultPulseMS
	}

	p.mu.Lock()
	enabled := p.enabled
	scaled := scale(ms, p.intensity)
	p.mu.Unlock()

	if !enabled || !p.backend.Supported() {
		return false
	}

	d := time.Duration(scaled) * time.Millisecond
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.playMu.Lock()
		defer p.playMu.Unlock()
		if err := p.backend.Vibrate(d); err != nil {
			p.logDebug("haptic pulse failed", err)
		}
	}()
	return true
}

// Wait blocks until every requested pulse has been rendered.
func (p *Port) Wait() {
	p.inflight.Wait()
}

func (p *Port) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

func (p *Port) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetIntensity sets the duration multiplier. Values outside [0.5, 2] are rejected.
func (p *Port) SetIntensity(intensity float64) bool {
	if math.IsNaN(intensity) || intensity < MinIntensity || intensity > MaxIntensity {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intensity = intensity
	return true
}

func (p *Port) Intensity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intensity
}

// Scaled returns the duration a pulse of ms would actually last.
func (p *Port) Scaled(ms int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return scale(ms, p.intensity)
}

func scale(ms int, intensity float64) int {
	return int(math.Round(float64(ms) * intensity))
}

func (p *Port) logDebug(message string, err error) {
	if p.logger == nil || err == nil {
		return
	}
	p.logger.Debug(message, "error", err.Error())
}

// None is the backend for hosts without vibration.
type None struct{}

func (None) Supported() bool             { return false }
func (None) Vibrate(time.Duration) error { return nil }

// RumbleHz is the carrier frequency of the audio rumble.
const RumbleHz = 60

// Rumble renders vibration as a low-frequency tone, for bass shakers and
// controllers exposed as audio sinks.
type Rumble struct {
	Player tone.Player
	Volume float64
}

// NewRumble returns a rumble backend on the default PulseAudio sink.
func NewRumble() Rumble {
	return Rumble{
		Player: tone.Pulse{AppName: "voxboard", MediaName: "voxboard haptic"},
		Volume: 0.8,
	}
}

func (r Rumble) Supported() bool {
	return r.Player != nil
}

func (r Rumble) Vibrate(d time.Duration) error {
	if r.Player == nil {
		return fmt.Errorf("rumble: no player")
	}
	volume := r.Volume
	if volume <= 0 {
		volume = 0.8
	}
	return r.Player.Play(tone.Synthesize(tone.Spec{FrequencyHz: RumbleHz, Duration: d, Volume: volume}))
}

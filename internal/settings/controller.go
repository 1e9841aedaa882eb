package settings

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/rbright/voxboard/internal/speech"
	"github.com/rbright/voxboard/internal/transcript"
)

const (
	SlowRate   = 0.7
	FastRate   = 1.3
	NormalRate = 1.0

	HighIntensity   = 1.5
	LowIntensity    = 0.7
	MediumIntensity = 1.0

	SavePulseMS      = 70
	intensityPulseMS = 50
)

// Speech is the speech output surface the settings page controls.
type Speech interface {
	Speak(text string, immediate bool) bool
	SetRate(rate float64) bool
	Voices() []speech.Voice
	SelectVoice(index int) bool
}

// Haptics is the vibration surface the settings page controls.
type Haptics interface {
	Pulse(ms int) bool
	SetEnabled(enabled bool)
	SetIntensity(intensity float64) bool
}

// Controller owns the live preferences, applies them to the output ports, and
// writes every change to the store.
type Controller struct {
	store   *Store
	speech  Speech
	haptics Haptics
	logger  *slog.Logger

	mu       sync.Mutex
	values   Values
	defaults Values
}

// NewController returns a controller holding defaults until Load is called.
func NewController(store *Store, speech Speech, haptics Haptics, logger *slog.Logger) *Controller {
	return &Controller{
		store:    store,
		speech:   speech,
		haptics:  haptics,
		logger:   logger,
		values:   Defaults(),
		defaults: Defaults(),
	}
}

// SetDefaults replaces the values used while nothing has been saved yet.
func (c *Controller) SetDefaults(values Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults = values.Sanitize()
}

// Load reads the store and applies the result. Defaults are applied on error.
func (c *Controller) Load() error {
	values, _, err := c.load()

	c.mu.Lock()
	c.values = values
	c.applyLocked()
	c.mu.Unlock()
	return err
}

// Reload re-reads the store after an external edit and applies any difference.
func (c *Controller) Reload() {
	values, exists, err := c.load()
	if err != nil {
		c.logWarn("reload settings", "error", err.Error())
		return
	}
	if !exists {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if values == c.values {
		return
	}
	c.values = values
	c.applyLocked()
	c.logInfo("settings reloaded", "values", fmt.Sprintf("%+v", values))
}

// Values returns the current preferences.
func (c *Controller) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// HandleTranscript interprets one settings-category transcript.
func (c *Controller) HandleTranscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case strings.Contains(text, "speed") || strings.Contains(text, "rate"):
		switch {
		case transcript.HasWord(text, "slow", "slower"):
			c.setRateLocked(SlowRate, "slow")
		case transcript.HasWord(text, "fast", "faster"):
			c.setRateLocked(FastRate, "fast")
		case transcript.HasWord(text, "normal"):
			c.setRateLocked(NormalRate, "normal")
		}
	case strings.Contains(text, "vibration") || strings.Contains(text, "haptic"):
		switch {
		case transcript.HasWord(text, "off", "disable", "disabled"):
			c.setVibrationLocked(false)
		case transcript.HasWord(text, "on", "enable", "enabled"):
			c.setVibrationLocked(true)
		case transcript.HasWord(text, "high", "strong"):
			c.setIntensityLocked(HighIntensity, "high")
		case transcript.HasWord(text, "low", "gentle"):
			c.setIntensityLocked(LowIntensity, "low")
		case transcript.HasWord(text, "medium", "normal"):
			c.setIntensityLocked(MediumIntensity, "medium")
		}
	case strings.Contains(text, "voice"):
		c.selectVoiceLocked(text)
	case strings.Contains(text, "save"):
		c.saveLocked()
	}
}

func (c *Controller) setRateLocked(rate float64, label string) {
	if c.speech == nil || !c.speech.SetRate(rate) {
		return
	}
	c.values.SpeechRate = rate
	c.persistLocked()
	c.say("Speech rate set to " + label)
}

func (c *Controller) setVibrationLocked(enabled bool) {
	c.values.VibrationEnabled = enabled
	if c.haptics != nil {
		c.haptics.SetEnabled(enabled)
	}
	c.persistLocked()
	if enabled {
		c.say("Vibration enabled")
		c.pulse(0)
		return
	}
	c.say("Vibration disabled")
}

func (c *Controller) setIntensityLocked(intensity float64, label string) {
	if c.haptics != nil && !c.haptics.SetIntensity(intensity) {
		return
	}
	c.values.VibrationIntensity = intensity
	c.persistLocked()
	c.say("Vibration intensity set to " + label)
	if c.values.VibrationEnabled {
		c.pulse(int(math.Round(intensityPulseMS * intensity)))
	}
}

func (c *Controller) selectVoiceLocked(text string) {
	if c.speech == nil {
		return
	}
	voices := c.speech.Voices()

	number := 0
	for _, word := range strings.Fields(text) {
		if value, ok := transcript.NumberWord(word); ok {
			number = value
			break
		}
		if value, ok := transcript.LeadingInt(word); ok {
			number = value
			break
		}
	}
	if number < 1 || number > len(voices) || !c.speech.SelectVoice(number-1) {
		c.say("Please specify a valid voice number.")
		return
	}

	c.values.VoiceIndex = number - 1
	c.persistLocked()
	c.say("Voice set to " + voices[number-1].Name)
}

func (c *Controller) saveLocked() {
	if err := c.writeLocked(); err != nil {
		c.logWarn("save settings", "error", err.Error())
		c.say("Settings could not be saved.")
		return
	}
	c.say("Settings saved")
	c.pulse(SavePulseMS)
}

func (c *Controller) applyLocked() {
	v := c.values
	if c.speech != nil {
		if !c.speech.SetRate(v.SpeechRate) {
			c.logWarn("ignored saved speech rate", "rate", v.SpeechRate)
		}
		if v.VoiceIndex >= 0 && !c.speech.SelectVoice(v.VoiceIndex) {
			c.logWarn("ignored saved voice", "index", v.VoiceIndex)
		}
	}
	if c.haptics != nil {
		c.haptics.SetEnabled(v.VibrationEnabled)
		if !c.haptics.SetIntensity(v.VibrationIntensity) {
			c.logWarn("ignored saved vibration intensity", "intensity", v.VibrationIntensity)
		}
	}
}

// persistLocked writes on every change; failures are logged, not spoken.
func (c *Controller) persistLocked() {
	if err := c.writeLocked(); err != nil {
		c.logWarn("persist settings", "error", err.Error())
	}
}

func (c *Controller) writeLocked() error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(c.values)
}

func (c *Controller) load() (Values, bool, error) {
	c.mu.Lock()
	defaults := c.defaults
	c.mu.Unlock()

	if c.store == nil {
		return defaults, false, nil
	}
	values, exists, err := c.store.Load()
	if !exists && err == nil {
		return defaults, false, nil
	}
	return values, exists, err
}

func (c *Controller) say(text string) {
	if c.speech == nil {
		return
	}
	c.speech.Speak(text, false)
}

func (c *Controller) pulse(ms int) {
	if c.haptics == nil {
		return
	}
	c.haptics.Pulse(ms)
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(msg, args...)
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, args...)
}

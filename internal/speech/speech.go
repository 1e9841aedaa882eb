// Package speech queues spoken announcements on a single worker.
package speech

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
)

const (
	MinRate     = 0.5
	MaxRate     = 2.0
	DefaultRate = 1.0
)

// Voice is one synthesizer voice.
type Voice struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Variant  string `json:"variant,omitempty"`
}

// Utterance is one queued announcement with the settings captured at enqueue time.
type Utterance struct {
	Text  string
	Rate  float64
	Voice string
}

// Backend renders utterances. Say blocks until the utterance finished or ctx is done.
type Backend interface {
	Available() bool
	Say(ctx context.Context, u Utterance) error
	Cancel(ctx context.Context) error
	Voices(ctx context.Context) ([]Voice, error)
}

// Port is the speech output capability: a FIFO of utterances played one at a time.
type Port struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	queue    []Utterance
	current  context.CancelFunc
	rate     float64
	voices   []Voice
	loaded   bool
	selected int
	closed   bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// New starts the playback worker. Call Close to stop it.
func New(backend Backend, logger *slog.Logger) *Port {
	p := &Port{
		backend:  backend,
		logger:   logger,
		rate:     DefaultRate,
		selected: -1,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

// Speak queues text. With immediate set, the current utterance is cancelled and
// the queue cleared first. It returns false when speech is unavailable.
func (p *Port) Speak(text string, immediate bool) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if p.backend == nil || !p.backend.Available() {
		p.logDebug("speech unavailable", "text", text)
		return false
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	u := Utterance{Text: text, Rate: p.rate, Voice: p.voiceNameLocked()}
	interrupted := false
	if immediate {
		p.queue = p.queue[:0]
		if p.current != nil {
			p.current()
			p.current = nil
			interrupted = true
		}
	}
	p.queue = append(p.queue, u)
	p.mu.Unlock()

	if interrupted {
		if err := p.backend.Cancel(context.Background()); err != nil {
			p.logDebug("cancel speech failed", "error", err.Error())
		}
	}
	p.signal()
	return true
}

// Pending returns the number of utterances waiting behind the current one.
func (p *Port) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Idle reports whether nothing is playing or queued.
func (p *Port) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current == nil && len(p.queue) == 0
}

// SetRate sets the speaking rate. Values outside [0.5, 2] are rejected.
func (p *Port) SetRate(rate float64) bool {
	if math.IsNaN(rate) || rate < MinRate || rate > MaxRate {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
	return true
}

func (p *Port) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// Voices lists the backend voices, loading them once.
func (p *Port) Voices() []Voice {
	p.mu.Lock()
	loaded := p.loaded
	p.mu.Unlock()

	if !loaded && p.backend != nil && p.backend.Available() {
		voices, err := p.backend.Voices(context.Background())
		if err != nil {
			p.logDebug("list voices failed", "error", err.Error())
		}
		p.mu.Lock()
		if !p.loaded && err == nil {
			p.voices = voices
			p.loaded = true
		}
		p.mu.Unlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Voice(nil), p.voices...)
}

// SelectVoice selects by zero-based index; -1 restores the backend default.
func (p *Port) SelectVoice(index int) bool {
	voices := p.Voices()
	if index < -1 || index >= len(voices) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = index
	return true
}

// SelectVoiceByName selects an exact case-insensitive match, else the first voice
// whose name contains name.
func (p *Port) SelectVoiceByName(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	voices := p.Voices()
	for _, voice := range voices {
		if strings.ToLower(voice.Name) == name {
			return p.SelectVoice(voice.Index)
		}
	}
	for _, voice := range voices {
		if strings.Contains(strings.ToLower(voice.Name), name) {
			return p.SelectVoice(voice.Index)
		}
	}
	return false
}

// Voice returns the selected voice, if any.
func (p *Port) Voice() (Voice, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected < 0 || p.selected >= len(p.voices) {
		return Voice{}, false
	}
	return p.voices[p.selected], true
}

// SelectedIndex returns the selected voice index or -1.
func (p *Port) SelectedIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Close cancels playback and waits for the worker to exit.
func (p *Port) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.queue = nil
	if p.current != nil {
		p.current()
		p.current = nil
	}
	p.mu.Unlock()

	close(p.stop)
	<-p.done
}

func (p *Port) voiceNameLocked() string {
	if p.selected < 0 || p.selected >= len(p.voices) {
		return ""
	}
	return p.voices[p.selected].Name
}

func (p *Port) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Port) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		case <-p.wake:
		}

		for {
			u, ctx, cancel, ok := p.next()
			if !ok {
				break
			}
			err := p.backend.Say(ctx, u)
			cancel()
			p.finish()
			if err != nil && ctx.Err() == nil {
				p.logDebug("speak failed", "text", u.Text, "error", err.Error())
			}
		}
	}
}

// next pops the head of the queue and records its cancel func in the same critical
// section, so an immediate request can always interrupt what is playing.
func (p *Port) next() (Utterance, context.Context, context.CancelFunc, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.queue) == 0 {
		return Utterance{}, nil, nil, false
	}
	u := p.queue[0]
	p.queue = append([]Utterance(nil), p.queue[1:]...)
	ctx, cancel := context.WithCancel(context.Background())
	p.current = cancel
	return u, ctx, cancel, true
}

func (p *Port) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = nil
}

func (p *Port) logDebug(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, args...)
}

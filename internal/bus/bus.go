// Package bus delivers classified transcripts to per-category subscribers.
package bus

import (
	"log/slog"
	"sync"

	"github.com/rbright/voxboard/internal/grammar"
)

// Handler receives the full transcript of a matching dispatch.
type Handler func(transcript string)

// Unsubscribe removes one subscription. It is safe to call more than once.
type Unsubscribe func()

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is the per-category subscriber registry.
type Bus struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID uint64
	subs   map[grammar.Category][]subscription
}

// New constructs an empty bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[grammar.Category][]subscription),
	}
}

// Subscribe registers handler for category and returns its removal handle.
func (b *Bus) Subscribe(category grammar.Category, handler Handler) Unsubscribe {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[category] = append(b.subs[category], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(category, id) })
	}
}

func (b *Bus) remove(category grammar.Category, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[category]
	for i, sub := range current {
		if sub.id != id {
			continue
		}
		next := make([]subscription, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		b.subs[category] = next
		return
	}
}

// Count returns the number of live subscriptions for category.
func (b *Bus) Count(category grammar.Category) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[category])
}

// Dispatch classifies transcript and synchronously invokes every handler of every
// matching category. Handlers registered at call time are the ones invoked.
func (b *Bus) Dispatch(transcript string) []grammar.Category {
	matched := grammar.Classify(transcript)
	if len(matched) == 0 {
		b.logDebug("transcript matched no grammar", "transcript", transcript)
		return matched
	}

	type delivery struct {
		category grammar.Category
		handlers []Handler
	}

	b.mu.Lock()
	plan := make([]delivery, 0, len(matched))
	for _, category := range matched {
		subs := b.subs[category]
		handlers := make([]Handler, 0, len(subs))
		for _, sub := range subs {
			handlers = append(handlers, sub.handler)
		}
		plan = append(plan, delivery{category: category, handlers: handlers})
	}
	b.mu.Unlock()

	delivered := 0
	for _, d := range plan {
		for _, handler := range d.handlers {
			handler(transcript)
			delivered++
		}
	}

	b.logDebug("transcript dispatched",
		"transcript", transcript,
		"categories", matched,
		"handlers", delivered,
	)
	return matched
}

func (b *Bus) logDebug(msg string, args ...any) {
	if b.logger == nil {
		return
	}
	b.logger.Debug(msg, args...)
}

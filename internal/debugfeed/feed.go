// Package debugfeed keeps the most recent recognized texts for display.
package debugfeed

import (
	"slices"
	"sync"
	"time"

	"github.com/rbright/voxboard/internal/clock"
)

const (
	// DefaultCapacity is the number of entries kept.
	DefaultCapacity = 3
	// DefaultTTL is how long an entry stays visible.
	DefaultTTL = 5 * time.Second
)

// Entry is one recognized text.
type Entry struct {
	ID    uint64    `json:"id"`
	Text  string    `json:"text"`
	Final bool      `json:"final"`
	At    time.Time `json:"at"`
}

// Observer receives the visible entries after every change.
type Observer func([]Entry)

// Unsubscribe removes an observer. It is safe to call more than once.
type Unsubscribe func()

// Feed is a capped, expiring list of recognized texts. It is purely observational.
type Feed struct {
	scheduler clock.Scheduler
	capacity  int
	ttl       time.Duration

	mu        sync.Mutex
	nextID    uint64
	entries   []Entry
	observers map[uint64]Observer
	nextObs   uint64
}

// New constructs a feed with the default capacity and expiry.
func New(scheduler clock.Scheduler) *Feed {
	if scheduler == nil {
		scheduler = clock.Real{}
	}
	return &Feed{
		scheduler: scheduler,
		capacity:  DefaultCapacity,
		ttl:       DefaultTTL,
		observers: make(map[uint64]Observer),
	}
}

// Push appends text, dropping the oldest entry beyond capacity.
func (f *Feed) Push(text string, final bool) {
	if text == "" {
		return
	}

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.entries = append(f.entries, Entry{ID: id, Text: text, Final: final, At: f.scheduler.Now()})
	if len(f.entries) > f.capacity {
		f.entries = append([]Entry(nil), f.entries[len(f.entries)-f.capacity:]...)
	}
	f.mu.Unlock()

	f.scheduler.AfterFunc(f.ttl, func() { f.expire(id) })
	f.publish()
}

// Entries returns the visible entries, oldest first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Entry(nil), f.entries...)
}

// Subscribe registers an observer called after every push and expiry.
func (f *Feed) Subscribe(observer Observer) Unsubscribe {
	if observer == nil {
		return func() {}
	}

	f.mu.Lock()
	f.nextObs++
	id := f.nextObs
	f.observers[id] = observer
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.observers, id)
			f.mu.Unlock()
		})
	}
}

func (f *Feed) expire(id uint64) {
	f.mu.Lock()
	removed := false
	kept := f.entries[:0]
	for _, entry := range f.entries {
		if entry.ID == id {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	f.entries = kept
	f.mu.Unlock()

	if removed {
		f.publish()
	}
}

func (f *Feed) publish() {
	f.mu.Lock()
	snapshot := append([]Entry(nil), f.entries...)
	observers := make([]Observer, 0, len(f.observers))
	ids := make([]uint64, 0, len(f.observers))
	for id := range f.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		observers = append(observers, f.observers[id])
	}
	f.mu.Unlock()

	for _, observer := range observers {
		observer(snapshot)
	}
}

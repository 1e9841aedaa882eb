package recognizer

import (
	"bufio"
	"io"
	"sync"
)

// Lines treats each line of a reader as a recognition result, for keyboard-driven play.
// The first run consumes the reader; once it is exhausted Start returns ErrExhausted
// and Done is closed.
type Lines struct {
	reader io.Reader

	mu          sync.Mutex
	events      Events
	initialized bool
	running     bool
	exhausted   bool
	stopped     chan struct{}
	done        chan struct{}
	lines       chan string
}

// NewLines constructs a line recognizer over reader.
func NewLines(reader io.Reader) *Lines {
	l := &Lines{
		reader: reader,
		done:   make(chan struct{}),
		lines:  make(chan string),
	}
	return l
}

func (l *Lines) Initialize(events Events) bool {
	if l.reader == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		go l.pump()
	}
	l.events = events
	l.initialized = true
	return true
}

// pump reads the underlying reader exactly once, across runs.
func (l *Lines) pump() {
	scanner := bufio.NewScanner(l.reader)
	for scanner.Scan() {
		l.lines <- scanner.Text()
	}
	close(l.lines)
}

func (l *Lines) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return ErrNotInitialized
	}
	if l.exhausted {
		return ErrExhausted
	}
	if l.running {
		return ErrAlreadyRunning
	}
	l.running = true
	l.stopped = make(chan struct{})
	go l.run(l.events, l.stopped)
	return nil
}

func (l *Lines) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running || l.stopped == nil {
		return nil
	}
	close(l.stopped)
	l.stopped = nil
	return nil
}

// Done is closed once the reader is exhausted.
func (l *Lines) Done() <-chan struct{} {
	return l.done
}

func (l *Lines) run(events Events, stopped chan struct{}) {
	events.start()
	for {
		select {
		case <-stopped:
			l.finish(false)
			events.end()
			return
		case raw, ok := <-l.lines:
			if !ok {
				l.finish(true)
				events.end()
				return
			}
			if line, ok := parseLine(raw); ok {
				emitLine(events, line)
			}
		}
	}
}

func (l *Lines) finish(exhausted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
	l.stopped = nil
	if exhausted && !l.exhausted {
		l.exhausted = true
		close(l.done)
	}
}

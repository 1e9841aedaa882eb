package settings

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the burst of events one editor save produces.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports external edits to the settings file. It watches the parent
// directory so atomic replace-by-rename saves are seen.
type Watcher struct {
	path     string
	onChange func()
	logger   *slog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatcher starts watching the directory holding path, creating it if needed.
func NewWatcher(path string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create settings dir %q: %w", dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch settings dir %q: %w", dir, err)
	}

	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   logger,
		debounce: DefaultDebounce,
		watcher:  fsw,
	}, nil
}

// Run delivers debounced change notifications until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logDebug("settings file event", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
			pending = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logDebug("settings watcher error", "error", err.Error())

		case <-timerC:
			timerC = nil
			if pending && w.onChange != nil {
				pending = false
				w.onChange()
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write) != 0
}

func (w *Watcher) logDebug(msg string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Debug(msg, args...)
}

package contextdoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses bursts of filesystem events into one change.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changes to a context file or directory.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	fsw      *fsnotify.Watcher
	changes  chan string
}

// NewWatcher starts watching path. For a file, its parent directory is
// watched and events are filtered to the file name.
func NewWatcher(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		logger:   logger,
		fsw:      fsw,
		changes:  make(chan string, 1),
	}, nil
}

// Changes delivers the name of the last changed file after each quiet period.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Run processes events until ctx is done, then closes the watcher and the
// Changes channel.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.changes)
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	var pending string

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			select {
			case w.changes <- pending:
			default:
				// A change is already queued; the consumer will re-read anyway.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("context watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	info, err := os.Stat(w.path)
	if err == nil && info.IsDir() {
		return true
	}
	return filepath.Clean(event.Name) == filepath.Clean(w.path)
}

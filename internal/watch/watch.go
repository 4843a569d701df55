// Package watch re-runs a conversion whenever a watched project file is
// written.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before the callback
// runs. SoapUI saves a project in several writes.
const DefaultDebounce = 250 * time.Millisecond

// Func is called with the absolute path of a changed file.
type Func func(ctx context.Context, path string) error

// Watcher monitors project files and calls a Func after they settle.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	onChange Func
	logger   *slog.Logger

	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration

	mu      sync.Mutex
	pending map[string]timer
	gen     uint64
	runs    uint64
}

// timer is the quiet-period timer of one file. gen tells a timer apart from
// the one that replaced it.
type timer struct {
	t   *time.Timer
	gen uint64
}

// firing is sent by a timer whose quiet period ended.
type firing struct {
	path string
	gen  uint64
}

// New watches the given files. Their directories are watched rather than
// the files themselves so that editors which replace a file on save are
// still seen.
func New(files []string, onChange Func, logger *slog.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		files:    make(map[string]bool, len(files)),
		onChange: onChange,
		logger:   logger,
		Debounce: DefaultDebounce,
		pending:  make(map[string]timer),
	}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
		logger.Info("watching", "dir", dir)
	}
	return w, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
// Callbacks run one at a time on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fire := make(chan firing)
	done := make(chan struct{})
	defer close(done)
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !w.files[path] {
				continue
			}
			w.schedule(path, fire, done)

		case f := <-fire:
			if !w.settle(f) {
				continue
			}
			path := f.path
			w.logger.Info("project changed", "path", path)
			if err := w.onChange(ctx, path); err != nil {
				w.logger.Error("conversion failed", "path", path, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// schedule restarts the quiet period for path.
func (w *Watcher) schedule(path string, fire chan<- firing, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p, ok := w.pending[path]; ok {
		p.t.Stop()
	}
	w.gen++
	f := firing{path: path, gen: w.gen}
	w.pending[path] = timer{
		gen: f.gen,
		t: time.AfterFunc(w.Debounce, func() {
			select {
			case fire <- f:
			case <-done:
			}
		}),
	}
}

// settle clears the pending timer f came from and reports whether the
// callback should run. A timer that fired after a newer write replaced it
// is stale; the newer timer runs instead.
func (w *Watcher) settle(f firing) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.pending[f.path]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(w.pending, f.path)
	w.runs++
	return true
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, p := range w.pending {
		p.t.Stop()
		delete(w.pending, path)
	}
}

// Runs reports how many times the callback has been started.
func (w *Watcher) Runs() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

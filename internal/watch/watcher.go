// Package watch provides an advisory filesystem watcher that invalidates
// cache entries when schema description files change. It is best-effort
// only: every cache read independently re-verifies modification times, so
// correctness never depends on notification delivery.
package watch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator is the cache surface the watcher drives
type Invalidator interface {
	Invalidate(path string)
}

// Watcher monitors a directory of schema description files and invalidates
// cache entries for changed paths after a debounce window
type Watcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cache     Invalidator
	logger    *zap.Logger
	dir       string
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the debounce window for change batches
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debouncer = newDebouncer(d) }
}

// New creates a watcher over dir that invalidates entries in cache
func New(cache Invalidator, dir string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		watcher:   fsw,
		debouncer: newDebouncer(100 * time.Millisecond),
		cache:     cache,
		logger:    zap.NewNop(),
		dir:       dir,
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("watcher_id", uuid.NewString()))
	w.debouncer.setCallback(w.invalidate)

	return w, nil
}

// Start begins watching the directory
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	w.logger.Debug("watching directory", zap.String("dir", w.dir))

	w.wg.Add(1)
	go w.watch()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopChan:
		return nil
	default:
		close(w.stopChan)
	}
	w.wg.Wait()
	w.debouncer.stop()
	return w.watcher.Close()
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isSchemaFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Debug("schema file changed",
					zap.String("path", event.Name),
					zap.Stringer("op", event.Op))
				w.debouncer.add(event.Name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-w.stopChan:
			return
		}
	}
}

// invalidate drops cache entries for every changed file and for its
// directory, since directory lookups resolve through conventional names
func (w *Watcher) invalidate(files []string) {
	for _, f := range files {
		w.cache.Invalidate(f)
		w.cache.Invalidate(filepath.Dir(f))
	}
	w.logger.Debug("invalidated cache entries", zap.Int("files", len(files)))
}

func isSchemaFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch filepath.Ext(base) {
	case ".json", ".md":
		return true
	default:
		return false
	}
}

// debouncer collects changed paths and fires the callback once per quiet
// window
type debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
}

func newDebouncer(duration time.Duration) *debouncer {
	return &debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

func (d *debouncer) setCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

func (d *debouncer) add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.files[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.files) == 0 {
		return
	}
	files := make([]string, 0, len(d.files))
	for f := range d.files {
		files = append(files, f)
	}
	d.files = make(map[string]struct{})

	if d.callback != nil {
		d.callback(files)
	}
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

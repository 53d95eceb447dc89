package skills

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kieranklaassen/agentskills/pkg/logger"
	"github.com/pkg/errors"
)

// DefaultDebounce is the delay between the last filesystem event and the
// loader reload it triggers.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a loader when files under the watched skill directories
// change. Rapid event bursts collapse into a single reload.
type Watcher struct {
	loader   Loader
	dirs     []string
	debounce time.Duration
	onReload func(ctx context.Context)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher) error

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) error {
		if d < 0 {
			return errors.Errorf("debounce cannot be negative: %s", d)
		}
		w.debounce = d
		return nil
	}
}

// WithOnReload registers a callback invoked after each reload.
func WithOnReload(fn func(ctx context.Context)) WatcherOption {
	return func(w *Watcher) error {
		w.onReload = fn
		return nil
	}
}

// NewWatcher creates a watcher that reloads loader whenever files under
// dirs change.
func NewWatcher(loader Loader, dirs []string, opts ...WatcherOption) (*Watcher, error) {
	if loader == nil {
		return nil, errors.New("loader is required")
	}
	w := &Watcher{
		loader:   loader,
		dirs:     dirs,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Start watches until ctx is cancelled. Directories created under the
// watched roots are picked up as they appear.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := addRecursive(fw, dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	log := logger.G(ctx)
	log.WithField("dirs", w.dirs).Debug("watching skill directories")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(fw, event.Name); err != nil {
						log.WithError(err).WithField("dir", event.Name).Warn("failed to watch new directory")
					}
				}
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("file watcher error")

		case <-timer.C:
			pending = false
			w.loader.Reload()
			log.Debug("skill collection reloaded")
			if w.onReload != nil {
				w.onReload(ctx)
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"sentinelscan/internal/telemetry"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher interface allows mocking fsnotify
type FileWatcher interface {
	Events() <-chan fsnotify.Event
	Errors() <-chan error
	Add(name string) error
	Close() error
}

// FSNotifyWatcher wraps fsnotify.Watcher
type FSNotifyWatcher struct {
	watcher *fsnotify.Watcher
}

func NewFSNotifyWatcher() (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FSNotifyWatcher{watcher: w}, nil
}

func (w *FSNotifyWatcher) Events() <-chan fsnotify.Event { return w.watcher.Events }
func (w *FSNotifyWatcher) Errors() <-chan error          { return w.watcher.Errors }
func (w *FSNotifyWatcher) Add(name string) error         { return w.watcher.Add(name) }
func (w *FSNotifyWatcher) Close() error                  { return w.watcher.Close() }

// Watcher re-runs a callback after scannable files under root change.
type Watcher struct {
	root     string
	filter   *Filter
	debounce time.Duration
	fw       FileWatcher

	file string // set when root is a single file
}

// NewWatcher creates a Watcher on top of fw.
func NewWatcher(root string, filter *Filter, fw FileWatcher, debounce time.Duration) *Watcher {
	if filter == nil {
		filter = DefaultFilter()
	}
	return &Watcher{root: root, filter: filter, debounce: debounce, fw: fw}
}

func (w *Watcher) addRecursive() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// a file is watched through its directory so that editors which
		// replace it on save are still seen
		w.file = filepath.Clean(w.root)
		return w.fw.Add(filepath.Dir(w.file))
	}
	return filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, _ := filepath.Rel(w.root, p); rel != "." && w.filter.Excluded(rel) {
			return filepath.SkipDir
		}
		return w.fw.Add(p)
	})
}

// relevant reports whether an event touches a file the filter would scan.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if w.file != "" {
		return filepath.Clean(event.Name) == w.file
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	return w.filter.Accept(rel, 0)
}

// Run blocks until ctx is done, calling onChange once per burst of changes.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	defer w.fw.Close()
	if err := w.addRecursive(); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events():
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && w.file == "" {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if rel, _ := filepath.Rel(w.root, event.Name); !w.filter.Excluded(rel) {
						if err := w.fw.Add(event.Name); err != nil {
							telemetry.LogWarn("Failed to watch new directory", "dir", event.Name, "error", err)
						}
					}
				}
			}
			if !w.relevant(event) {
				continue
			}
			telemetry.LogDebug("Change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fw.Errors():
			if !ok {
				return nil
			}
			telemetry.LogWarn("Watcher error", "error", err)
		case <-fire:
			fire = nil
			onChange(ctx)
		}
	}
}

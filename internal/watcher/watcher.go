// Package watcher re-runs the post-build pass when a build output
// directory is regenerated.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

// DefaultDebounce groups the burst of writes a host build produces.
const DefaultDebounce = 2 * time.Second

// Watcher triggers a callback once writes under a directory settle.
type Watcher struct {
	root     string
	debounce time.Duration
	log      terminal.Logger
	onChange func(ctx context.Context)

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	running bool
	// ignoreUntil suppresses events caused by the callback's own writes.
	ignoreUntil time.Time
}

// New creates a watcher for root. onChange is never invoked concurrently.
func New(root string, debounce time.Duration, log terminal.Logger, onChange func(ctx context.Context)) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		root:     abs,
		debounce: debounce,
		log:      log,
		onChange: onChange,
		watcher:  fw,
	}, nil
}

// Run watches root and every directory below it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.log.Info(fmt.Sprintf("Watching %s", w.root))

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
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
			if w.ignored(event) {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warning(fmt.Sprintf("Watcher error: %v", err))

		case <-trigger:
			w.fire(ctx)
		}
	}
}

func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.onChange(ctx)

	w.mu.Lock()
	w.running = false
	w.ignoreUntil = time.Now().Add(w.debounce)
	w.mu.Unlock()
}

func (w *Watcher) ignored(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return true
	}
	// Temp files from atomic rewrites.
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running || time.Now().Before(w.ignoreUntil)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

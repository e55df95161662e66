// Package config loads the directory routing configuration from disk and
// keeps it current, watching the backing file with fsnotify and pushing
// every change through directory.ShardDirectory.RefreshConfiguration (spec
// §4.1's atomic table swap).
//
// No teacher file does hot-reload — torua's cluster topology changes by
// nodes calling /register, not by editing a file on disk — so this package
// is grounded directly on fsnotify's own recommended usage pattern: a single
// watched path, a debounce timer absorbing the burst of WRITE/CREATE events
// most editors and config-management tools produce for one logical save,
// and a retry-tolerant reload that logs and keeps watching on a malformed
// file rather than giving up.
package config

import (
	"context"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/alastairwyse/ApplicationAccess-sub002/internal/directory"
)

// Directory is the subset of directory.ShardDirectory the watcher needs,
// kept narrow so tests can supply a fake without building a full
// StaticDirectory.
type Directory interface {
	RefreshConfiguration(ctx context.Context, cfg directory.Config) error
}

// debounceInterval absorbs the burst of filesystem events one logical save
// produces (most editors write-then-rename, some write in place and touch
// the file twice).
const debounceInterval = 200 * time.Millisecond

// Watcher reloads a directory.Config from path whenever the file changes
// and applies it to a Directory.
type Watcher struct {
	path    string
	dir     Directory
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a Watcher for path, without loading or watching yet.
// Call Load for the initial configuration and Start to begin watching.
func NewWatcher(path string, dir Directory) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: path, dir: dir, watcher: fsw, done: make(chan struct{})}, nil
}

// Load reads the configuration file once and applies it immediately. Call
// this before Start so the directory is populated before the process starts
// serving traffic.
func (w *Watcher) Load(ctx context.Context) error {
	cfg, err := directory.LoadConfigFile(w.path)
	if err != nil {
		return err
	}
	return w.dir.RefreshConfiguration(ctx, cfg)
}

// Start watches the configuration file for changes, debouncing bursts of
// filesystem events into a single reload, until ctx is cancelled or Stop is
// called. It runs in the calling goroutine; callers typically invoke it via
// `go watcher.Start(ctx)`.
func (w *Watcher) Start(ctx context.Context) {
	var timer *time.Timer
	reload := func() {
		if err := w.Load(ctx); err != nil {
			log.Printf("config: reload of %s failed, keeping previous configuration: %v", w.path, err)
			return
		}
		log.Printf("config: reloaded %s", w.path)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceInterval, reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watch error on %s: %v", w.path, err)
		}
	}
}

// Stop ends the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

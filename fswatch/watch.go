// Package fswatch turns raw fsnotify events into debounced batches of
// changed workspace paths.
package fswatch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/scribe-ls/scribe/debug"
	"github.com/scribe-ls/scribe/scope"
)

const (
	defaultDebounce = 100 * time.Millisecond
	defaultBuffer   = 8
)

type Options struct {
	// Debounce is the quiet period collected changes wait for before a
	// batch is emitted.
	Debounce time.Duration
	// Buffer is the capacity of the outgoing batch channel.
	Buffer int
}

// Watcher watches the workspace root recursively and emits one batch of
// changed paths per quiet period. Batches are delivered on Events in
// sorted order; filtering of individual files against ignore rules is the
// consumer's concern, only ignored directories are pruned from watching.
type Watcher struct {
	sc       *scope.Scope
	fsw      *fsnotify.Watcher
	out      chan []string
	debounce time.Duration
	log      *zap.Logger
}

func New(sc *scope.Scope, opts Options, log *zap.Logger) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		sc:       sc,
		fsw:      fsw,
		out:      make(chan []string, opts.Buffer),
		debounce: opts.Debounce,
		log:      log,
	}
	if err := w.addDirs(sc.Root()); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addDirs registers root and every non-ignored directory below it.
func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree; keep watching the rest.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.sc.Root() {
			if _, ok := w.sc.Localize(p); !ok {
				return filepath.SkipDir
			}
		}
		if debug.Watch() {
			debug.Logf("watch: add dir %s", p)
		}
		return w.fsw.Add(p)
	})
}

// Events yields batches of coalesced changed paths.
func (w *Watcher) Events() <-chan []string {
	return w.out
}

// Run pumps fsnotify events until ctx is done, coalescing changes until
// the debounce window passes without new activity.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	var (
		pending = map[string]struct{}{}
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					// Directories created after startup get watched too.
					if err := w.addDirs(ev.Name); err != nil {
						w.log.Warn("watch new directory", zap.String("dir", ev.Name), zap.Error(err))
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			pending[ev.Name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			timer, fire = nil, nil
			batch := drain(pending)
			if len(batch) == 0 {
				continue
			}
			if debug.Watch() {
				debug.Logf("watch: emit %d path(s): %s", len(batch), debug.JSON(batch))
			}
			select {
			case w.out <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("filesystem watcher error", zap.Error(err))
		}
	}
}

// drain snapshots and clears the pending set, sorted for stable output.
func drain(pending map[string]struct{}) []string {
	if len(pending) == 0 {
		return nil
	}
	batch := make([]string, 0, len(pending))
	for p := range pending {
		batch = append(batch, p)
		delete(pending, p)
	}
	sort.Strings(batch)
	return batch
}

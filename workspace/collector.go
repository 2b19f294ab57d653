// Package workspace reconciles editor buffer edits, open/close lifecycle
// notifications, and filesystem-watcher changes into one consistent
// per-file snapshot per batch, then commits the epoch-tagged batch to the
// analysis pipeline.
package workspace

import (
	"fmt"

	"github.com/scribe-ls/scribe/debug"
	"github.com/scribe-ls/scribe/pipeline"
	"github.com/scribe-ls/scribe/scope"
	"github.com/scribe-ls/scribe/textpatch"
)

// Update is the pending update for one path within the current batch.
// Contents always reflects the last applied event, never a blend of two
// sources. Opened and Closed are not mutually exclusive: both end up true
// when a batch opens a path and then closes it.
type Update struct {
	Path     string
	Contents string
	Opened   bool
	Closed   bool
}

// Collector folds events into a per-batch map of pending updates, keyed by
// path. Events are folded strictly sequentially; a Collector is used from
// one goroutine for one batch at a time.
type Collector struct {
	scope    *scope.Scope
	session  *Session
	fs       FileReader
	baseline pipeline.Baseline

	pending map[string]*Update
	order   []string
}

func NewCollector(sc *scope.Scope, sess *Session, fs FileReader, base pipeline.Baseline) *Collector {
	return &Collector{
		scope:    sc,
		session:  sess,
		fs:       fs,
		baseline: base,
		pending:  map[string]*Update{},
	}
}

// Len returns the number of paths with a pending update.
func (c *Collector) Len() int {
	return len(c.pending)
}

// Collect folds one event into the pending updates. Events for paths
// outside the workspace or matching an ignore rule are dropped silently.
// An error is fatal for the whole batch.
func (c *Collector) Collect(ev Event) error {
	switch ev := ev.(type) {
	case Open:
		return c.open(ev)
	case Change:
		return c.change(ev)
	case Close:
		return c.close(ev)
	case DiskChange:
		return c.diskChange(ev)
	default:
		return fmt.Errorf("unknown event type %T", ev)
	}
}

// CollectAll folds a sequence of events in order, stopping at the first
// error.
func (c *Collector) CollectAll(events []Event) error {
	for _, ev := range events {
		if err := c.Collect(ev); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) open(ev Open) error {
	path, ok := c.scope.FromURI(ev.URI)
	if !ok {
		return nil
	}
	u := c.ensure(path)
	u.Contents = ev.Text
	u.Opened = true
	// An open always resets the closed flag; both flags can only end up
	// true via a close arriving after an open, not vice versa.
	u.Closed = false
	c.session.Add(path)
	return nil
}

func (c *Collector) change(ev Change) error {
	path, ok := c.scope.FromURI(ev.URI)
	if !ok {
		return nil
	}
	base := c.base(path)
	contents, err := textpatch.ApplyAll(base, ev.Edits)
	if err != nil {
		return fmt.Errorf("change %s: %w", path, err)
	}
	if debug.Patch() {
		debug.Logf("patch %s: %d edit(s), %d -> %d bytes", path, len(ev.Edits), len(base), len(contents))
	}
	// A change only updates content; opened/closed flags are preserved.
	c.ensure(path).Contents = contents
	return nil
}

// base resolves the buffer a change applies to: the pending entry if the
// batch already touched the path, else the pipeline's last-committed
// contents, else empty.
func (c *Collector) base(path string) string {
	if u, ok := c.pending[path]; ok {
		return u.Contents
	}
	if contents, ok := c.baseline.Lookup(path); ok {
		return contents
	}
	return ""
}

func (c *Collector) close(ev Close) error {
	path, ok := c.scope.FromURI(ev.URI)
	if !ok {
		return nil
	}
	// The editor no longer owns the buffer; re-read the truth from disk.
	contents, err := c.read(path)
	if err != nil {
		return err
	}
	u := c.ensure(path)
	u.Contents = contents
	// Opened stays as it was: an open earlier in the batch keeps the path
	// marked newly opened, and newly opened paths stay editor-owned for the
	// rest of the batch.
	u.Closed = true
	c.session.Remove(path)
	return nil
}

func (c *Collector) diskChange(ev DiskChange) error {
	for _, p := range ev.Paths {
		path, ok := c.scope.Localize(p)
		if !ok {
			continue
		}
		// Editor contents supersede filesystem updates: a watcher
		// notification racing a keystroke must not clobber the live buffer.
		if editorProtected(c.pending[path], c.session, path) {
			if debug.Watch() {
				debug.Logf("watch: %s is editor-owned, skipping disk read", path)
			}
			continue
		}
		contents, err := c.read(path)
		if err != nil {
			return err
		}
		// Flags stay as they were; a filesystem change is not a lifecycle
		// transition.
		c.ensure(path).Contents = contents
	}
	return nil
}

// read loads path from disk, treating a missing file as empty. The system
// does not distinguish "deleted" from "never existed".
func (c *Collector) read(path string) (string, error) {
	contents, found, err := c.fs.Read(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if !found {
		return "", nil
	}
	return contents, nil
}

// ensure returns the pending update for path, creating it on first touch
// and recording insertion order for deterministic batch output.
func (c *Collector) ensure(path string) *Update {
	if u, ok := c.pending[path]; ok {
		return u
	}
	u := &Update{Path: path}
	c.pending[path] = u
	c.order = append(c.order, path)
	return u
}

package workspace

import (
	"go.lsp.dev/uri"

	"github.com/scribe-ls/scribe/textpatch"
)

// Event is one workspace update from the editor or the filesystem watcher.
// Exactly four kinds exist; Collector.Collect dispatches over all of them
// so the precedence-sensitive handlers stay visible together.
type Event interface {
	isEvent()
}

// Open reports a document opened in the editor, carrying its full text.
type Open struct {
	URI  uri.URI
	Text string
}

// Change carries incremental edits to a document's live buffer.
type Change struct {
	URI   uri.URI
	Edits []textpatch.Edit
}

// Close reports a document closed in the editor. Its content reverts to
// whatever is on disk.
type Close struct {
	URI uri.URI
}

// DiskChange carries paths reported by the filesystem watcher, absolute or
// relative to the workspace root.
type DiskChange struct {
	Paths []string
}

func (Open) isEvent()       {}
func (Change) isEvent()     {}
func (Close) isEvent()      {}
func (DiskChange) isEvent() {}

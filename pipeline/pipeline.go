// Package pipeline defines the boundary between workspace synchronization
// and the analysis pipeline, plus an in-process pipeline implementation.
package pipeline

import "context"

// FileKind classifies a materialized file value.
type FileKind int

const (
	// FileNormal is an ordinary workspace source file.
	FileNormal FileKind = iota
)

// File is one materialized file value inside a batch.
type File struct {
	Path     string
	Contents string
	Kind     FileKind
}

// Batch is one epoch-tagged workspace-update generation. UpdatedFiles
// holds every path touched in the batch exactly once, in first-touch
// order. A path appears in OpenedFiles and ClosedFiles simultaneously when
// the batch both opened and closed it.
type Batch struct {
	Epoch        uint64
	UpdatedFiles []File
	OpenedFiles  []string
	ClosedFiles  []string
}

// Committer is the pipeline's commit primitive. A commit is one logical
// call; the sync engine never retries, a retry is a fresh event sequence.
type Committer interface {
	Commit(ctx context.Context, batch *Batch) error
}

// Baseline looks up the last-committed contents for a path. It backs
// incremental edits against paths that have no pending update yet.
type Baseline interface {
	Lookup(path string) (contents string, ok bool)
}

package workspace

import (
	"context"
	"fmt"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/scribe-ls/scribe/debug"
	"github.com/scribe-ls/scribe/pipeline"
)

// Commit finalizes the pending updates into an epoch-tagged batch and
// hands it to the pipeline. With nothing pending it commits nothing: the
// pipeline is not invoked and its state is left untouched, and the
// returned batch is nil. On success the pending set is consumed.
func (c *Collector) Commit(ctx context.Context, epoch uint64, p pipeline.Committer) (*pipeline.Batch, error) {
	if len(c.pending) == 0 {
		return nil, nil
	}
	batch := &pipeline.Batch{
		Epoch:        epoch,
		UpdatedFiles: make([]pipeline.File, 0, len(c.pending)),
	}
	for _, path := range c.order {
		u := c.pending[path]
		if u.Opened {
			batch.OpenedFiles = append(batch.OpenedFiles, path)
		}
		if u.Closed {
			batch.ClosedFiles = append(batch.ClosedFiles, path)
		}
		batch.UpdatedFiles = append(batch.UpdatedFiles, pipeline.File{
			Path:     path,
			Contents: u.Contents,
			Kind:     pipeline.FileNormal,
		})
	}
	if debug.Batch() {
		c.logChurn(batch)
	}
	if err := p.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("commit epoch %d: %w", epoch, err)
	}
	c.pending = map[string]*Update{}
	c.order = c.order[:0]
	return batch, nil
}

// logChurn reports per-file insert/delete byte counts against the
// baseline.
func (c *Collector) logChurn(b *pipeline.Batch) {
	dmp := diffpatch.New()
	for _, f := range b.UpdatedFiles {
		base, _ := c.baseline.Lookup(f.Path)
		ins, del := 0, 0
		for _, d := range dmp.DiffMain(base, f.Contents, false) {
			switch d.Type {
			case diffpatch.DiffInsert:
				ins += len(d.Text)
			case diffpatch.DiffDelete:
				del += len(d.Text)
			}
		}
		debug.Logf("batch %d: %s +%d -%d", b.Epoch, f.Path, ins, del)
	}
}

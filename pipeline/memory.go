package pipeline

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process pipeline. It keeps the last-committed contents
// per path and serves them back as the baseline for later batches. It is
// safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	epoch    uint64
	files    map[string]string
	onCommit func(*Batch)
}

func NewMemory() *Memory {
	return &Memory{files: map[string]string{}}
}

// OnCommit installs a hook invoked after every successful commit.
func (m *Memory) OnCommit(fn func(*Batch)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCommit = fn
}

// Commit folds a batch into the committed snapshot. Epochs must not
// regress; a stale batch indicates a caller bug and is rejected.
func (m *Memory) Commit(ctx context.Context, batch *Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if batch.Epoch < m.epoch {
		cur := m.epoch
		m.mu.Unlock()
		return fmt.Errorf("stale batch: epoch %d behind %d", batch.Epoch, cur)
	}
	m.epoch = batch.Epoch
	for _, f := range batch.UpdatedFiles {
		m.files[f.Path] = f.Contents
	}
	fn := m.onCommit
	m.mu.Unlock()
	if fn != nil {
		fn(batch)
	}
	return nil
}

func (m *Memory) Lookup(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contents, ok := m.files[path]
	return contents, ok
}

// Epoch returns the epoch of the last committed batch.
func (m *Memory) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// Len returns the number of committed paths.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

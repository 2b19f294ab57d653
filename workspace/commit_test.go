package workspace

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/scribe-ls/scribe/pipeline"
	"github.com/scribe-ls/scribe/textpatch"
)

type fakeCommitter struct {
	calls   int
	batches []*pipeline.Batch
	err     error
}

func (fc *fakeCommitter) Commit(ctx context.Context, batch *pipeline.Batch) error {
	fc.calls++
	fc.batches = append(fc.batches, batch)
	return fc.err
}

func TestCommitEmpty(t *testing.T) {
	f := newFixture(t)
	fc := &fakeCommitter{}

	batch, err := f.col.Commit(context.Background(), 7, fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch != nil {
		t.Fatalf("got batch %+v, want nil", batch)
	}
	if fc.calls != 0 {
		t.Fatalf("pipeline invoked %d times for an empty batch", fc.calls)
	}
}

func TestCommitOnlyFilteredEventsIsEmpty(t *testing.T) {
	f := newFixture(t, "*.tmp")
	fc := &fakeCommitter{}
	f.collect(
		Open{URI: f.uri("a.tmp"), Text: "ignored"},
		DiskChange{Paths: []string{"/elsewhere/b.sc"}},
	)
	batch, err := f.col.Commit(context.Background(), 1, fc)
	if err != nil || batch != nil || fc.calls != 0 {
		t.Fatalf("batch=%v err=%v calls=%d, want nothing committed", batch, err, fc.calls)
	}
}

func TestCommitMaterializes(t *testing.T) {
	f := newFixture(t)
	f.fs.files[f.path("c.sc")] = "c disk"
	f.sess.Add(f.path("c.sc"))
	f.collect(
		Open{URI: f.uri("a.sc"), Text: "a text"},
		Change{URI: f.uri("b.sc"), Edits: []textpatch.Edit{{Text: "b text"}}},
		Close{URI: f.uri("c.sc")},
	)

	fc := &fakeCommitter{}
	batch, err := f.col.Commit(context.Background(), 42, fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.calls != 1 {
		t.Fatalf("pipeline invoked %d times, want 1", fc.calls)
	}
	if batch.Epoch != 42 {
		t.Fatalf("epoch %d, want 42", batch.Epoch)
	}

	wantPaths := []string{f.path("a.sc"), f.path("b.sc"), f.path("c.sc")}
	var gotPaths []string
	for _, fv := range batch.UpdatedFiles {
		gotPaths = append(gotPaths, fv.Path)
		if fv.Kind != pipeline.FileNormal {
			t.Fatalf("%s kind %v, want FileNormal", fv.Path, fv.Kind)
		}
	}
	if !slices.Equal(gotPaths, wantPaths) {
		t.Fatalf("updated files %v, want first-touch order %v", gotPaths, wantPaths)
	}
	if !slices.Equal(batch.OpenedFiles, []string{f.path("a.sc")}) {
		t.Fatalf("opened %v", batch.OpenedFiles)
	}
	if !slices.Equal(batch.ClosedFiles, []string{f.path("c.sc")}) {
		t.Fatalf("closed %v", batch.ClosedFiles)
	}
}

func TestCommitOpenAndCloseSamePath(t *testing.T) {
	f := newFixture(t)
	f.fs.files[f.path("a.sc")] = "disk"
	f.collect(
		Open{URI: f.uri("a.sc"), Text: "X"},
		Close{URI: f.uri("a.sc")},
	)
	fc := &fakeCommitter{}
	batch, err := f.col.Commit(context.Background(), 1, fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.UpdatedFiles) != 1 {
		t.Fatalf("updated files %v, want the path exactly once", batch.UpdatedFiles)
	}
	if !slices.Equal(batch.OpenedFiles, []string{f.path("a.sc")}) ||
		!slices.Equal(batch.ClosedFiles, []string{f.path("a.sc")}) {
		t.Fatalf("opened=%v closed=%v, want the path in both", batch.OpenedFiles, batch.ClosedFiles)
	}
}

func TestCommitOrderIndependenceAcrossDisjointPaths(t *testing.T) {
	build := func(f *fixture, events []Event) map[string]string {
		f.collect(events...)
		fc := &fakeCommitter{}
		batch, err := f.col.Commit(context.Background(), 1, fc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res := map[string]string{}
		for _, fv := range batch.UpdatedFiles {
			res[fv.Path] = fv.Contents
		}
		return res
	}

	f1 := newFixture(t)
	f2 := newFixture(t)
	// Different roots produce different absolute paths; compare contents by
	// relative key instead.
	mk := func(f *fixture) []Event {
		return []Event{
			Open{URI: f.uri("a.sc"), Text: "A"},
			Change{URI: f.uri("b.sc"), Edits: []textpatch.Edit{{Text: "B"}}},
			Open{URI: f.uri("c.sc"), Text: "C"},
		}
	}
	ev1 := mk(f1)
	ev2 := mk(f2)
	slices.Reverse(ev2)

	rel := func(f *fixture, m map[string]string) map[string]string {
		res := map[string]string{}
		for _, r := range []string{"a.sc", "b.sc", "c.sc"} {
			res[r] = m[f.path(r)]
		}
		return res
	}
	m1 := rel(f1, build(f1, ev1))
	m2 := rel(f2, build(f2, ev2))
	for k, v := range m1 {
		if m2[k] != v {
			t.Fatalf("content for %s differs across event orders: %q vs %q", k, v, m2[k])
		}
	}
}

func TestCommitConsumesPending(t *testing.T) {
	f := newFixture(t)
	f.collect(Open{URI: f.uri("a.sc"), Text: "x"})
	fc := &fakeCommitter{}
	if _, err := f.col.Commit(context.Background(), 1, fc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	batch, err := f.col.Commit(context.Background(), 2, fc)
	if err != nil || batch != nil {
		t.Fatalf("second commit batch=%v err=%v, want nothing left", batch, err)
	}
	if fc.calls != 1 {
		t.Fatalf("pipeline invoked %d times, want 1", fc.calls)
	}
}

func TestCommitErrorKeepsPending(t *testing.T) {
	f := newFixture(t)
	f.collect(Open{URI: f.uri("a.sc"), Text: "x"})
	fc := &fakeCommitter{err: errors.New("pipeline down")}
	if _, err := f.col.Commit(context.Background(), 1, fc); err == nil {
		t.Fatal("expected error")
	}
	if f.col.Len() != 1 {
		t.Fatal("failed commit must not consume the pending set")
	}
}

package main

import (
	"context"
	"errors"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/scribe-ls/scribe/textpatch"
	"github.com/scribe-ls/scribe/workspace"
)

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.events <- workspace.Open{
		URI:  params.TextDocument.URI,
		Text: params.TextDocument.Text,
	}
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.events <- workspace.Change{
		URI:   params.TextDocument.URI,
		Edits: editsOf(params.ContentChanges),
	}
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.events <- workspace.Close{URI: params.TextDocument.URI}
	return nil
}

func (s *Server) DidChangeWatchedFiles(ctx context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	paths := make([]string, 0, len(params.Changes))
	for _, change := range params.Changes {
		if !strings.HasPrefix(string(change.URI), "file://") {
			continue
		}
		paths = append(paths, change.URI.Filename())
	}
	if len(paths) > 0 {
		s.events <- workspace.DiskChange{Paths: paths}
	}
	return nil
}

// batchLoop drains the event queue one batch at a time: it blocks for the
// first event, merges whatever else is already queued, and commits. Racing
// events for one path therefore land in the same batch, where the
// collector's precedence rule decides between them.
func (s *Server) batchLoop(ctx context.Context) {
	var epoch uint64
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			batch := []workspace.Event{ev}
		drain:
			for {
				select {
				case more := <-s.events:
					batch = append(batch, more)
				default:
					break drain
				}
			}
			epoch++
			s.runBatch(ctx, epoch, batch)
		}
	}
}

func (s *Server) runBatch(ctx context.Context, epoch uint64, events []workspace.Event) {
	col := workspace.NewCollector(s.scope, s.session, workspace.DiskReader{}, s.pipe)
	if err := col.CollectAll(events); err != nil {
		// A malformed edit desynchronizes the whole batch; drop it loudly
		// so the client can resynchronize with full document contents.
		s.log.Error("batch dropped",
			zap.Uint64("epoch", epoch),
			zap.Int("events", len(events)),
			zap.Error(err))
		return
	}
	committed, err := col.Commit(ctx, epoch, s.pipe)
	if err != nil {
		s.log.Error("commit failed", zap.Uint64("epoch", epoch), zap.Error(err))
		return
	}
	if committed == nil {
		return
	}
	s.log.Debug("batch committed",
		zap.Uint64("epoch", epoch),
		zap.Int("files", len(committed.UpdatedFiles)),
		zap.Int("opened", len(committed.OpenedFiles)),
		zap.Int("closed", len(committed.ClosedFiles)))
}

func (s *Server) pumpWatcher(ctx context.Context) {
	go func() {
		if err := s.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("filesystem watcher stopped", zap.Error(err))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case paths, ok := <-s.watcher.Events():
			if !ok {
				return
			}
			s.events <- workspace.DiskChange{Paths: paths}
		}
	}
}

// editsOf converts wire content changes into engine edits. The protocol
// type cannot express an absent range: the whole-document replacement form
// arrives as the zero range with no length.
func editsOf(changes []protocol.TextDocumentContentChangeEvent) []textpatch.Edit {
	edits := make([]textpatch.Edit, 0, len(changes))
	for _, change := range changes {
		if isFullReplace(change) {
			edits = append(edits, textpatch.Edit{Text: change.Text})
			continue
		}
		r := change.Range
		edits = append(edits, textpatch.Edit{
			Range: &textpatch.Range{
				Start: textpatch.Pos{Line: int(r.Start.Line), Col: int(r.Start.Character)},
				End:   textpatch.Pos{Line: int(r.End.Line), Col: int(r.End.Character)},
			},
			Text: change.Text,
		})
	}
	return edits
}

// isFullReplace reports whether a content change is the whole-document
// replacement form. The wire type cannot represent an absent range, so a
// genuine zero-length insertion at position (0,0) is indistinguishable from
// a full replacement and is read as one.
func isFullReplace(change protocol.TextDocumentContentChangeEvent) bool {
	r := change.Range
	return change.RangeLength == 0 &&
		r.Start.Line == 0 && r.Start.Character == 0 &&
		r.End.Line == 0 && r.End.Character == 0
}

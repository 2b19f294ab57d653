package main

import (
	"testing"

	"go.lsp.dev/protocol"
)

func TestEditsOf(t *testing.T) {
	changes := []protocol.TextDocumentContentChangeEvent{
		{Text: "whole new document"},
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 1, Character: 2},
				End:   protocol.Position{Line: 3, Character: 4},
			},
			Text: "spliced",
		},
	}
	edits := editsOf(changes)
	if len(edits) != 2 {
		t.Fatalf("got %d edits, want 2", len(edits))
	}
	if edits[0].Range != nil || edits[0].Text != "whole new document" {
		t.Fatalf("edit 0 = %+v, want full replace", edits[0])
	}
	r := edits[1].Range
	if r == nil {
		t.Fatal("edit 1 lost its range")
	}
	if r.Start.Line != 1 || r.Start.Col != 2 || r.End.Line != 3 || r.End.Col != 4 {
		t.Fatalf("edit 1 range = %+v", *r)
	}
	if edits[1].Text != "spliced" {
		t.Fatalf("edit 1 text = %q", edits[1].Text)
	}
}

func TestIsFullReplace(t *testing.T) {
	if !isFullReplace(protocol.TextDocumentContentChangeEvent{Text: "x"}) {
		t.Fatal("zero range with no length is the full-replacement form")
	}
	ranged := protocol.TextDocumentContentChangeEvent{
		Range: protocol.Range{
			End: protocol.Position{Line: 0, Character: 1},
		},
		Text: "x",
	}
	if isFullReplace(ranged) {
		t.Fatal("a real range must stay incremental")
	}
}

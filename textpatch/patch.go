// Package textpatch applies incremental range edits to text buffers.
//
// Positions arrive zero-based, as the editor sends them, and are shifted to
// the document's own 1-based line/column convention before byte offsets are
// computed. Offsets that fall outside the buffer are an error, never
// clamped: a partially patched buffer would silently drift away from the
// true editor buffer.
package textpatch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEdit marks an edit whose range cannot be resolved against the
// buffer it applies to. It is fatal for the whole batch containing the edit.
var ErrMalformedEdit = errors.New("malformed edit")

// Pos is a zero-based line/character position as sent on the wire.
type Pos struct {
	Line int
	Col  int
}

// Range is a half-open [Start, End) span of a buffer.
type Range struct {
	Start Pos
	End   Pos
}

// Edit replaces the text in Range with Text. A nil Range replaces the
// entire buffer.
type Edit struct {
	Range *Range
	Text  string
}

// Apply splices one edit into content and returns the new buffer.
func Apply(content string, e Edit) (string, error) {
	if e.Range == nil {
		return e.Text, nil
	}
	start, err := Offset(content, e.Range.Start)
	if err != nil {
		return "", err
	}
	end, err := Offset(content, e.Range.End)
	if err != nil {
		return "", err
	}
	if end < start {
		return "", fmt.Errorf("%w: end %d:%d before start %d:%d",
			ErrMalformedEdit, e.Range.End.Line, e.Range.End.Col, e.Range.Start.Line, e.Range.Start.Col)
	}
	return content[:start] + e.Text + content[end:], nil
}

// ApplyAll folds edits left to right. Each edit's positions address the
// buffer produced by the edits before it, not the original buffer, matching
// the didChange contract for consecutive content changes.
func ApplyAll(content string, edits []Edit) (string, error) {
	var err error
	for i := range edits {
		content, err = Apply(content, edits[i])
		if err != nil {
			return "", err
		}
	}
	return content, nil
}

// Offset translates a zero-based wire position into a byte offset within
// content.
func Offset(content string, p Pos) (int, error) {
	line, col := p.Line+1, p.Col+1
	if line < 1 || col < 1 {
		return 0, fmt.Errorf("%w: negative position %d:%d", ErrMalformedEdit, p.Line, p.Col)
	}
	lineStart := 0
	for n := 1; n < line; n++ {
		nl := strings.IndexByte(content[lineStart:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("%w: line %d past end of buffer", ErrMalformedEdit, p.Line)
		}
		lineStart += nl + 1
	}
	off := lineStart + col - 1
	if off > len(content) {
		return 0, fmt.Errorf("%w: position %d:%d resolves to offset %d, buffer is %d bytes",
			ErrMalformedEdit, p.Line, p.Col, off, len(content))
	}
	return off, nil
}

// Package edit turns semantic edits into buffer offset edits.
package edit

import (
	"fmt"
	"strings"

	"github.com/sokinpui/formsync/model"
)

// LineTerminator ends every inserted declaration or statement.
const LineTerminator = "\n"

// Buffer is the text buffer service a pass mutates. Lines and columns are
// 1-based; offsets are byte offsets into Text.
type Buffer interface {
	Text() string
	PositionToOffset(line, column int) (int, error)
	Replace(offset, length int, text string) error
	MarkModified()
}

// Session applies the edits of one pass and marks every touched buffer as
// modified exactly once on Commit.
type Session struct {
	touched map[Buffer]struct{}
	order   []Buffer
	edits   int
}

// NewSession creates an empty edit session.
func NewSession() *Session {
	return &Session{touched: make(map[Buffer]struct{})}
}

// Touch records buf as modified without editing it, e.g. after a rename
// performed by another service.
func (s *Session) Touch(buf Buffer) {
	if _, ok := s.touched[buf]; ok {
		return
	}
	s.touched[buf] = struct{}{}
	s.order = append(s.order, buf)
}

// Edits returns the number of edits applied so far.
func (s *Session) Edits() int { return s.edits }

// Apply performs op on buf. Positions are translated against the buffer's
// current line map at the time of the call.
func (s *Session) Apply(buf Buffer, op model.EditOperation) error {
	switch op.Kind {
	case model.ReplaceRegion:
		return s.ReplaceRegion(buf, op.Region, op.Text)
	case model.RemoveRegion:
		return s.ReplaceRegion(buf, op.Region, "")
	case model.InsertAt:
		return s.InsertLine(buf, op.Offset, op.Text)
	}
	return fmt.Errorf("unknown edit kind %d", op.Kind)
}

// ReplaceRegion replaces the text covered by r with text in one atomic
// buffer replace.
func (s *Session) ReplaceRegion(buf Buffer, r model.Region, text string) error {
	start, end, err := Offsets(buf, r)
	if err != nil {
		return err
	}
	if err := buf.Replace(start, end-start, text); err != nil {
		return fmt.Errorf("replace %s: %w", r, err)
	}
	s.edits++
	s.Touch(buf)
	return nil
}

// RemoveRegion deletes the text covered by r.
func (s *Session) RemoveRegion(buf Buffer, r model.Region) error {
	return s.ReplaceRegion(buf, r, "")
}

// InsertLine inserts text followed by a line terminator at offset. When the
// offset is at the end of a buffer whose last line is unterminated, a
// terminator is written first so the text starts its own line.
func (s *Session) InsertLine(buf Buffer, offset int, text string) error {
	content := buf.Text()
	if offset < 0 || offset > len(content) {
		return fmt.Errorf("insert offset %d out of range [0,%d]", offset, len(content))
	}
	line := text + LineTerminator
	if offset == len(content) && content != "" && !strings.HasSuffix(content, LineTerminator) {
		line = LineTerminator + line
	}
	if err := buf.Replace(offset, 0, line); err != nil {
		return fmt.Errorf("insert at %d: %w", offset, err)
	}
	s.edits++
	s.Touch(buf)
	return nil
}

// Insert inserts text at offset as is.
func (s *Session) Insert(buf Buffer, offset int, text string) error {
	if err := buf.Replace(offset, 0, text); err != nil {
		return fmt.Errorf("insert at %d: %w", offset, err)
	}
	s.edits++
	s.Touch(buf)
	return nil
}

// LineOffset returns the offset where the 1-based line starts. A line just
// past the end of the buffer maps to the end of the buffer.
func LineOffset(buf Buffer, line int) (int, error) {
	return buf.PositionToOffset(line, 1)
}

// Offsets translates r to a [start,end) byte range in buf.
func Offsets(buf Buffer, r model.Region) (int, int, error) {
	start, err := buf.PositionToOffset(r.BeginLine, r.BeginColumn)
	if err != nil {
		return 0, 0, fmt.Errorf("region start %d:%d: %w", r.BeginLine, r.BeginColumn, err)
	}
	end, err := buf.PositionToOffset(r.EndLine, r.EndColumn)
	if err != nil {
		return 0, 0, fmt.Errorf("region end %d:%d: %w", r.EndLine, r.EndColumn, err)
	}
	if end < start {
		return 0, 0, fmt.Errorf("region %s ends before it starts", r)
	}
	return start, end, nil
}

// Commit marks each touched buffer as modified once and returns them in the
// order they were first touched.
func (s *Session) Commit() []Buffer {
	for _, buf := range s.order {
		buf.MarkModified()
	}
	touched := s.order
	s.order = nil
	s.touched = make(map[Buffer]struct{})
	return touched
}

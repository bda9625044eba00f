package edit_test

import (
	"testing"

	"github.com/sokinpui/formsync/internal/buffer"
	"github.com/sokinpui/formsync/internal/edit"
	"github.com/sokinpui/formsync/model"
)

func TestSessionEdits(t *testing.T) {
	doc := buffer.NewDocument("", "a\nb\nc\nd\n")
	s := edit.NewSession()

	// Replace line 2 then remove line 3: the second edit must see the
	// shifted line map of the first.
	if err := s.ReplaceRegion(doc, model.Region{BeginLine: 2, BeginColumn: 1, EndLine: 3, EndColumn: 1}, "b1\nb2\n"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveRegion(doc, model.Region{BeginLine: 4, BeginColumn: 1, EndLine: 5, EndColumn: 1}); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Text(), "a\nb1\nb2\nd\n"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}

	off, err := edit.LineOffset(doc, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(doc, model.EditOperation{Kind: model.InsertAt, Offset: off, Text: "x"}); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Text(), "a\nx\nb1\nb2\nd\n"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}

	if doc.ModifyCount() != 0 {
		t.Fatal("buffer marked modified before commit")
	}
	touched := s.Commit()
	if len(touched) != 1 || doc.ModifyCount() != 1 {
		t.Errorf("commit touched %d buffers, modify count %d; want 1 and 1", len(touched), doc.ModifyCount())
	}
	if s.Edits() != 3 {
		t.Errorf("edits = %d, want 3", s.Edits())
	}
}

func TestInsertLineAtUnterminatedEnd(t *testing.T) {
	doc := buffer.NewDocument("", "}")
	s := edit.NewSession()
	if err := s.InsertLine(doc, len(doc.Text()), "int x;"); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Text(), "}\nint x;\n"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestOffsetsRejectsBackwardRegion(t *testing.T) {
	doc := buffer.NewDocument("", "abc\ndef\n")
	if _, _, err := edit.Offsets(doc, model.Region{BeginLine: 2, BeginColumn: 1, EndLine: 1, EndColumn: 1}); err == nil {
		t.Error("expected error for backward region")
	}
}

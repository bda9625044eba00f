package buffer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPositionToOffset(t *testing.T) {
	doc := NewDocument("", "ab\ncde\n")

	tests := []struct {
		name    string
		line    int
		col     int
		want    int
		wantErr bool
	}{
		{"first char", 1, 1, 0, false},
		{"end of first line", 1, 3, 2, false},
		{"second line", 2, 2, 4, false},
		{"empty last line", 3, 1, 7, false},
		{"past end at column 1", 4, 1, 7, false},
		{"column past newline", 1, 4, 0, true},
		{"zero column", 1, 0, 0, true},
		{"far past end", 9, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := doc.PositionToOffset(tt.line, tt.col)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("offset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReplaceRebuildsLineIndex(t *testing.T) {
	doc := NewDocument("", "one\ntwo\nthree\n")
	if err := doc.Replace(4, 4, "2a\n2b\n"); err != nil {
		t.Fatal(err)
	}
	if got, want := doc.Text(), "one\n2a\n2b\nthree\n"; got != want {
		t.Fatalf("text = %q, want %q", got, want)
	}
	off, err := doc.PositionToOffset(4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text()[off:off+5] != "three" {
		t.Errorf("line 4 does not start at %q", doc.Text()[off:])
	}
	if err := doc.Replace(100, 1, "x"); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestWorkspaceSaveAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Form.cs")
	if err := os.WriteFile(path, []byte("class A\r\n{\r\n}\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ws := NewWorkspace()
	doc, err := ws.Document(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text() != "class A\n{\n}\n" {
		t.Fatalf("CRLF not normalized: %q", doc.Text())
	}
	again, _ := ws.Open(path)
	if again != doc {
		t.Fatal("workspace opened the same path twice")
	}

	if err := doc.Insert(0, "// x\n"); err != nil {
		t.Fatal(err)
	}
	doc.MarkModified()

	saved, err := ws.SaveAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved %v, want one path", saved)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "// x\nclass A\n{\n}\n" {
		t.Errorf("file content = %q", content)
	}
	if doc.Modified() {
		t.Error("document still modified after save")
	}

	if _, err := ws.Peek(filepath.Join(dir, "missing.cs")); !os.IsNotExist(err) {
		t.Errorf("Peek missing file err = %v, want not-exist", err)
	}
}

func TestReadOnlyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.cs")
	if err := os.WriteFile(path, []byte("x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadReadOnly(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Insert(0, "y"); err == nil {
		t.Error("read-only document accepted an edit")
	}
}

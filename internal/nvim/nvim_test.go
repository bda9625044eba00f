package nvim

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sokinpui/formsync/internal/buffer"
	"github.com/sokinpui/formsync/internal/edit"
)

func apply(before string, start, end int, repl [][]byte) string {
	lines := splitLines(before)
	var out []string
	out = append(out, lines[:start]...)
	for _, r := range repl {
		out = append(out, string(r))
	}
	out = append(out, lines[end:]...)
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

func TestChangedLines(t *testing.T) {
	tests := []struct {
		name      string
		before    string
		after     string
		wantStart int
		wantEnd   int
	}{
		{"insert middle", "a\nb\nc\n", "a\nb\nx\nc\n", 2, 2},
		{"remove line", "a\nb\nc\n", "a\nc\n", 1, 2},
		{"replace line", "a\nb\nc\n", "a\nB\nc\n", 1, 2},
		{"append", "a\n", "a\nb\n", 1, 1},
		{"from empty", "", "a\n", 0, 0},
		{"no change", "a\n", "a\n", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, repl := changedLines(tt.before, tt.after)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("range = [%d,%d), want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
			if diff := cmp.Diff(tt.after, apply(tt.before, start, end, repl)); diff != "" {
				t.Errorf("applying the range mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// stuckDoc accepts the first replace and rejects every later one.
type stuckDoc struct {
	*buffer.Document
	calls int
}

func (d *stuckDoc) Replace(offset, length int, text string) error {
	d.calls++
	if d.calls > 1 {
		return errors.New("document is read-only")
	}
	return d.Document.Replace(offset, length, text)
}

func TestReplaceMirroredRollsBack(t *testing.T) {
	pushErr := errors.New("nvim went away")
	failPush := func(int, int, [][]byte) error { return pushErr }

	doc := buffer.NewDocument("a.cs", "a\nb\n")
	err := replaceMirrored(doc, 2, 1, "B", failPush)
	if !errors.Is(err, pushErr) {
		t.Fatalf("err = %v, want the push error", err)
	}
	if got := doc.Text(); got != "a\nb\n" {
		t.Errorf("mirror = %q, want the text before the edit", got)
	}

	stuck := &stuckDoc{Document: buffer.NewDocument("b.cs", "a\nb\n")}
	err = replaceMirrored(stuck, 2, 1, "B", failPush)
	if !errors.Is(err, pushErr) || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("err = %v, want both the push and the restore error", err)
	}

	var pushed [][]byte
	ok := buffer.NewDocument("c.cs", "a\nb\n")
	err = replaceMirrored(ok, 2, 1, "B", func(start, end int, repl [][]byte) error {
		if start != 1 || end != 2 {
			t.Errorf("range = [%d,%d), want [1,2)", start, end)
		}
		pushed = repl
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([][]byte{[]byte("B")}, pushed); diff != "" {
		t.Errorf("pushed lines mismatch (-want +got):\n%s", diff)
	}
}

func TestBufferAgainstHeadlessNvim(t *testing.T) {
	if _, err := exec.LookPath("nvim"); err != nil {
		t.Skip("nvim not installed")
	}
	t.Setenv("NVIM", "")
	t.Setenv("NVIM_LISTEN_ADDRESS", "")

	path := filepath.Join(t.TempDir(), "MainForm.Designer.cs")
	if err := os.WriteFile(path, []byte("class A\n{\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	defer m.Close()

	buf, err := m.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s := edit.NewSession()
	off, err := edit.LineOffset(buf, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InsertLine(buf, off, "\tint x;\n"); err != nil {
		t.Fatal(err)
	}
	s.Commit()

	want := "class A\n{\n\tint x;\n}\n"
	if got, err := m.Peek(path); err != nil || got != want {
		t.Fatalf("Peek() = %q, %v", got, err)
	}
	saved, err := m.SaveAllBuffers()
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 {
		t.Fatalf("saved = %v", saved)
	}
	data, _ := os.ReadFile(path)
	if string(data) != want {
		t.Errorf("disk = %q, want %q", data, want)
	}

	if err := m.Restore(path, []byte("class A\n{\n}\n")); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "class A\n{\n}\n" {
		t.Errorf("after restore disk = %q", data)
	}
}

package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func provider(path string, piped bool, stdin, clip string, clipErr error) *SourceProvider {
	return &SourceProvider{
		Path:      path,
		stdin:     strings.NewReader(stdin),
		isPiped:   func() bool { return piped },
		clipboard: func() (string, error) { return clip, clipErr },
	}
}

func TestGetContent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(file, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		sp   *SourceProvider
		want string
	}{
		{"file wins over pipe", provider(file, true, "from stdin", "", nil), "from file"},
		{"dash reads stdin", provider("-", false, "from stdin", "", nil), "from stdin"},
		{"piped stdin", provider("", true, "from stdin", "from clipboard", nil), "from stdin"},
		{"clipboard", provider("", false, "", "from clipboard", nil), "from clipboard"},
		{"blank clipboard", provider("", false, "", "  \n", nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sp.GetContent()
			if err != nil {
				t.Fatalf("GetContent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetContentErrors(t *testing.T) {
	if _, err := provider(filepath.Join(t.TempDir(), "missing"), false, "", "", nil).GetContent(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
	boom := errors.New("no clipboard utility")
	if _, err := provider("", false, "", "", boom).GetContent(); !errors.Is(err, boom) {
		t.Errorf("clipboard error = %v", err)
	}
}

// Package source reads the desired-state input: a file, piped stdin or the
// clipboard, in that order of preference.
package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/sokinpui/formsync/internal/ui"
)

// SourceProvider determines and retrieves the source content.
type SourceProvider struct {
	// Path is read when set; "-" means stdin.
	Path string

	stdin     io.Reader
	isPiped   func() bool
	clipboard func() (string, error)
}

// New creates a SourceProvider reading path, or stdin/clipboard when empty.
func New(path string) *SourceProvider {
	return &SourceProvider{
		Path:      path,
		stdin:     os.Stdin,
		isPiped:   stdinIsPiped,
		clipboard: clipboard.ReadAll,
	}
}

func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// GetContent retrieves the content. An empty result is not an error.
func (sp *SourceProvider) GetContent() (string, error) {
	switch {
	case sp.Path == "-" || (sp.Path == "" && sp.isPiped()):
		ui.Header("--- Reading desired state from stdin ---")
		content, err := io.ReadAll(sp.stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil

	case sp.Path != "":
		// #nosec G304 -- path is provided by the user
		content, err := os.ReadFile(sp.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read desired state: %w", err)
		}
		return string(content), nil
	}

	ui.Header("--- Reading desired state from clipboard ---")
	content, err := sp.clipboard()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}

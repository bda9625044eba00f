// Package preview renders the pending changes of a dry run as unified diffs.
package preview

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Change is the before and after text of one file.
type Change struct {
	Path   string
	Before string
	After  string
}

// Unified returns a unified diff for c, or "" when nothing changed.
func Unified(c Change, context int) (string, error) {
	if c.Before == c.After {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(c.Before),
		B:        difflib.SplitLines(c.After),
		FromFile: "a/" + c.Path,
		ToFile:   "b/" + c.Path,
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", c.Path, err)
	}
	return text, nil
}

// Render concatenates the diffs of every changed file.
func Render(changes []Change) (string, error) {
	var b strings.Builder
	for _, c := range changes {
		text, err := Unified(c, 3)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

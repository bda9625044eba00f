package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnified(t *testing.T) {
	before := "class A\n{\n\tint x;\n}\n"
	after := "class A\n{\n\tint x;\n\tint y;\n}\n"

	text, err := Unified(Change{Path: "A.cs", Before: before, After: after}, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "--- a/A.cs\n+++ b/A.cs\n"), text)
	assert.Contains(t, text, "+\tint y;\n")
	assert.NotContains(t, text, "-\tint x;")
}

func TestRenderSkipsUnchanged(t *testing.T) {
	out, err := Render([]Change{
		{Path: "Same.cs", Before: "x\n", After: "x\n"},
		{Path: "B.cs", Before: "a\n", After: "b\n"},
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "Same.cs")
	assert.Contains(t, out, "-a\n+b\n")
}

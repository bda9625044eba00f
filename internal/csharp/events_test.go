package csharp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/formsync/model"
)

func TestLookupSignature(t *testing.T) {
	full, ok := LookupSignature("System.Windows.Forms.MouseEventHandler")
	require.True(t, ok)
	short, ok := LookupSignature("MouseEventHandler")
	require.True(t, ok)
	assert.Equal(t, full, short)
	assert.Equal(t, "System.Windows.Forms.MouseEventArgs", short.Parameters[1].Type)

	_, ok = LookupSignature("NoSuchHandler")
	assert.False(t, ok)
}

func TestParseSignature(t *testing.T) {
	got, err := ParseSignature("Acme.ValueChangedHandler(object sender, DragEventArgs e)")
	require.NoError(t, err)
	want := model.EventSignature{
		Delegate:   "Acme.ValueChangedHandler",
		ReturnType: "void",
		Parameters: []model.SignatureParameter{
			{Name: "sender", Type: "System.Object"},
			{Name: "e", Type: "System.Windows.Forms.DragEventArgs"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseSignature() mismatch (-want +got):\n%s", diff)
	}

	got, err = ParseSignature("EventHandler")
	require.NoError(t, err)
	assert.Equal(t, "System.EventHandler", got.Delegate)

	got, err = ParseSignature("Acme.Notify()")
	require.NoError(t, err)
	assert.Empty(t, got.Parameters)

	for _, bad := range []string{"Unknown", "Acme.H(object", "(object sender)", "Acme.H(sender)"} {
		_, err := ParseSignature(bad)
		assert.Error(t, err, bad)
	}
}

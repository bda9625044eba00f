package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/sokinpui/formsync/model"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevNoColor := Out, color.NoColor
	Out, color.NoColor = &buf, true
	t.Cleanup(func() { Out, color.NoColor = prevOut, prevNoColor })
	return &buf
}

func TestPrintPassSummary(t *testing.T) {
	buf := capture(t)
	PrintPassSummary(&model.PassResult{
		Renamed:  "MainWindow",
		Added:    []string{"label1"},
		Removed:  []string{"textBox2"},
		Warnings: []model.Warning{{Field: "timer1", Reason: "declared in a non-designer part"}},
		Files:    []string{"MainForm.Designer.cs"},
	})
	out := buf.String()
	for _, want := range []string{
		"Renamed form to MainWindow",
		"Added fields (1):\n  - label1",
		"Removed fields (1):\n  - textBox2",
		"! timer1: declared in a non-designer part",
		"Modified files (1):\n  - MainForm.Designer.cs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPassSummaryUpToDate(t *testing.T) {
	buf := capture(t)
	PrintPassSummary(&model.PassResult{Unchanged: []string{"a", "b"}})
	if !strings.Contains(buf.String(), "2 unchanged") {
		t.Errorf("got %q", buf.String())
	}
}

func TestNotifier(t *testing.T) {
	buf := capture(t)
	var n Notifier
	n.ShowMessage("Cannot save form")
	n.ShowError(errors.New("bad field"))
	if got := buf.String(); got != "Cannot save form\nbad field\n" {
		t.Errorf("got %q", got)
	}
}

func TestPrintFileSummary(t *testing.T) {
	buf := capture(t)
	PrintFileSummary("Revert", []string{"MainForm.Designer.cs"}, []string{"MainForm.cs"})
	out := buf.String()
	for _, want := range []string{"--- Revert ---", "Updated 1 file(s):\n  - MainForm.Designer.cs", "Failed on 1 file(s):\n  - MainForm.cs"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

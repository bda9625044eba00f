package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/sokinpui/formsync/model"
)

type fakeApp struct {
	summary model.Summary
	err     error
}

func (f fakeApp) Execute() (model.Summary, error) { return f.summary, f.err }

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(model.Summary{
		Pass: &model.PassResult{
			Added:    []string{"label1"},
			Warnings: []model.Warning{{Field: "timer1", Reason: "declared in a non-designer part"}},
		},
		Modified: []string{"MainForm.Designer.cs"},
	})
	for _, want := range []string{"Added:", "label1", "timer1: declared in a non-designer part", "MainForm.Designer.cs"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if got := RenderSummary(model.Summary{}); !strings.Contains(got, "Nothing to do.") {
		t.Errorf("empty summary = %q", got)
	}
}

func TestModelRunsExecutor(t *testing.T) {
	m := New(fakeApp{summary: model.Summary{Lines: []string{"Button1Click"}}})
	msg := m.runApp()
	next, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if view := next.View(); !strings.Contains(view, "Button1Click") {
		t.Errorf("view = %q", view)
	}

	boom := errors.New("could not find InitializeComponent")
	m = New(fakeApp{err: boom})
	next, _ = m.Update(m.runApp())
	if !errors.Is(next.(Model).Err(), boom) {
		t.Errorf("Err() = %v", next.(Model).Err())
	}
	if !strings.Contains(next.View(), "could not find InitializeComponent") {
		t.Errorf("view = %q", next.View())
	}
}

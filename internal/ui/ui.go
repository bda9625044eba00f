package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/sokinpui/formsync/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
	PromptColor  = color.New(color.FgMagenta)
)

// Out receives every message. It defaults to a colour-aware stderr.
var Out io.Writer = color.Error

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(Out, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(Out, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(Out, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(Out, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(Out, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(Out, "  "+format+"\n", a...)
}

func Prompt(format string, a ...interface{}) string {
	return PromptColor.Sprintf(format, a...)
}

// Notifier shows engine messages on the console.
type Notifier struct{}

func (Notifier) ShowMessage(msg string) { Warning("%s", msg) }

func (Notifier) ShowError(err error) { Error("%v", err) }

// --- Summaries ---

func list(title string, c *color.Color, items []string) {
	if len(items) == 0 {
		return
	}
	c.Fprintf(Out, "%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(Out, "  - %s\n", item)
	}
}

func PrintPassSummary(res *model.PassResult) {
	Header("\n--- Merge Summary ---")
	if res == nil {
		Info("Nothing was merged.")
		return
	}
	if res.Skipped {
		Warning("%s", res.Message)
		return
	}
	if res.Renamed != "" {
		Success("Renamed form to %s", res.Renamed)
	}
	list("Added fields", SuccessColor, res.Added)
	list("Changed fields", SuccessColor, res.Changed)
	list("Removed fields", SuccessColor, res.Removed)
	for _, w := range res.Warnings {
		Warning("  ! %s: %s", w.Field, w.Reason)
	}
	for _, f := range res.Failed {
		Error("  x %s: %s", f.Field, f.Reason)
	}
	list("Modified files", InfoColor, res.Files)
	if len(res.Added)+len(res.Changed)+len(res.Removed) == 0 && res.Renamed == "" {
		Info("Fields already up to date (%d unchanged).", len(res.Unchanged))
	}
}

// PrintFileSummary lists the files an operation touched and the ones it
// could not.
func PrintFileSummary(title string, done, failed []string) {
	Header("\n--- %s ---", title)
	if len(done) > 0 {
		Success("Updated %d file(s):", len(done))
		for _, f := range done {
			fmt.Fprintf(Out, "  - %s\n", f)
		}
	}
	if len(failed) > 0 {
		Error("Failed on %d file(s):", len(failed))
		for _, f := range failed {
			fmt.Fprintf(Out, "  - %s\n", f)
		}
	}
}

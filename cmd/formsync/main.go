package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/formsync/cli"
	"github.com/sokinpui/formsync/formsync"
	"github.com/sokinpui/formsync/internal/tui"
	"github.com/sokinpui/formsync/internal/ui"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app, err := formsync.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	code := run(app, cfg)
	app.Close()
	os.Exit(code)
}

func run(app *formsync.App, cfg *cli.Config) int {
	// Plain output for scripts and dry runs.
	if cfg.NoAnimation || cfg.DryRun || cfg.Locate || cfg.Compatible != "" {
		return runPlain(app)
	}

	model := tui.New(app)
	final, err := tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	if m, ok := final.(tui.Model); ok && m.Err() != nil {
		return 1
	}
	return 0
}

func runPlain(app *formsync.App) int {
	summary, err := app.Execute()
	if err != nil {
		ui.Error("Error: %v", err)
		if e, ok := err.(*formsync.DetailedError); ok {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		return 1
	}
	if summary.Pass != nil {
		ui.PrintPassSummary(summary.Pass)
	}
	if summary.Message != "" {
		ui.Info("%s", summary.Message)
	}
	if summary.Pass == nil && len(summary.Modified)+len(summary.Failed) > 0 {
		ui.PrintFileSummary("Files", summary.Modified, summary.Failed)
	}
	for _, line := range summary.Lines {
		fmt.Println(line)
	}
	return 0
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	// PrimaryFile is the source file of the form being designed.
	PrimaryFile string

	Desired     string
	ConfigPath  string
	Nvim        bool
	NvimAddr    string
	Buffer      bool
	DryRun      bool
	Revert      bool
	Locate      bool
	Compatible  string
	Handler     string
	Delegate    string
	Body        string
	Verbose     bool
	NoAnimation bool
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg, err := ParseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	return cfg, err
}

// ParseArgs parses args without touching the global flag set.
func ParseArgs(args []string, out io.Writer) (*Config, error) {
	cfg := &Config{}
	flags := pflag.NewFlagSet("formsync", pflag.ContinueOnError)
	flags.SetOutput(out)

	flags.StringVarP(&cfg.Desired, "desired", "d", "", "Read the desired state from this file ('-' for stdin). Defaults to piped stdin, then the clipboard.")
	flags.StringVarP(&cfg.ConfigPath, "config", "c", "", "Path to formsync.toml. Searched upwards from the working directory by default.")
	flags.BoolVarP(&cfg.Nvim, "nvim", "n", false, "Edit through Neovim buffers instead of the files on disk.")
	flags.StringVar(&cfg.NvimAddr, "nvim-addr", "", "Address of a running Neovim (implies --nvim). Defaults to $NVIM.")
	flags.BoolVarP(&cfg.Buffer, "buffer", "b", false, "Update Neovim buffers without saving them to disk.")
	flags.BoolVar(&cfg.DryRun, "dry-run", false, "Print the changes as a unified diff without writing anything.")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every step of the pass.")
	flags.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the spinner and print the summary directly.")

	// Mutually exclusive command group
	flags.BoolVarP(&cfg.Revert, "revert", "r", false, "Revert the last recorded pass.")
	flags.BoolVar(&cfg.Locate, "locate", false, "Print the file holding the initialization method.")
	flags.StringVar(&cfg.Compatible, "compatible", "", "List methods compatible with this event delegate.")
	flags.StringVar(&cfg.Handler, "handler", "", "Insert or find the event handler with this name.")
	flags.StringVar(&cfg.Delegate, "delegate", "System.EventHandler", "Delegate of the handler: a known name or 'Name(Type arg, ...)'.")
	flags.StringVar(&cfg.Body, "body", "", "Statements for a newly created handler body.")

	flags.Usage = func() {
		fmt.Fprintln(out, "Usage: formsync [flags] <Form.cs>")
		fmt.Fprintln(out, "\nMerge a designer's desired state into the designer part of a C# form.")
		fmt.Fprintln(out, "\nExample: formsync -d layout.yaml src/MainForm.cs")
		fmt.Fprintln(out, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if cfg.NvimAddr != "" {
		cfg.Nvim = true
	}

	modes := 0
	for _, on := range []bool{cfg.Revert, cfg.Locate, cfg.Compatible != "", cfg.Handler != ""} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return nil, fmt.Errorf("error: --revert, --locate, --compatible and --handler are mutually exclusive")
	}
	if cfg.Buffer && !cfg.Nvim {
		return nil, fmt.Errorf("error: --buffer needs --nvim")
	}

	switch rest := flags.Args(); {
	case len(rest) == 1:
		cfg.PrimaryFile = rest[0]
	case len(rest) > 1:
		return nil, fmt.Errorf("error: expected one form file, got %d", len(rest))
	case !cfg.Revert:
		return nil, fmt.Errorf("error: missing form file")
	}

	return cfg, nil
}

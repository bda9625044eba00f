package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	cfg, err := ParseArgs([]string{"--handler", "Button1Click", "--delegate", "MouseEventHandler", "--nvim-addr", "/tmp/nvim.sock", "MainForm.cs"}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PrimaryFile != "MainForm.cs" || cfg.Handler != "Button1Click" || cfg.Delegate != "MouseEventHandler" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Nvim {
		t.Error("--nvim-addr should imply --nvim")
	}

	cfg, err = ParseArgs([]string{"-r"}, &bytes.Buffer{})
	if err != nil || !cfg.Revert {
		t.Fatalf("revert without a form: %+v, %v", cfg, err)
	}
	if cfg.Delegate != "System.EventHandler" {
		t.Errorf("default delegate = %q", cfg.Delegate)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		args    []string
		wantErr string
	}{
		{[]string{"--locate", "--revert", "F.cs"}, "mutually exclusive"},
		{[]string{"-b", "F.cs"}, "--buffer needs --nvim"},
		{[]string{}, "missing form file"},
		{[]string{"A.cs", "B.cs"}, "expected one form file"},
		{[]string{"--bogus", "F.cs"}, "bogus"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := ParseArgs(tt.args, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseArgs(%v) error = %v, want %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

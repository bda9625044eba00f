// Package config loads the optional formsync.toml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up from the working directory upwards.
const FileName = "formsync.toml"

// Config is the project configuration. Zero values are replaced by defaults.
type Config struct {
	Designer DesignerConfig `toml:"designer"`
	Handlers HandlerConfig  `toml:"handlers"`
	Log      LogConfig      `toml:"log"`
	State    StateConfig    `toml:"state"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

type DesignerConfig struct {
	InitMethod      string   `toml:"init_method"`
	IndentUnit      string   `toml:"indent_unit"`
	DesignableBases []string `toml:"designable_bases"`
	KnownTypes      []string `toml:"known_types"`
	DesignerSuffix  string   `toml:"designer_suffix"`
}

type HandlerConfig struct {
	InsertTodoComment *bool `toml:"insert_todo_comment"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type StateConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	todo := true
	return &Config{
		Designer: DesignerConfig{
			InitMethod: "InitializeComponent",
			IndentUnit: "\t",
			DesignableBases: []string{
				"Form", "UserControl", "Control",
				"System.Windows.Forms.Form",
				"System.Windows.Forms.UserControl",
				"System.Windows.Forms.Control",
			},
			DesignerSuffix: ".Designer.cs",
		},
		Handlers: HandlerConfig{InsertTodoComment: &todo},
		Log:      LogConfig{Level: "warn"},
		State:    StateConfig{Dir: ".formsync"},
	}
}

// InsertTodoComment reports whether empty handler bodies get a TODO comment.
func (c *Config) InsertTodoComment() bool {
	return c.Handlers.InsertTodoComment == nil || *c.Handlers.InsertTodoComment
}

// Find looks for FileName in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads path over the defaults. An empty path searches from the
// working directory and falls back to the defaults when nothing is found.
func Load(path string) (*Config, error) {
	if path == "" {
		found, ok, err := Find(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return Default(), nil
		}
		path = found
	}

	var file Config
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	cfg := Default()
	cfg.merge(&file)
	cfg.Path = path
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Designer.InitMethod != "" {
		c.Designer.InitMethod = o.Designer.InitMethod
	}
	if o.Designer.IndentUnit != "" {
		c.Designer.IndentUnit = o.Designer.IndentUnit
	}
	if len(o.Designer.DesignableBases) > 0 {
		c.Designer.DesignableBases = o.Designer.DesignableBases
	}
	c.Designer.KnownTypes = append(c.Designer.KnownTypes, o.Designer.KnownTypes...)
	if o.Designer.DesignerSuffix != "" {
		c.Designer.DesignerSuffix = o.Designer.DesignerSuffix
	}
	if o.Handlers.InsertTodoComment != nil {
		c.Handlers.InsertTodoComment = o.Handlers.InsertTodoComment
	}
	if o.Log.Level != "" {
		c.Log.Level = o.Log.Level
	}
	c.Log.Development = c.Log.Development || o.Log.Development
	if o.State.Dir != "" {
		c.State.Dir = o.State.Dir
	}
}

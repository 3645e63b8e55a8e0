// Package config loads eigenc project settings from eigenc.toml or
// eigenc.yaml.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"eigenscript/pkg/compiler"
	"eigenscript/pkg/rt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the complete project configuration
type Config struct {
	Compiler CompilerConfig `toml:"compiler" yaml:"compiler"`
	Runtime  rt.Config      `toml:"runtime" yaml:"runtime"`
	Exec     ExecConfig     `toml:"exec" yaml:"exec"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// CompilerConfig holds compile pipeline settings
type CompilerConfig struct {
	Entry        string `toml:"entry" yaml:"entry"`
	DefaultParam string `toml:"default_param" yaml:"default_param"`
	Prune        bool   `toml:"prune" yaml:"prune"`
	VerifyIR     bool   `toml:"verify_ir" yaml:"verify_ir"`
	OutDir       string `toml:"out_dir" yaml:"out_dir"`
}

// ExecConfig holds limits for the reference executor
type ExecConfig struct {
	MaxSteps int `toml:"max_steps" yaml:"max_steps"`
	MaxDepth int `toml:"max_depth" yaml:"max_depth"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // "text" or "json"
}

// FileNames are the file names Find looks for, in order.
var FileNames = []string{"eigenc.toml", "eigenc.yaml", "eigenc.yml"}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a TOML or YAML file, chosen by extension, and fills every
// unset field with its default.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(content), &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return &cfg, nil
}

// Find returns the first of FileNames present in dir.
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Compiler.Entry == "" {
		c.Compiler.Entry = compiler.DefaultEntryName
	}
	if c.Compiler.DefaultParam == "" {
		c.Compiler.DefaultParam = compiler.DefaultParamName
	}
	if c.Runtime.Tolerance == 0 {
		c.Runtime.Tolerance = rt.DefaultTolerance
	}
	if c.Runtime.StableWindow == 0 {
		c.Runtime.StableWindow = rt.DefaultStableWindow
	}
	if c.Exec.MaxSteps == 0 {
		c.Exec.MaxSteps = 10_000_000
	}
	if c.Exec.MaxDepth == 0 {
		c.Exec.MaxDepth = 10_000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Runtime.Tolerance < 0 {
		return errors.Errorf("runtime.tolerance must not be negative, got %v", c.Runtime.Tolerance)
	}
	if c.Runtime.StableWindow < 0 {
		return errors.Errorf("runtime.stable_window must not be negative, got %d", c.Runtime.StableWindow)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Logger returns a logger configured from the log section.
func (c *Config) Logger() (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	l := logrus.New()
	l.SetLevel(lvl)
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l, nil
}

// CompilerOptions converts the compiler section to compile options.
func (c *Config) CompilerOptions(log logrus.FieldLogger) compiler.Options {
	return compiler.Options{
		EntryName:    c.Compiler.Entry,
		DefaultParam: c.Compiler.DefaultParam,
		Prune:        c.Compiler.Prune,
		VerifyIR:     c.Compiler.VerifyIR,
		Logger:       log,
	}
}

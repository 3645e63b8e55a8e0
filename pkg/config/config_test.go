package config

import (
	"os"
	"path/filepath"
	"testing"

	"eigenscript/pkg/compiler"
	"eigenscript/pkg/rt"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_applyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, compiler.DefaultEntryName, cfg.Compiler.Entry)
	assert.Equal(t, compiler.DefaultParamName, cfg.Compiler.DefaultParam)
	assert.Equal(t, rt.DefaultConfig(), cfg.Runtime)
	assert.Equal(t, 10_000_000, cfg.Exec.MaxSteps)
	assert.Equal(t, 10_000, cfg.Exec.MaxDepth)
	assert.Equal(t, LogConfig{Level: "info", Format: "text"}, cfg.Log)
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "eigenc.toml", `
[compiler]
entry = "eigen_main"
prune = true
out_dir = "build"

[runtime]
tolerance = 0.01
stable_window = 5

[exec]
max_steps = 1000

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eigen_main", cfg.Compiler.Entry)
	assert.True(t, cfg.Compiler.Prune)
	assert.Equal(t, "build", cfg.Compiler.OutDir)
	assert.Equal(t, compiler.DefaultParamName, cfg.Compiler.DefaultParam, "unset field keeps its default")
	assert.Equal(t, rt.Config{Tolerance: 0.01, StableWindow: 5}, cfg.Runtime)
	assert.Equal(t, 1000, cfg.Exec.MaxSteps)
	assert.Equal(t, 10_000, cfg.Exec.MaxDepth, "unset field keeps its default")

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "eigenc.yaml", `
compiler:
  default_param: x
  verify_ir: true
runtime:
  stable_window: 2
exec:
  max_depth: 64
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "x", cfg.Compiler.DefaultParam)
	assert.True(t, cfg.Compiler.VerifyIR)
	assert.Equal(t, int64(2), cfg.Runtime.StableWindow)
	assert.Equal(t, rt.DefaultTolerance, cfg.Runtime.Tolerance, "unset field keeps its default")
	assert.Equal(t, 64, cfg.Exec.MaxDepth)

	opts := cfg.CompilerOptions(logrus.New())
	assert.Equal(t, "x", opts.DefaultParam)
	assert.True(t, opts.VerifyIR)
	assert.Equal(t, compiler.DefaultEntryName, opts.EntryName)
	assert.NotNil(t, opts.Logger)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown extension", "eigenc.json", `{}`},
		{"bad toml", "bad.toml", "[compiler\nentry ="},
		{"bad yaml", "bad.yaml", "compiler: [unclosed"},
		{"negative tolerance", "neg.toml", "[runtime]\ntolerance = -1.0\n"},
		{"bad level", "level.toml", "[log]\nlevel = \"chatty\"\n"},
		{"bad format", "format.yaml", "log:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err, "missing file")
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	_, ok := Find(dir)
	require.False(t, ok, "empty dir")

	writeFile(t, dir, "eigenc.yml", "log:\n  level: warn\n")
	got, ok := Find(dir)
	require.True(t, ok)
	assert.Equal(t, "eigenc.yml", filepath.Base(got))

	// TOML wins over YAML.
	writeFile(t, dir, "eigenc.toml", "")
	got, _ = Find(dir)
	assert.Equal(t, "eigenc.toml", filepath.Base(got))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.validate())

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

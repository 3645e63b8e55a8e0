package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPathInfo(t *testing.T) {
	full, dir, stem, err := GetPathInfo(filepath.Join("testdata", "..", "prog.eigs"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(full))
	assert.Equal(t, "prog.eigs", filepath.Base(full))
	assert.Equal(t, filepath.Dir(full), dir)
	assert.Equal(t, "prog", stem)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src, outDir, ext, want string
	}{
		{"src/fact.eigs", "", ".ll", filepath.Join("src", "fact.ll")},
		{"src/fact.eigs", "build", ".ll", filepath.Join("build", "fact.ll")},
		{"fact", "", ".ll", "fact.ll"},
		{"a/b.c.eigs", "", ".ll", filepath.Join("a", "b.c.ll")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.src, tt.outDir, tt.ext), tt.src)
	}
}

package shell

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnvironment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		sysEnv   []string
		cmdEnv   map[string]string
		expected []string
	}{
		{
			name:     "system only (allowed)",
			sysEnv:   []string{"USER=test", "PATH=/bin", "HOME=/home/test"},
			expected: []string{"HOME=/home/test", "PATH=/bin", "USER=test"},
		},
		{
			name:     "system only (filtered)",
			sysEnv:   []string{"USER=test", "SSH_AUTH_SOCK=/tmp/ssh", "SECRET=key", "malformed"},
			expected: []string{"USER=test"},
		},
		{
			name:     "command overrides",
			sysEnv:   []string{"USER=test", "PATH=/bin"},
			cmdEnv:   map[string]string{"USER": "kiln", "CC": "clang"},
			expected: []string{"CC=clang", "PATH=/bin", "USER=kiln"},
		},
		{
			name:     "command PATH override",
			sysEnv:   []string{"PATH=/bin"},
			cmdEnv:   map[string]string{"PATH": "/custom/bin"},
			expected: []string{"PATH=/custom/bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, resolveEnvironment(tt.sysEnv, tt.cmdEnv))
		})
	}
}

func TestLookPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tool := filepath.Join(dir, "mytool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0o700)) //nolint:gosec // Test executable
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), []byte("x"), 0o600))

	got, err := lookPath("mytool", []string{"PATH=/nonexistent" + string(os.PathListSeparator) + dir})
	require.NoError(t, err)
	assert.Equal(t, tool, got)

	_, err = lookPath("plain", []string{"PATH=" + dir})
	assert.ErrorIs(t, err, exec.ErrNotFound)

	_, err = lookPath("mytool", nil)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

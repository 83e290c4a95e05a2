package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const basicManifest = `
client:
  name: basic
  version: 2
  file-system: default
tools:
  shell: {}
  phony: {}
targets:
  all: ["<all>"]
  objects: ["a.o", "command:link"]
default: all
nodes:
  "<all>": {is-virtual: true}
  stamp: {is-virtual: true}
commands:
  compile:
    tool: shell
    description: CC a.o
    inputs: ["a.c"]
    outputs: ["a.o"]
    args: [cc, -c, a.c, -o, a.o]
    env: {CC: clang}
  link:
    tool: shell
    inputs: ["a.o", "stamp"]
    outputs: ["app"]
    args: [cc, -o, app, a.o]
  all:
    tool: phony
    inputs: ["app"]
    outputs: ["<all>"]
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.ManifestFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	return config.NewLoader(log), log
}

func TestLoad_Success(t *testing.T) {
	t.Parallel()
	loader, _ := newLoader(t)

	m, err := loader.Load(writeManifest(t, basicManifest))
	require.NoError(t, err)

	assert.Equal(t, "basic", m.Client.Name)
	assert.Equal(t, uint32(2), m.ClientVersion())
	assert.Equal(t, "all", m.DefaultTarget)
	assert.Equal(t, []string{"phony", "shell"}, m.ToolNames())
	assert.Equal(t, []string{"all", "compile", "link"}, m.CommandNames())

	keys, ok := m.TargetKeys("objects")
	require.True(t, ok)
	assert.Equal(t, []domain.BuildKey{domain.NodeKey("a.o"), domain.CommandKey("link")}, keys)

	compile, ok := m.Command("compile")
	require.True(t, ok)
	assert.Equal(t, "shell", compile.Tool.String())
	assert.Equal(t, "CC a.o", compile.Description)
	assert.Equal(t, []domain.BuildKey{domain.NodeKey("a.c")}, compile.Inputs)
	assert.Equal(t, []domain.BuildKey{domain.NodeKey("a.o")}, compile.Outputs)
	assert.Equal(t, []string{"cc", "-c", "a.c", "-o", "a.o"}, compile.Args)
	assert.Equal(t, map[string]string{"CC": "clang"}, compile.Env)

	assert.Equal(t, []string{"compile"}, m.Producers("a.o"))
	assert.True(t, m.IsVirtual("<all>"))
	assert.True(t, m.IsVirtual("stamp"))
	assert.False(t, m.IsVirtual("a.c"))
}

func TestLoad_StaticPlan(t *testing.T) {
	t.Parallel()
	loader, _ := newLoader(t)

	m, err := loader.Load(writeManifest(t, basicManifest))
	require.NoError(t, err)

	g, err := m.Graph()
	require.NoError(t, err)

	var order []string
	for cmd := range g.WalkFrom(m.RootCommands("all")) {
		order = append(order, cmd.Name.String())
	}
	assert.Equal(t, []string{"compile", "link", "all"}, order)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		sentinel error
		meta     map[string]any
	}{
		{
			name:     "invalid yaml",
			content:  "commands: [",
			sentinel: domain.ErrManifestParseFailed,
		},
		{
			name: "undeclared tool",
			content: `
tools: {shell: {}}
commands:
  cc: {tool: clang, outputs: [a.o]}
`,
			sentinel: domain.ErrInvalidManifest,
			meta:     map[string]any{"command": "cc", "tool": "clang"},
		},
		{
			name: "missing tool",
			content: `
commands:
  cc: {outputs: [a.o]}
`,
			sentinel: domain.ErrInvalidManifest,
			meta:     map[string]any{"command": "cc"},
		},
		{
			name: "undeclared default target",
			content: `
targets: {all: [a.o]}
default: release
`,
			sentinel: domain.ErrInvalidManifest,
			meta:     map[string]any{"target": "release"},
		},
		{
			name: "command output is not a node",
			content: `
tools: {shell: {}}
commands:
  cc: {tool: shell, outputs: ["target:all"]}
`,
			sentinel: domain.ErrInvalidManifest,
			meta:     map[string]any{"output": "target:all"},
		},
		{
			name: "unparseable key entry",
			content: `
targets: {all: ["custom:"]}
`,
			sentinel: domain.ErrInvalidManifest,
		},
		{
			name: "empty node name",
			content: `
targets: {all: [""]}
`,
			sentinel: domain.ErrInvalidManifest,
			meta:     map[string]any{"target": "all"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loader, _ := newLoader(t)

			_, err := loader.Load(writeManifest(t, tt.content))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.sentinel.Error())

			if tt.meta == nil {
				return
			}
			meta := collectMetadata(err)
			for k, v := range tt.meta {
				assert.Equal(t, v, meta[k], "metadata %q", k)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	loader, _ := newLoader(t)

	_, err := loader.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrManifestReadFailed.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_UnknownFileSystemWarns(t *testing.T) {
	t.Parallel()
	loader, log := newLoader(t)
	log.EXPECT().Warn(`unknown client file-system "exotic", using default`).Times(1)

	_, err := loader.Load(writeManifest(t, "client: {name: x, file-system: exotic}\n"))
	require.NoError(t, err)
}

// collectMetadata merges the metadata of every zerr error in the chain,
// including the branches of joined errors.
func collectMetadata(err error) map[string]any {
	meta := make(map[string]any)
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if z, ok := err.(*zerr.Error); ok { //nolint:errorlint // walking the chain by hand
			for k, v := range z.Metadata() {
				if _, seen := meta[k]; !seen {
					meta[k] = v
				}
			}
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		walk(errors.Unwrap(err))
	}
	walk(err)
	return meta
}

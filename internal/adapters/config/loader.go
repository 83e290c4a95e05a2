// Package config provides the manifest loader for kiln.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var knownFileSystems = []string{"", "default", "device-agnostic"}

// Loader implements ports.ManifestLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the manifest at path and returns the validated domain.Manifest.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}

	var file Manifestfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}

	m, err := l.build(&file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return m, nil
}

func (l *Loader) build(file *Manifestfile) (*domain.Manifest, error) {
	if !slices.Contains(knownFileSystems, file.Client.FileSystem) {
		l.Logger.Warn(fmt.Sprintf("unknown client file-system %q, using default", file.Client.FileSystem))
	}

	m := domain.NewManifest(domain.Client{
		Name:       file.Client.Name,
		Version:    file.Client.Version,
		FileSystem: file.Client.FileSystem,
	})
	m.DefaultTarget = file.Default

	for name, attrs := range file.Tools {
		m.AddTool(domain.ToolDecl{Name: domain.Intern(name), Attributes: attrs})
	}

	for path, node := range file.Nodes {
		m.AddNode(path, domain.NodeDecl{IsVirtual: node.IsVirtual})
	}

	var errs error
	for name, entries := range file.Targets {
		keys, err := parseKeys(entries)
		if err == nil {
			err = m.AddTarget(name, keys)
		}
		if err != nil {
			errs = errors.Join(errs, zerr.With(err, "target", name))
		}
	}

	for name := range file.Commands {
		dto := file.Commands[name]
		cmd, err := commandFromDTO(name, &dto)
		if err == nil {
			err = m.AddCommand(cmd)
		}
		if err != nil {
			errs = errors.Join(errs, zerr.With(err, "command", name))
		}
	}
	if errs != nil {
		return nil, errs
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func commandFromDTO(name string, dto *CommandDTO) (*domain.CommandDecl, error) {
	if dto.Tool == "" {
		return nil, zerr.With(domain.ErrInvalidManifest, "reason", "command has no tool")
	}
	inputs, err := parseKeys(dto.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := parseKeys(dto.Outputs)
	if err != nil {
		return nil, err
	}
	for _, out := range outputs {
		if out.Kind != domain.KindNode {
			return nil, zerr.With(zerr.With(domain.ErrInvalidManifest,
				"reason", "command output must be a node"), "output", out.String())
		}
	}

	return &domain.CommandDecl{
		Name:        domain.Intern(name),
		Tool:        domain.Intern(dto.Tool),
		Description: dto.Description,
		Inputs:      inputs,
		Outputs:     outputs,
		Args:        dto.Args,
		Env:         dto.Env,
	}, nil
}

// parseKeys maps manifest entries to keys. Plain entries are node paths;
// entries carrying a key prefix such as "command:" are parsed as keys.
func parseKeys(entries []string) ([]domain.BuildKey, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	keys := make([]domain.BuildKey, 0, len(entries))
	for _, entry := range entries {
		if entry == "" {
			return nil, zerr.With(domain.ErrInvalidManifest, "reason", "empty node name")
		}
		if hasKeyPrefix(entry) {
			key, err := domain.ParseKey(entry)
			if err != nil {
				return nil, zerr.Wrap(err, domain.ErrInvalidManifest.Error())
			}
			keys = append(keys, key)
			continue
		}
		keys = append(keys, domain.NodeKey(entry))
	}
	return keys, nil
}

func hasKeyPrefix(entry string) bool {
	for _, prefix := range []string{"command:", "custom:", "node:", "target:"} {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}

package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Client identifies the manifest's client and its schema version.
type Client struct {
	Name       string
	Version    uint32
	FileSystem string
}

// ToolDecl is a tool declared by the manifest.
type ToolDecl struct {
	Name       Name
	Attributes map[string]string
}

// NodeDecl holds per-node attributes declared by the manifest.
type NodeDecl struct {
	IsVirtual bool
}

// CommandDecl is a command declared by the manifest.
type CommandDecl struct {
	Name        Name
	Tool        Name
	Description string
	Inputs      []BuildKey
	Outputs     []BuildKey
	Args        []string
	Env         map[string]string
}

// Key returns the Command key of the declaration.
func (c *CommandDecl) Key() BuildKey {
	return CommandKey(c.Name.String())
}

// Manifest is the resolved build description.
type Manifest struct {
	Client        Client
	DefaultTarget string

	tools     map[string]ToolDecl
	targets   map[string][]BuildKey
	nodes     map[string]NodeDecl
	commands  map[string]*CommandDecl
	producers map[string][]string
}

// NewManifest creates an empty manifest for the given client.
func NewManifest(client Client) *Manifest {
	return &Manifest{
		Client:    client,
		tools:     make(map[string]ToolDecl),
		targets:   make(map[string][]BuildKey),
		nodes:     make(map[string]NodeDecl),
		commands:  make(map[string]*CommandDecl),
		producers: make(map[string][]string),
	}
}

// ClientVersion returns the client schema version declared by the manifest.
func (m *Manifest) ClientVersion() uint32 {
	return m.Client.Version
}

// AddTool declares a tool.
func (m *Manifest) AddTool(tool ToolDecl) {
	m.tools[tool.Name.String()] = tool
}

// AddTarget declares a target and its ordered output keys.
func (m *Manifest) AddTarget(name string, keys []BuildKey) error {
	if name == "" {
		return zerr.With(ErrInvalidManifest, "reason", "empty target name")
	}
	if _, exists := m.targets[name]; exists {
		return zerr.With(zerr.With(ErrInvalidManifest, "reason", "duplicate target"), "target", name)
	}
	m.targets[name] = keys
	return nil
}

// AddNode records attributes for a node path.
func (m *Manifest) AddNode(path string, decl NodeDecl) {
	m.nodes[path] = decl
}

// AddCommand declares a command and indexes the producers of its outputs.
func (m *Manifest) AddCommand(cmd *CommandDecl) error {
	name := cmd.Name.String()
	if name == "" {
		return zerr.With(ErrInvalidManifest, "reason", "empty command name")
	}
	if _, exists := m.commands[name]; exists {
		return zerr.With(zerr.With(ErrInvalidManifest, "reason", "duplicate command"), "command", name)
	}
	m.commands[name] = cmd
	for _, out := range cmd.Outputs {
		m.producers[out.Name] = append(m.producers[out.Name], name)
	}
	return nil
}

// Validate checks cross references between commands, tools and targets.
func (m *Manifest) Validate() error {
	for _, name := range m.CommandNames() {
		cmd := m.commands[name]
		if _, ok := m.tools[cmd.Tool.String()]; !ok {
			return zerr.With(zerr.With(zerr.With(ErrInvalidManifest,
				"reason", "command references undeclared tool"),
				"command", name),
				"tool", cmd.Tool.String())
		}
	}
	if m.DefaultTarget != "" {
		if _, ok := m.targets[m.DefaultTarget]; !ok {
			return zerr.With(zerr.With(ErrInvalidManifest, "reason", "default target is not declared"),
				"target", m.DefaultTarget)
		}
	}
	return nil
}

// TargetKeys returns the ordered output keys of a target.
func (m *Manifest) TargetKeys(name string) ([]BuildKey, bool) {
	keys, ok := m.targets[name]
	return keys, ok
}

// TargetNames returns the declared target names in sorted order.
func (m *Manifest) TargetNames() []string {
	return sortedKeys(m.targets)
}

// Command returns the declaration of the named command.
func (m *Manifest) Command(name string) (*CommandDecl, bool) {
	cmd, ok := m.commands[name]
	return cmd, ok
}

// CommandNames returns the declared command names in sorted order.
func (m *Manifest) CommandNames() []string {
	return sortedKeys(m.commands)
}

// Tool returns the declaration of the named tool.
func (m *Manifest) Tool(name string) (ToolDecl, bool) {
	t, ok := m.tools[name]
	return t, ok
}

// ToolNames returns the declared tool names in sorted order.
func (m *Manifest) ToolNames() []string {
	return sortedKeys(m.tools)
}

// Producers returns the names of the commands that declare path as an output.
func (m *Manifest) Producers(path string) []string {
	return m.producers[path]
}

// IsVirtual reports whether a node path is virtual.
// Paths written in angle brackets are always virtual.
func (m *Manifest) IsVirtual(path string) bool {
	if strings.HasPrefix(path, "<") && strings.HasSuffix(path, ">") {
		return true
	}
	return m.nodes[path].IsVirtual
}

// NodePaths returns every node path referenced by commands and targets, sorted.
func (m *Manifest) NodePaths() []string {
	seen := make(map[string]struct{})
	add := func(keys []BuildKey) {
		for _, k := range keys {
			if k.Kind == KindNode {
				seen[k.Name] = struct{}{}
			}
		}
	}
	for _, cmd := range m.commands {
		add(cmd.Inputs)
		add(cmd.Outputs)
	}
	for _, keys := range m.targets {
		add(keys)
	}
	return sortedKeys(seen)
}

// Graph builds the static command graph: a command depends on every command
// that produces one of its declared inputs.
func (m *Manifest) Graph() (*Graph, error) {
	g := NewGraph()
	for _, name := range m.CommandNames() {
		cmd := m.commands[name]
		var deps []Name
		for _, in := range cmd.Inputs {
			for _, producer := range m.producers[in.Name] {
				dep := Intern(producer)
				if !slices.Contains(deps, dep) {
					deps = append(deps, dep)
				}
			}
		}
		if err := g.AddCommand(cmd, deps); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// RootCommands returns the commands that directly produce the keys of a target.
func (m *Manifest) RootCommands(target string) []Name {
	var roots []Name
	for _, k := range m.targets[target] {
		switch k.Kind {
		case KindCommand:
			roots = append(roots, Intern(k.Name))
		case KindNode:
			for _, p := range m.producers[k.Name] {
				roots = append(roots, Intern(p))
			}
		}
	}
	return roots
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

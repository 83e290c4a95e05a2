package config

// Manifestfile represents the structure of the kiln.yaml manifest.
type Manifestfile struct {
	Client   ClientDTO                    `yaml:"client"`
	Tools    map[string]map[string]string `yaml:"tools"`
	Targets  map[string][]string          `yaml:"targets"`
	Default  string                       `yaml:"default"`
	Nodes    map[string]NodeDTO           `yaml:"nodes"`
	Commands map[string]CommandDTO        `yaml:"commands"`
}

// ClientDTO identifies the client a manifest was written for.
type ClientDTO struct {
	Name       string `yaml:"name"`
	Version    uint32 `yaml:"version"`
	FileSystem string `yaml:"file-system"`
}

// NodeDTO represents per-node attributes.
type NodeDTO struct {
	IsVirtual bool `yaml:"is-virtual"`
}

// CommandDTO represents a command definition in the manifest.
type CommandDTO struct {
	Tool        string            `yaml:"tool"`
	Description string            `yaml:"description"`
	Inputs      []string          `yaml:"inputs"`
	Outputs     []string          `yaml:"outputs"`
	Args        []string          `yaml:"args"`
	Env         map[string]string `yaml:"env"`
}

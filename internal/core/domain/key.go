package domain

import (
	"cmp"
	"encoding/hex"
	"strings"

	"go.trai.ch/zerr"
)

// KeyKind identifies the variant of a BuildKey.
type KeyKind uint8

const (
	// KindInvalid is the zero kind and never names a real key.
	KindInvalid KeyKind = iota
	// KindCommand names a rule declared in the manifest.
	KindCommand
	// KindCustomTask names a caller-defined unit parameterized by opaque data.
	KindCustomTask
	// KindNode names a file system artifact by path.
	KindNode
	// KindTarget names an aggregate of output keys.
	KindTarget
)

var keyKindPrefixes = map[KeyKind]string{
	KindCommand:    "command",
	KindCustomTask: "custom",
	KindNode:       "node",
	KindTarget:     "target",
}

// String returns the textual prefix used for the kind.
func (k KeyKind) String() string {
	if p, ok := keyKindPrefixes[k]; ok {
		return p
	}
	return "invalid"
}

// Valid reports whether k is one of the known kinds.
func (k KeyKind) Valid() bool {
	_, ok := keyKindPrefixes[k]
	return ok
}

// BuildKey identifies a unit of buildable state.
// It is comparable and can be used directly as a map key.
// Data is only meaningful for custom tasks and holds opaque bytes.
type BuildKey struct {
	Kind KeyKind
	Name string
	Data string
}

// CommandKey returns the key of the manifest command with the given name.
func CommandKey(name string) BuildKey {
	return BuildKey{Kind: KindCommand, Name: name}
}

// CustomTaskKey returns the key of a custom task. Keys that share a name but
// carry different data are distinct.
func CustomTaskKey(name string, data []byte) BuildKey {
	return BuildKey{Kind: KindCustomTask, Name: name, Data: string(data)}
}

// NodeKey returns the key of the file system node at path.
func NodeKey(path string) BuildKey {
	return BuildKey{Kind: KindNode, Name: path}
}

// TargetKey returns the key of the named target.
func TargetKey(name string) BuildKey {
	return BuildKey{Kind: KindTarget, Name: name}
}

// IsZero reports whether k is the zero key.
func (k BuildKey) IsZero() bool {
	return k == BuildKey{}
}

// TaskData returns the opaque payload of a custom task key.
func (k BuildKey) TaskData() []byte {
	return []byte(k.Data)
}

// String renders the key as "<kind>:<name>", with custom task data appended
// in hex brackets when present.
func (k BuildKey) String() string {
	var b strings.Builder
	b.WriteString(k.Kind.String())
	b.WriteByte(':')
	b.WriteString(k.Name)
	if k.Kind == KindCustomTask && k.Data != "" {
		b.WriteByte('[')
		b.WriteString(hex.EncodeToString([]byte(k.Data)))
		b.WriteByte(']')
	}
	return b.String()
}

// Compare orders keys by kind, then name, then data.
func Compare(a, b BuildKey) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Data, b.Data)
}

// ParseKey is the inverse of BuildKey.String.
func ParseKey(s string) (BuildKey, error) {
	prefix, rest, ok := strings.Cut(s, ":")
	if !ok || rest == "" {
		return BuildKey{}, zerr.With(ErrInvalidKey, "key", s)
	}

	var kind KeyKind
	for k, p := range keyKindPrefixes {
		if p == prefix {
			kind = k
			break
		}
	}
	if kind == KindInvalid {
		return BuildKey{}, zerr.With(ErrInvalidKey, "key", s)
	}

	if kind != KindCustomTask || !strings.HasSuffix(rest, "]") {
		return BuildKey{Kind: kind, Name: rest}, nil
	}

	open := strings.LastIndexByte(rest, '[')
	if open < 0 {
		return BuildKey{Kind: kind, Name: rest}, nil
	}
	data, err := hex.DecodeString(rest[open+1 : len(rest)-1])
	if err != nil {
		return BuildKey{}, zerr.With(zerr.Wrap(err, ErrInvalidKey.Error()), "key", s)
	}
	return CustomTaskKey(rest[:open], data), nil
}

package domain

import (
	"strings"
	"unique"
)

// Name is an interned command, tool or node name. Equal names share one
// canonical copy, so comparing two names or hashing one as a map key
// costs a pointer comparison.
type Name struct {
	h unique.Handle[string]
}

// Intern returns the canonical Name for s.
func Intern(s string) Name {
	return Name{h: unique.Make(s)}
}

// Names interns every string in s.
func Names(s []string) []Name {
	names := make([]Name, len(s))
	for i, v := range s {
		names[i] = Intern(v)
	}
	return names
}

// IsZero reports whether n was never assigned.
func (n Name) IsZero() bool {
	return n == Name{}
}

func (n Name) String() string {
	if n.IsZero() {
		return ""
	}
	return n.h.Value()
}

// Compare orders names lexically.
func (n Name) Compare(other Name) int {
	if n == other {
		return 0
	}
	return strings.Compare(n.String(), other.String())
}

// MarshalText implements encoding.TextMarshaler.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *Name) UnmarshalText(text []byte) error {
	*n = Intern(string(text))
	return nil
}

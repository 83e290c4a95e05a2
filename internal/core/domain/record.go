package domain

import "slices"

// InternalSchemaVersion is the version of the persisted key and value layout.
// It is merged with the manifest client version when opening the store.
const InternalSchemaVersion uint32 = 9

// MergedSchemaVersion combines the internal layout version with the client
// version declared by the manifest.
func MergedSchemaVersion(clientVersion uint32) uint32 {
	return InternalSchemaVersion + clientVersion<<16
}

// Record is the persisted result of evaluating a key.
type Record struct {
	Key       BuildKey
	Value     BuildValue
	Signature []byte
	// Dependencies holds static inputs in request order followed by
	// discovered dependencies, without duplicates.
	Dependencies []BuildKey
	// BuiltAt is the generation in which Value last changed.
	BuiltAt uint64
	// ComputedAt is the generation in which Value was last computed.
	ComputedAt uint64
}

// Equal reports whether two records carry identical data.
func (r Record) Equal(other Record) bool {
	return r.Key == other.Key &&
		r.Value.Equal(other.Value) &&
		slices.Equal(r.Signature, other.Signature) &&
		slices.Equal(r.Dependencies, other.Dependencies) &&
		r.BuiltAt == other.BuiltAt &&
		r.ComputedAt == other.ComputedAt
}

// AppendUniqueKeys appends each key of add that is not yet in keys, keeping order.
func AppendUniqueKeys(keys []BuildKey, add ...BuildKey) []BuildKey {
	for _, k := range add {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

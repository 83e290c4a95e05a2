// Package codec implements the deterministic binary encoding of build keys,
// values, dependency lists and records used by the result stores.
//
// Every structure is a protobuf wire-format message written field by field
// in ascending field order, so equal inputs always produce equal bytes.
package codec

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the key message.
const (
	keyKind protowire.Number = 1
	keyName protowire.Number = 2
	keyData protowire.Number = 3
)

// Field numbers of the value message.
const (
	valueKind      protowire.Number = 1
	valueOutput    protowire.Number = 2
	valueSignature protowire.Number = 3
)

// Field numbers of the file info message.
const (
	infoDevice  protowire.Number = 1
	infoInode   protowire.Number = 2
	infoMode    protowire.Number = 3
	infoSize    protowire.Number = 4
	infoSeconds protowire.Number = 5
	infoNanos   protowire.Number = 6
)

// Field numbers of the dependency list and record messages.
const (
	depsKey protowire.Number = 1

	recordValue      protowire.Number = 1
	recordSignature  protowire.Number = 2
	recordDeps       protowire.Number = 3
	recordBuiltAt    protowire.Number = 4
	recordComputedAt protowire.Number = 5
)

// EncodeKey serializes a key.
func EncodeKey(k domain.BuildKey) []byte {
	return appendKey(nil, k)
}

func appendKey(b []byte, k domain.BuildKey) []byte {
	b = appendVarintField(b, keyKind, uint64(k.Kind))
	b = appendStringField(b, keyName, k.Name)
	b = appendStringField(b, keyData, k.Data)
	return b
}

// DecodeKey parses a key produced by EncodeKey.
func DecodeKey(b []byte) (domain.BuildKey, error) {
	var k domain.BuildKey
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == keyKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			k.Kind = domain.KeyKind(v)
			return n, nil
		case num == keyName && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			k.Name = string(v)
			return n, nil
		case num == keyData && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			k.Data = string(v)
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return domain.BuildKey{}, err
	}
	if !k.Kind.Valid() {
		return domain.BuildKey{}, zerr.With(domain.ErrCorruptRecord, "key_kind", uint8(k.Kind))
	}
	return k, nil
}

// EncodeValue serializes a value.
func EncodeValue(v domain.BuildValue) []byte {
	b := appendVarintField(nil, valueKind, uint64(v.Kind))
	for _, fi := range v.OutputInfos {
		b = protowire.AppendTag(b, valueOutput, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeFileInfo(fi))
	}
	b = appendVarintField(b, valueSignature, v.Signature)
	return b
}

// DecodeValue parses a value produced by EncodeValue.
func DecodeValue(b []byte) (domain.BuildValue, error) {
	var v domain.BuildValue
	kindSeen := false
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == valueKind && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			v.Kind = domain.ValueKind(x)
			kindSeen = true
			return n, nil
		case num == valueOutput && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			fi, err := decodeFileInfo(msg)
			if err != nil {
				return 0, err
			}
			v.OutputInfos = append(v.OutputInfos, fi)
			return n, nil
		case num == valueSignature && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			v.Signature = x
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return domain.BuildValue{}, err
	}
	if !kindSeen || !v.Kind.Valid() {
		return domain.BuildValue{}, zerr.With(domain.ErrCorruptRecord, "value_kind", uint8(v.Kind))
	}
	return v, nil
}

func encodeFileInfo(fi domain.FileInfo) []byte {
	b := appendVarintField(nil, infoDevice, fi.Device)
	b = appendVarintField(b, infoInode, fi.Inode)
	b = appendVarintField(b, infoMode, fi.Mode)
	b = appendVarintField(b, infoSize, fi.Size)
	b = appendVarintField(b, infoSeconds, fi.ModTime.Seconds)
	b = appendVarintField(b, infoNanos, fi.ModTime.Nanoseconds)
	return b
}

func decodeFileInfo(b []byte) (domain.FileInfo, error) {
	var fi domain.FileInfo
	fields := map[protowire.Number]*uint64{
		infoDevice:  &fi.Device,
		infoInode:   &fi.Inode,
		infoMode:    &fi.Mode,
		infoSize:    &fi.Size,
		infoSeconds: &fi.ModTime.Seconds,
		infoNanos:   &fi.ModTime.Nanoseconds,
	}
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		dst, ok := fields[num]
		if !ok || typ != protowire.VarintType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		x, n := protowire.ConsumeVarint(b)
		*dst = x
		return n, nil
	})
	return fi, err
}

// EncodeKeys serializes an ordered dependency list.
func EncodeKeys(keys []domain.BuildKey) []byte {
	var b []byte
	for _, k := range keys {
		b = protowire.AppendTag(b, depsKey, protowire.BytesType)
		b = protowire.AppendBytes(b, EncodeKey(k))
	}
	return b
}

// DecodeKeys parses a dependency list produced by EncodeKeys.
func DecodeKeys(b []byte) ([]domain.BuildKey, error) {
	var keys []domain.BuildKey
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != depsKey || typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		msg, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		k, err := DecodeKey(msg)
		if err != nil {
			return 0, err
		}
		keys = append(keys, k)
		return n, nil
	})
	return keys, err
}

// EncodeRecord serializes everything in a record except its key, which
// stores use as the lookup key.
func EncodeRecord(r domain.Record) []byte {
	b := protowire.AppendTag(nil, recordValue, protowire.BytesType)
	b = protowire.AppendBytes(b, EncodeValue(r.Value))
	b = protowire.AppendTag(b, recordSignature, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Signature)
	b = protowire.AppendTag(b, recordDeps, protowire.BytesType)
	b = protowire.AppendBytes(b, EncodeKeys(r.Dependencies))
	b = appendVarintField(b, recordBuiltAt, r.BuiltAt)
	b = appendVarintField(b, recordComputedAt, r.ComputedAt)
	return b
}

// DecodeRecord parses a record produced by EncodeRecord and attaches key.
func DecodeRecord(key domain.BuildKey, b []byte) (domain.Record, error) {
	rec := domain.Record{Key: key}
	valueSeen := false
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == recordValue && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			v, err := DecodeValue(msg)
			if err != nil {
				return 0, err
			}
			rec.Value = v
			valueSeen = true
			return n, nil
		case num == recordSignature && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n >= 0 && len(msg) > 0 {
				rec.Signature = append([]byte(nil), msg...)
			}
			return n, nil
		case num == recordDeps && typ == protowire.BytesType:
			msg, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			deps, err := DecodeKeys(msg)
			if err != nil {
				return 0, err
			}
			rec.Dependencies = deps
			return n, nil
		case num == recordBuiltAt && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			rec.BuiltAt = x
			return n, nil
		case num == recordComputedAt && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			rec.ComputedAt = x
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return domain.Record{}, err
	}
	if !valueSeen {
		return domain.Record{}, zerr.With(domain.ErrCorruptRecord, "key", key.String())
	}
	return rec, nil
}

// walk iterates over the fields of a message. fn consumes the field value
// and returns the number of bytes read, or a negative protowire error code.
func walk(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return zerr.Wrap(protowire.ParseError(n), domain.ErrCorruptRecord.Error())
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return zerr.Wrap(protowire.ParseError(m), domain.ErrCorruptRecord.Error())
		}
		b = b[m:]
	}
	return nil
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

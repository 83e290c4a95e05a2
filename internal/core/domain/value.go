package domain

import (
	"fmt"
	"slices"
	"strings"
)

// ValueKind identifies the variant of a BuildValue.
type ValueKind uint8

const (
	// ValueInvalid is the zero kind.
	ValueInvalid ValueKind = iota
	// ValueVirtualInput is the value of a virtual node that exists only in the graph.
	ValueVirtualInput
	// ValueExistingInput is the value of a node that exists on disk.
	ValueExistingInput
	// ValueMissingInput is the value of a node that does not exist and has no producer.
	ValueMissingInput
	// ValueMissingOutput is the value of a declared output that a command did not create.
	ValueMissingOutput
	// ValueFailedInput is the value of a node whose producer failed.
	ValueFailedInput
	// ValueSuccessfulCommand is the value of a command that executed successfully.
	ValueSuccessfulCommand
	// ValueFailedCommand is the value of a command whose execution failed.
	ValueFailedCommand
	// ValuePropagatedFailureCommand is the value of a command that did not run because an input failed.
	ValuePropagatedFailureCommand
	// ValueCancelledCommand is the value of a command abandoned by cancellation.
	ValueCancelledCommand
	// ValueSkippedCommand is the value of a command the delegate declined to start.
	ValueSkippedCommand
	// ValueTarget is the value of a target once all of its keys are built.
	ValueTarget
	// ValueSuccessfulCommandWithOutputSignature is a successful command value carrying an output signature.
	ValueSuccessfulCommandWithOutputSignature
)

var valueKindNames = [...]string{
	ValueInvalid:                              "Invalid",
	ValueVirtualInput:                         "VirtualInput",
	ValueExistingInput:                        "ExistingInput",
	ValueMissingInput:                         "MissingInput",
	ValueMissingOutput:                        "MissingOutput",
	ValueFailedInput:                          "FailedInput",
	ValueSuccessfulCommand:                    "SuccessfulCommand",
	ValueFailedCommand:                        "FailedCommand",
	ValuePropagatedFailureCommand:             "PropagatedFailureCommand",
	ValueCancelledCommand:                     "CancelledCommand",
	ValueSkippedCommand:                       "SkippedCommand",
	ValueTarget:                               "Target",
	ValueSuccessfulCommandWithOutputSignature: "SuccessfulCommandWithOutputSignature",
}

func (k ValueKind) String() string {
	if int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Valid reports whether k is one of the known kinds.
func (k ValueKind) Valid() bool {
	return int(k) < len(valueKindNames)
}

// BuildValue is the typed outcome of evaluating a key.
// Values are compared structurally with Equal.
type BuildValue struct {
	Kind        ValueKind
	OutputInfos []FileInfo
	Signature   uint64
}

// VirtualInput returns the value of a virtual node.
func VirtualInput() BuildValue { return BuildValue{Kind: ValueVirtualInput} }

// ExistingInput returns the value of a node present on disk.
func ExistingInput(info FileInfo) BuildValue {
	return BuildValue{Kind: ValueExistingInput, OutputInfos: []FileInfo{info}}
}

// MissingInput returns the value of an absent node.
func MissingInput() BuildValue { return BuildValue{Kind: ValueMissingInput} }

// MissingOutput returns the value of a declared output that was not produced.
func MissingOutput() BuildValue { return BuildValue{Kind: ValueMissingOutput} }

// FailedInput returns the value of a node whose producer failed.
func FailedInput() BuildValue { return BuildValue{Kind: ValueFailedInput} }

// SuccessfulCommand returns a successful command value with per-output metadata.
func SuccessfulCommand(outputInfos ...FileInfo) BuildValue {
	return BuildValue{Kind: ValueSuccessfulCommand, OutputInfos: outputInfos}
}

// SuccessfulCommandWithOutputSignature returns a successful command value that
// also carries a digest of its outputs.
func SuccessfulCommandWithOutputSignature(signature uint64, outputInfos ...FileInfo) BuildValue {
	return BuildValue{Kind: ValueSuccessfulCommandWithOutputSignature, OutputInfos: outputInfos, Signature: signature}
}

// FailedCommand returns the value of a failed execution.
func FailedCommand() BuildValue { return BuildValue{Kind: ValueFailedCommand} }

// PropagatedFailureCommand returns the value of a command that did not run because of a failed input.
func PropagatedFailureCommand() BuildValue { return BuildValue{Kind: ValuePropagatedFailureCommand} }

// CancelledCommand returns the value of an abandoned command.
func CancelledCommand() BuildValue { return BuildValue{Kind: ValueCancelledCommand} }

// SkippedCommand returns the value of a command that was not started.
func SkippedCommand() BuildValue { return BuildValue{Kind: ValueSkippedCommand} }

// TargetValue returns the value of a completed target.
func TargetValue() BuildValue { return BuildValue{Kind: ValueTarget} }

// Equal reports whether v and other are the same variant with equal fields.
// A nil and an empty OutputInfos compare equal.
func (v BuildValue) Equal(other BuildValue) bool {
	return v.Kind == other.Kind &&
		v.Signature == other.Signature &&
		slices.Equal(v.OutputInfos, other.OutputInfos)
}

// IsFailure reports whether the value denotes a failed or non-executed outcome.
func (v BuildValue) IsFailure() bool {
	switch v.Kind {
	case ValueFailedCommand, ValuePropagatedFailureCommand, ValueCancelledCommand,
		ValueSkippedCommand, ValueFailedInput, ValueMissingInput, ValueMissingOutput:
		return true
	default:
		return false
	}
}

// IsSuccessfulCommand reports whether the value is one of the successful command variants.
func (v BuildValue) IsSuccessfulCommand() bool {
	return v.Kind == ValueSuccessfulCommand || v.Kind == ValueSuccessfulCommandWithOutputSignature
}

// OutputInfo returns the metadata of the output at index i, or the missing
// info when the value carries no such output.
func (v BuildValue) OutputInfo(i int) FileInfo {
	if i < 0 || i >= len(v.OutputInfos) {
		return FileInfo{}
	}
	return v.OutputInfos[i]
}

func (v BuildValue) String() string {
	if len(v.OutputInfos) == 0 && v.Signature == 0 {
		return v.Kind.String()
	}
	parts := make([]string, 0, len(v.OutputInfos))
	for _, fi := range v.OutputInfos {
		parts = append(parts, fmt.Sprintf("{dev=%d ino=%d mode=%o size=%d mtime=%d.%09d}",
			fi.Device, fi.Inode, fi.Mode, fi.Size, fi.ModTime.Seconds, fi.ModTime.Nanoseconds))
	}
	s := v.Kind.String() + "(" + strings.Join(parts, ", ")
	if v.Signature != 0 {
		s += fmt.Sprintf(" sig=%016x", v.Signature)
	}
	return s + ")"
}

package l1c

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput fewer bytes are available than a field or record declares
	ErrTruncatedInput = errors.New("truncated input")

	// ErrSizeMismatch the bytes consumed by a record decode differ from its declared size
	ErrSizeMismatch = errors.New("record size mismatch")

	// ErrUnknownRecordClass the GRH carries a class outside the GPFS table
	ErrUnknownRecordClass = errors.New("unknown record class")

	// ErrInvalidEnumValue a field holds a value outside its fixed enumeration
	ErrInvalidEnumValue = errors.New("invalid enum value")

	// ErrFieldParse an MPHR value could not be converted to its declared type
	ErrFieldParse = errors.New("field parse error")

	// ErrMissingDependency an MDR was decoded without a scale factor GIADR
	ErrMissingDependency = errors.New("missing scale factor GIADR")

	// ErrAmbiguousDependency the product holds more than one scale factor GIADR
	ErrAmbiguousDependency = errors.New("more than one scale factor GIADR")

	// ErrIndexOutOfRange a record index past the end of the sequence
	ErrIndexOutOfRange = errors.New("record index out of range")

	// ErrLength codec input is not a positive multiple of its unit size
	ErrLength = errors.New("invalid codec input length")

	// ErrScaleLookup no scale factor band covers a channel
	ErrScaleLookup = errors.New("no scale factor band for channel")

	// ErrChannelRange the MDR first/last channel numbers give an impossible channel count
	ErrChannelRange = errors.New("invalid spectral channel range")

	// ErrRecordNotFound the product has no record of the requested kind
	ErrRecordNotFound = errors.New("record not found")

	// ErrThresholdTooSmall a split size cannot hold the non-MDR records plus one MDR
	ErrThresholdTooSmall = errors.New("split threshold too small")
)

// SizeMismatchError reports how many bytes a record decode expected and got.
type SizeMismatchError struct {
	Record   string
	Declared int
	Consumed int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%s: declared %d content bytes, consumed %d", e.Record, e.Declared, e.Consumed)
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }

// UnknownRecordClassError carries the raw class byte of a bad GRH.
type UnknownRecordClassError struct {
	Class uint8
}

func (e *UnknownRecordClassError) Error() string {
	return fmt.Sprintf("unknown record class %d", e.Class)
}

func (e *UnknownRecordClassError) Unwrap() error { return ErrUnknownRecordClass }

// InvalidEnumValueError names the field and the offending token.
type InvalidEnumValueError struct {
	Field string
	Value string
}

func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("invalid value %q for %s", e.Value, e.Field)
}

func (e *InvalidEnumValueError) Unwrap() error { return ErrInvalidEnumValue }

// FieldParseError names the MPHR field whose text could not be converted.
type FieldParseError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("MPHR field %s (%q): %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("MPHR field %s (%q): cannot parse", e.Field, e.Value)
}

func (e *FieldParseError) Is(target error) bool { return target == ErrFieldParse }

func (e *FieldParseError) Unwrap() error { return e.Err }

// ScaleLookupError is returned when a spectral channel falls outside every
// band of the scale factor GIADR.
type ScaleLookupError struct {
	Channel int
}

func (e *ScaleLookupError) Error() string {
	return fmt.Sprintf("no scale factor band for channel %d", e.Channel)
}

func (e *ScaleLookupError) Unwrap() error { return ErrScaleLookup }

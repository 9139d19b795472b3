// Package printerr defines the error kinds shared by the command model,
// the protocol encoder and the transports.
//
// Validation kinds are always detected before any byte reaches a transport.
// Transport kinds carry the number of attempts made and wrap the underlying
// I/O error.
package printerr

import (
	"errors"
	"fmt"
)

// Validation kinds
var (
	ErrInvalidCommand       = errors.New("invalid command")
	ErrArityMismatch        = errors.New("arity mismatch")
	ErrArgumentType         = errors.New("argument type error")
	ErrUnsupportedSymbology = errors.New("unsupported symbology")
	ErrBarcodeChecksum      = errors.New("barcode checksum error")
	ErrBarcodeData          = errors.New("invalid barcode data")
	ErrTextEncoding         = errors.New("text encoding error")
	ErrInvalidDevice        = errors.New("invalid device descriptor")
)

// Transport kinds
var (
	ErrUnavailable  = errors.New("device unavailable")
	ErrUnreachable  = errors.New("device unreachable")
	ErrPartialWrite = errors.New("partial write")
)

var kindNames = []struct {
	err  error
	name string
}{
	{ErrInvalidCommand, "InvalidCommand"},
	{ErrArityMismatch, "ArityMismatch"},
	{ErrArgumentType, "ArgumentTypeError"},
	{ErrUnsupportedSymbology, "UnsupportedSymbology"},
	{ErrBarcodeChecksum, "BarcodeChecksumError"},
	{ErrBarcodeData, "BarcodeDataError"},
	{ErrTextEncoding, "TextEncodingError"},
	{ErrInvalidDevice, "InvalidDevice"},
	{ErrUnavailable, "Unavailable"},
	{ErrUnreachable, "Unreachable"},
	{ErrPartialWrite, "PartialWrite"},
}

// KindOf returns the name of the first known kind err wraps, or "" for nil
// and "Unknown" for errors outside the taxonomy.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindNames {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Unknown"
}

// IsValidation reports whether err belongs to the validation family.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	for _, k := range kindNames[:8] {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

// ValidationError reports a command or descriptor that cannot be encoded.
// Index is the position of the offending command in the session, or -1.
type ValidationError struct {
	Index   int
	Command string
	Err     error
	Detail  string
}

// Invalid builds a ValidationError of the given kind with no position
// attached; callers higher up add it with At.
func Invalid(kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Index: -1, Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// At returns err with the command position filled in. Errors that are not
// validation errors are wrapped as-is.
func At(err error, index int, command string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		cp := *ve
		cp.Index = index
		cp.Command = command
		return &cp
	}
	return &ValidationError{Index: index, Command: command, Err: err}
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Index >= 0 {
		return fmt.Sprintf("command %d (%s): %s", e.Index, e.Command, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError reports a delivery failure. Kind is one of the transport
// sentinels; Err is the underlying cause.
type TransportError struct {
	Kind     error
	Op       string
	Target   string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Kind)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

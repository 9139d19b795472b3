package printerr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{"Nil", nil, ""},
		{"Plain", io.EOF, "Unknown"},
		{"Sentinel", ErrArityMismatch, "ArityMismatch"},
		{"Wrapped", fmt.Errorf("encode: %w", ErrTextEncoding), "TextEncodingError"},
		{"Validation", Invalid(ErrBarcodeChecksum, "want 0"), "BarcodeChecksumError"},
		{"Transport", &TransportError{Kind: ErrUnreachable, Op: "dial", Target: "x:1", Err: io.EOF}, "Unreachable"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestAtKeepsKind(t *testing.T) {
	err := At(Invalid(ErrArgumentType, "arg 0: want integer"), 3, "size")

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, 3, ve.Index)
	assert.Equal(t, "size", ve.Command)
	assert.ErrorIs(t, err, ErrArgumentType)
	assert.Equal(t, "command 3 (size): argument type error: arg 0: want integer", err.Error())
}

func TestAtWrapsForeignError(t *testing.T) {
	err := At(ErrTextEncoding, 1, "text")
	assert.ErrorIs(t, err, ErrTextEncoding)
	assert.True(t, IsValidation(err))
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &TransportError{Kind: ErrUnreachable, Op: "dial", Target: "10.0.0.5:9100", Attempts: 5, Err: cause}

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "after 5 attempts")
}

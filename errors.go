package hindsight

import (
	"errors"

	"github.com/hindsight-io/hindsight/wire"
)

var (
	// ErrUnknownRevision: the preamble names a revision outside [1, N] for
	// the expected aggregate.
	ErrUnknownRevision = errors.New("hindsight: unknown revision")
	// ErrBadDescriptor: the declaration is inconsistent. Surfaced when the
	// type is constructed, never at encode/decode time.
	ErrBadDescriptor = errors.New("hindsight: bad descriptor")
	// ErrConversion: a default provider, converter or upgrade returned a
	// failure. The cause is wrapped.
	ErrConversion = errors.New("hindsight: conversion failed")
	// ErrBadVariant: the value holds no variant the union declares live.
	ErrBadVariant = errors.New("hindsight: variant not live at current revision")
)

// isWireError tells stream faults apart from user-callback failures, so an
// upgrade that both reads and converts wraps only its own failures as
// Conversion.
func isWireError(err error) bool {
	return errors.Is(err, wire.ErrTruncated) ||
		errors.Is(err, wire.ErrMalformed) ||
		errors.Is(err, wire.ErrUnsupported) ||
		errors.Is(err, ErrUnknownRevision)
}

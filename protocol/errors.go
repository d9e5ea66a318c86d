package protocol

import (
	"errors"
	"fmt"
)

// Transport errors. Anything returned by a Transport is wrapped into ErrTransport
// by the engines unless it already is one.
var (
	ErrTransport = errors.New("julabo: transport error")
	ErrTimeout   = fmt.Errorf("%w: timeout", ErrTransport)
	ErrClosed    = fmt.Errorf("%w: closed", ErrTransport)
)

// Protocol errors raised while formatting requests or interpreting replies.
var (
	ErrProtocol = errors.New("julabo: protocol error")

	// ErrInvalidEncoding indicates a value that a codec cannot format for the wire.
	ErrInvalidEncoding = fmt.Errorf("%w: invalid encoding", ErrProtocol)
	// ErrUnknownVariant indicates that the device returned an integer outside an enumeration.
	ErrUnknownVariant = fmt.Errorf("%w: unknown variant", ErrProtocol)
	// ErrMalformedReply indicates a reply that is not text or does not parse as expected.
	ErrMalformedReply = fmt.Errorf("%w: malformed reply", ErrProtocol)
)

// ErrTransportNil is returned when an engine is created without a transport.
var ErrTransportNil = errors.New("julabo: transport is nil")

func wrapTransportErr(op string, err error) error {
	if errors.Is(err, ErrTransport) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

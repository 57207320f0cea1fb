// internal/megatec/errors.go
package megatec

import (
	"errors"
	"fmt"
)

// ConnectionError reports a failed connect, write or read against the UPS.
// Timeout is set when the exchange ran out of its time budget.
type ConnectionError struct {
	Op      string
	Addr    string
	Timeout bool
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("megatec: %s %s: timeout", e.Op, e.Addr)
	}
	return fmt.Sprintf("megatec: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a reply that does not satisfy the Q1 contract,
// or calibration bounds that make the battery level undefined.
type ProtocolError struct {
	Msg string
	Raw string
	Err error
}

func (e *ProtocolError) Error() string { return e.Msg }

func (e *ProtocolError) Unwrap() error { return e.Err }

// UnsupportedProtocolError is returned before any connection is attempted.
type UnsupportedProtocolError struct {
	Protocol Protocol
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("megatec: unsupported protocol %q", string(e.Protocol))
}

// Error codes exported to the device status block.
const (
	CodeNone        uint16 = 0
	CodeConnection  uint16 = 1
	CodeProtocol    uint16 = 2
	CodeUnsupported uint16 = 3
	CodeUnknown     uint16 = 0xFFFF
)

// Code maps an error from this package onto a stable numeric code.
func Code(err error) uint16 {
	if err == nil {
		return CodeNone
	}

	var ce *ConnectionError
	if errors.As(err, &ce) {
		return CodeConnection
	}
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return CodeProtocol
	}
	var ue *UnsupportedProtocolError
	if errors.As(err, &ue) {
		return CodeUnsupported
	}

	return CodeUnknown
}

func invalidResponse(raw string) error {
	return &ProtocolError{
		Msg: "invalid response: " + raw,
		Raw: raw,
	}
}

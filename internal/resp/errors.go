package resp

import (
	"errors"
	"fmt"
)

var (
	// ErrIncomplete means more bytes are needed before a frame can be decoded.
	// It never escapes Conn.ReadFrame.
	ErrIncomplete = errors.New("resp: incomplete frame")

	// ErrProtocol is matched by every malformed-frame error.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded is matched by protocol errors caused by a size limit.
	ErrLimitExceeded = errors.New("resp: limit exceeded")

	// ErrConnReset is returned when the peer closes the stream mid-frame.
	ErrConnReset = errors.New("resp: connection reset by peer")

	// ErrArrayEncode is returned when an Array is handed to the scalar encoder.
	ErrArrayEncode = errors.New("resp: array frames cannot be encoded")

	// ErrInvalidLine is returned when a simple or error string cannot be
	// written on a single line.
	ErrInvalidLine = errors.New("resp: line contains CR, LF or invalid UTF-8")
)

// ProtocolError describes bytes that can never form a valid frame.
type ProtocolError struct {
	// Offset is the position of the offending token in the scanned buffer.
	Offset int
	Reason string

	limit bool
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("resp: protocol error at offset %d: %s", e.Offset, e.Reason)
}

// Is reports whether target is ErrProtocol, or ErrLimitExceeded for limit violations.
func (e *ProtocolError) Is(target error) bool {
	switch target {
	case ErrProtocol:
		return true
	case ErrLimitExceeded:
		return e.limit
	}
	return false
}

func protocolErr(offset int, format string, args ...any) error {
	return &ProtocolError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

func limitErr(offset int, format string, args ...any) error {
	return &ProtocolError{Offset: offset, Reason: fmt.Sprintf(format, args...), limit: true}
}

package packet

import (
	"errors"
	"fmt"
)

// ErrInvalidUTF8 indicates a length-prefixed string field is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 string")

// BufferTooShortError indicates a parse step needed more bytes than the
// buffer holds. Expected is the exact byte offset the read required,
// Actual is the buffer length.
type BufferTooShortError struct {
	Expected int
	Actual   int
}

func (e *BufferTooShortError) Error() string {
	return fmt.Sprintf("buffer too short: expected %d, got %d", e.Expected, e.Actual)
}

// InvalidTypeError indicates an unrecognized packet type byte in the
// frame header.
type InvalidTypeError struct {
	Value byte
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid packet type: 0x%02X", e.Value)
}

// InvalidQoSError indicates a QoS field outside {0, 1, 2}.
type InvalidQoSError struct {
	Value byte
}

func (e *InvalidQoSError) Error() string {
	return fmt.Sprintf("invalid QoS level: %d", e.Value)
}

// InvalidReturnCodeError indicates an unrecognized CONNACK or SUBACK
// return code byte.
type InvalidReturnCodeError struct {
	Value byte
}

func (e *InvalidReturnCodeError) Error() string {
	return fmt.Sprintf("invalid return code: 0x%02X", e.Value)
}

// MalformedPacketError indicates a structural violation not covered by a
// more specific error.
type MalformedPacketError struct {
	Reason string
}

func (e *MalformedPacketError) Error() string {
	return "malformed packet: " + e.Reason
}

// FrameTooLargeError indicates an encoded frame would exceed MaxFrameLen
// and cannot be represented by the single-byte length header.
type FrameTooLargeError struct {
	Len int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame too large: %d bytes exceeds %d byte limit", e.Len, MaxFrameLen)
}

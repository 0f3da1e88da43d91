package packet

import (
	"encoding/binary"
	"unicode/utf8"
)

// ReadUint16 reads a big-endian 16-bit value at off.
// Fails with BufferTooShortError if fewer than off+2 bytes are available.
func ReadUint16(buf []byte, off int) (uint16, error) {
	if len(buf) < off+2 {
		return 0, &BufferTooShortError{Expected: off + 2, Actual: len(buf)}
	}
	return binary.BigEndian.Uint16(buf[off:]), nil
}

// ReadString reads a 16-bit length-prefixed UTF-8 string at off.
// Returns the string and the offset immediately following it, enabling
// sequential field parsing.
func ReadString(buf []byte, off int) (string, int, error) {
	n, err := ReadUint16(buf, off)
	if err != nil {
		return "", 0, err
	}
	end := off + 2 + int(n)
	if len(buf) < end {
		return "", 0, &BufferTooShortError{Expected: end, Actual: len(buf)}
	}
	b := buf[off+2 : end]
	if !utf8.Valid(b) {
		return "", 0, ErrInvalidUTF8
	}
	return string(b), end, nil
}

// ReadBytes reads a 16-bit length-prefixed byte string at off.
// Unlike ReadString it performs no text validation. The returned slice
// is a copy and does not alias buf.
func ReadBytes(buf []byte, off int) ([]byte, int, error) {
	n, err := ReadUint16(buf, off)
	if err != nil {
		return nil, 0, err
	}
	end := off + 2 + int(n)
	if len(buf) < end {
		return nil, 0, &BufferTooShortError{Expected: end, Actual: len(buf)}
	}
	out := make([]byte, n)
	copy(out, buf[off+2:end])
	return out, end, nil
}

// AppendUint16 appends v in big-endian order and returns the extended buffer.
func AppendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// AppendString appends a 16-bit byte-length prefix followed by the UTF-8
// bytes of s. Callers must not pass strings longer than 65535 bytes.
func AppendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(s)))
	return append(dst, s...)
}

// AppendBytes appends a 16-bit length prefix followed by p.
// Callers must not pass slices longer than 65535 bytes.
func AppendBytes(dst []byte, p []byte) []byte {
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(p)))
	return append(dst, p...)
}

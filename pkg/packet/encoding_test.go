package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadUint16(t *testing.T) {
	buf := []byte{0x12, 0x34, 0x56}

	v, err := ReadUint16(buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x1234 {
		t.Errorf("got 0x%04X, want 0x1234", v)
	}

	v, err = ReadUint16(buf, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x3456 {
		t.Errorf("got 0x%04X, want 0x3456", v)
	}
}

func TestReadUint16Short(t *testing.T) {
	var short *BufferTooShortError
	_, err := ReadUint16([]byte{0x12, 0x34}, 1)
	if !errors.As(err, &short) {
		t.Fatalf("got %v, want BufferTooShortError", err)
	}
	if short.Expected != 3 || short.Actual != 2 {
		t.Errorf("got expected=%d actual=%d, want expected=3 actual=2", short.Expected, short.Actual)
	}
}

func TestReadString(t *testing.T) {
	buf := []byte{0xFF, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x00}

	s, next, err := ReadString(buf, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != "MQTT" {
		t.Errorf("got %q, want %q", s, "MQTT")
	}
	if next != 7 {
		t.Errorf("got next offset %d, want 7", next)
	}
}

func TestReadStringErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"missing length prefix", []byte{0x00}, &BufferTooShortError{Expected: 2, Actual: 1}},
		{"truncated body", []byte{0x00, 0x05, 'a', 'b'}, &BufferTooShortError{Expected: 7, Actual: 4}},
		{"invalid utf8", []byte{0x00, 0x02, 0xFF, 0xFE}, ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadString(tt.buf, 0)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errors.Is(tt.want, ErrInvalidUTF8) {
				if !errors.Is(err, ErrInvalidUTF8) {
					t.Errorf("got %v, want ErrInvalidUTF8", err)
				}
				return
			}
			var short *BufferTooShortError
			if !errors.As(err, &short) {
				t.Fatalf("got %v, want BufferTooShortError", err)
			}
			want := tt.want.(*BufferTooShortError)
			if short.Expected != want.Expected || short.Actual != want.Actual {
				t.Errorf("got %+v, want %+v", short, want)
			}
		})
	}
}

func TestAppendString(t *testing.T) {
	got := AppendString(nil, "hi")
	want := []byte{0x00, 0x02, 'h', 'i'}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}

	// Appends to existing content without touching it.
	got = AppendString([]byte{0xAA}, "")
	want = []byte{0xAA, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestReadBytesDoesNotAlias(t *testing.T) {
	buf := []byte{0x00, 0x02, 0x01, 0x02}
	b, next, err := ReadBytes(buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 4 {
		t.Errorf("got next offset %d, want 4", next)
	}
	buf[2] = 0xFF
	if !bytes.Equal(b, []byte{0x01, 0x02}) {
		t.Errorf("decoded bytes alias the input buffer: % X", b)
	}
}

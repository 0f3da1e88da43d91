package console

import (
	"bytes"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		input   string
		want    []byte
		wantErr bool
	}{
		{"0a0b0c", []byte{0x0A, 0x0B, 0x0C}, false},
		{"0a 0b 0c", []byte{0x0A, 0x0B, 0x0C}, false},
		{"  DE AD beef ", []byte{0xDE, 0xAD, 0xBE, 0xEF}, false},
		{"", []byte{}, false},
		{"abc", nil, true},
		{"zz", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseHex(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseHex(%q) accepted", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tt.input, err)
			continue
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("ParseHex(%q) = %x, want %x", tt.input, got, tt.want)
		}
	}
}

func TestParseTextWithEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"plain", []byte("plain")},
		{`a\nb`, []byte("a\nb")},
		{`a\r\t\0b`, []byte{'a', '\r', '\t', 0, 'b'}},
		{`a\\nb`, []byte(`a\nb`)},
		{`\x41\x42`, []byte("AB")},
		{`\xZZ`, []byte(`\xZZ`)},
		{`trailing\`, []byte(`trailing\`)},
		{`\q`, []byte(`\q`)},
	}

	for _, tt := range tests {
		if got := ParseTextWithEscapes(tt.input); !bytes.Equal(got, tt.want) {
			t.Errorf("ParseTextWithEscapes(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

package console

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseHex decodes a hex string into bytes. Whitespace is ignored so
// "01 02 0a" and "01020a" are equivalent.
func ParseHex(s string) ([]byte, error) {
	var b strings.Builder
	for _, c := range s {
		if !unicode.IsSpace(c) {
			b.WriteRune(c)
		}
	}
	cleaned := b.String()

	if len(cleaned)%2 != 0 {
		return nil, fmt.Errorf("odd number of hex digits")
	}

	result := make([]byte, 0, len(cleaned)/2)
	for i := 0; i < len(cleaned); i += 2 {
		v, err := strconv.ParseUint(cleaned[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q", cleaned[i:i+2])
		}
		result = append(result, byte(v))
	}
	return result, nil
}

// ParseTextWithEscapes expands backslash escapes in a text payload:
// \xNN, \n, \r, \t, \0 and \\. Unrecognized escapes pass through
// unchanged.
func ParseTextWithEscapes(s string) []byte {
	var result []byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			result = append(result, c)
			continue
		}

		switch s[i+1] {
		case 'x', 'X':
			if i+3 < len(s) {
				if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
					result = append(result, byte(v))
					i += 3
					continue
				}
			}
			// Keep malformed \x sequences verbatim.
			result = append(result, c)
		case 'n':
			result = append(result, '\n')
			i++
		case 'r':
			result = append(result, '\r')
			i++
		case 't':
			result = append(result, '\t')
			i++
		case '0':
			result = append(result, 0)
			i++
		case '\\':
			result = append(result, '\\')
			i++
		default:
			result = append(result, c)
		}
	}
	return result
}

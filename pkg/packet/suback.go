package packet

// Suback represents a SUBACK packet.
//
// Wire layout: code_count(1) | repeated{ return_code(1) }.
// Codes answer the filters of the corresponding SUBSCRIBE one-to-one, in
// the same order.
type Suback struct {
	ReturnCodes []SubAckReturnCode
}

// NewSuback creates a SUBACK packet for the given return codes.
func NewSuback(codes ...SubAckReturnCode) *Suback {
	return &Suback{ReturnCodes: codes}
}

// Type returns TypeSuback.
func (s *Suback) Type() Type {
	return TypeSuback
}

// EncodedLen returns the exact encoded payload size.
func (s *Suback) EncodedLen() int {
	return 1 + len(s.ReturnCodes)
}

// Encode appends the SUBACK payload to dst.
func (s *Suback) Encode(dst []byte) []byte {
	dst = append(dst, byte(len(s.ReturnCodes)))
	for _, code := range s.ReturnCodes {
		dst = append(dst, byte(code))
	}
	return dst
}

// DecodeSuback decodes a SUBACK payload.
func DecodeSuback(buf []byte) (*Suback, error) {
	if len(buf) == 0 {
		return nil, &BufferTooShortError{Expected: 1, Actual: 0}
	}

	count := int(buf[0])
	if len(buf) < 1+count {
		return nil, &BufferTooShortError{Expected: 1 + count, Actual: len(buf)}
	}

	codes := make([]SubAckReturnCode, 0, count)
	for _, b := range buf[1 : 1+count] {
		code := SubAckReturnCode(b)
		if !code.Valid() {
			return nil, &InvalidReturnCodeError{Value: b}
		}
		codes = append(codes, code)
	}

	return &Suback{ReturnCodes: codes}, nil
}

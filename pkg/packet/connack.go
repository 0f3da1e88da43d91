package packet

// Connack represents a CONNACK packet: the broker's reply to CONNECT.
//
// Wire layout: session_present(1, 0 or 1) | return_code(1).
type Connack struct {
	SessionPresent bool
	ReturnCode     ConnectReturnCode
}

// NewConnack creates a CONNACK packet.
func NewConnack(sessionPresent bool, code ConnectReturnCode) *Connack {
	return &Connack{
		SessionPresent: sessionPresent,
		ReturnCode:     code,
	}
}

// Type returns TypeConnack.
func (c *Connack) Type() Type {
	return TypeConnack
}

// EncodedLen returns the exact encoded payload size.
func (c *Connack) EncodedLen() int {
	return 2
}

// Encode appends the CONNACK payload to dst.
func (c *Connack) Encode(dst []byte) []byte {
	if c.SessionPresent {
		dst = append(dst, 0x01)
	} else {
		dst = append(dst, 0x00)
	}
	return append(dst, byte(c.ReturnCode))
}

// DecodeConnack decodes a CONNACK payload.
func DecodeConnack(buf []byte) (*Connack, error) {
	if len(buf) < 2 {
		return nil, &BufferTooShortError{Expected: 2, Actual: len(buf)}
	}
	code := ConnectReturnCode(buf[1])
	if !code.Valid() {
		return nil, &InvalidReturnCodeError{Value: buf[1]}
	}
	return &Connack{
		SessionPresent: buf[0] != 0,
		ReturnCode:     code,
	}, nil
}

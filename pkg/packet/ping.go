package packet

// Pingreq represents a PINGREQ packet. Clients send it to refresh their
// keep-alive deadline. It carries no payload.
type Pingreq struct{}

// Type returns TypePingreq.
func (p *Pingreq) Type() Type {
	return TypePingreq
}

// EncodedLen returns 0: PINGREQ has no payload.
func (p *Pingreq) EncodedLen() int {
	return 0
}

// Encode appends nothing.
func (p *Pingreq) Encode(dst []byte) []byte {
	return dst
}

// DecodePingreq decodes a PINGREQ payload. Any payload bytes are ignored.
func DecodePingreq(_ []byte) (*Pingreq, error) {
	return &Pingreq{}, nil
}

// Pingresp represents a PINGRESP packet, the broker's reply to PINGREQ.
type Pingresp struct{}

// Type returns TypePingresp.
func (p *Pingresp) Type() Type {
	return TypePingresp
}

// EncodedLen returns 0: PINGRESP has no payload.
func (p *Pingresp) EncodedLen() int {
	return 0
}

// Encode appends nothing.
func (p *Pingresp) Encode(dst []byte) []byte {
	return dst
}

// DecodePingresp decodes a PINGRESP payload. Any payload bytes are ignored.
func DecodePingresp(_ []byte) (*Pingresp, error) {
	return &Pingresp{}, nil
}

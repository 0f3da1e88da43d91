package packet

// Puback represents a PUBACK packet. It carries no payload; the
// acknowledged message is identified by the frame's msg_id.
type Puback struct{}

// Type returns TypePuback.
func (p *Puback) Type() Type {
	return TypePuback
}

// EncodedLen returns 0: PUBACK has no payload.
func (p *Puback) EncodedLen() int {
	return 0
}

// Encode appends nothing.
func (p *Puback) Encode(dst []byte) []byte {
	return dst
}

// DecodePuback decodes a PUBACK payload. Any payload bytes are ignored.
func DecodePuback(_ []byte) (*Puback, error) {
	return &Puback{}, nil
}

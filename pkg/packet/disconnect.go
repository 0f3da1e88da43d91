package packet

// Disconnect represents a DISCONNECT packet. It carries no payload.
type Disconnect struct{}

// Type returns TypeDisconnect.
func (d *Disconnect) Type() Type {
	return TypeDisconnect
}

// EncodedLen returns 0: DISCONNECT has no payload.
func (d *Disconnect) EncodedLen() int {
	return 0
}

// Encode appends nothing.
func (d *Disconnect) Encode(dst []byte) []byte {
	return dst
}

// DecodeDisconnect decodes a DISCONNECT payload. Any payload bytes are ignored.
func DecodeDisconnect(_ []byte) (*Disconnect, error) {
	return &Disconnect{}, nil
}

package packet

const (
	// HeaderLen is the fixed frame header size:
	// length(1) | type(1) | msg_id(2).
	HeaderLen = 4

	// MaxFrameLen is the largest encodable frame, header included.
	// The header's single-byte length field is the binding constraint on
	// all payload sizes.
	MaxFrameLen = 255
)

// Frame is the outer wire envelope: a 16-bit sequence identifier plus
// exactly one Packet. One frame per datagram.
type Frame struct {
	MsgID  uint16
	Packet Packet
}

// NewFrame creates a frame carrying pkt.
func NewFrame(msgID uint16, pkt Packet) *Frame {
	return &Frame{MsgID: msgID, Packet: pkt}
}

// EncodedLen returns the total encoded frame size, header included.
func (f *Frame) EncodedLen() int {
	return HeaderLen + f.Packet.EncodedLen()
}

// Encode encodes the frame into a freshly allocated buffer.
// Returns FrameTooLargeError if the total length does not fit the
// single-byte length header.
func (f *Frame) Encode() ([]byte, error) {
	total := f.EncodedLen()
	if total > MaxFrameLen {
		return nil, &FrameTooLargeError{Len: total}
	}

	buf := make([]byte, 0, total)
	buf = append(buf, byte(total))
	buf = append(buf, byte(f.Packet.Type()))
	buf = AppendUint16(buf, f.MsgID)
	return f.Packet.Encode(buf), nil
}

// DecodeFrame decodes one frame from buf.
//
// The buffer may be longer than the declared frame length; trailing bytes
// are ignored so a full receive buffer can be passed in as-is. A buffer
// shorter than the declared length is rejected.
func DecodeFrame(buf []byte) (*Frame, error) {
	if len(buf) < HeaderLen {
		return nil, &BufferTooShortError{Expected: HeaderLen, Actual: len(buf)}
	}

	length := int(buf[0])
	if len(buf) < length {
		return nil, &BufferTooShortError{Expected: length, Actual: len(buf)}
	}
	if length < HeaderLen {
		return nil, &MalformedPacketError{Reason: "declared length shorter than header"}
	}

	t := Type(buf[1])
	if !t.Valid() {
		return nil, &InvalidTypeError{Value: buf[1]}
	}

	msgID, err := ReadUint16(buf, 2)
	if err != nil {
		return nil, err
	}

	pkt, err := decodePayload(t, buf[HeaderLen:length])
	if err != nil {
		return nil, err
	}

	return &Frame{MsgID: msgID, Packet: pkt}, nil
}

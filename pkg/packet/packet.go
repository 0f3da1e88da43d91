package packet

// Packet is the interface implemented by all nine UDPMQ control packets.
// It is the sum type carried inside a Frame: Type is the dispatch tag the
// frame layer uses to select both the wire type byte and the decode branch.
type Packet interface {
	// Type returns the packet type.
	Type() Type

	// EncodedLen returns the exact number of bytes Encode will append.
	EncodedLen() int

	// Encode appends the packet payload to dst and returns the extended
	// buffer. Encoding is total; size limits are the caller's concern.
	Encode(dst []byte) []byte
}

// decodePayload dispatches to the decoder for t. payload is exactly the
// frame payload slice, already stripped of the header.
func decodePayload(t Type, payload []byte) (Packet, error) {
	switch t {
	case TypeConnect:
		return DecodeConnect(payload)
	case TypeConnack:
		return DecodeConnack(payload)
	case TypePublish:
		return DecodePublish(payload)
	case TypePuback:
		return DecodePuback(payload)
	case TypeSubscribe:
		return DecodeSubscribe(payload)
	case TypeSuback:
		return DecodeSuback(payload)
	case TypePingreq:
		return DecodePingreq(payload)
	case TypePingresp:
		return DecodePingresp(payload)
	case TypeDisconnect:
		return DecodeDisconnect(payload)
	default:
		return nil, &InvalidTypeError{Value: byte(t)}
	}
}

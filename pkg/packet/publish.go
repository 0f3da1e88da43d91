package packet

// Publish represents a PUBLISH packet.
//
// Wire layout: flags(1) | topic(string) | payload(remaining bytes).
// The payload has no length prefix; it is everything after the topic, so
// its size is bounded only by the frame's single-byte length ceiling.
type Publish struct {
	Topic   string
	QoS     QoS
	Retain  bool
	Payload []byte
}

// NewPublish creates a PUBLISH packet with QoS 0 and no retain flag.
func NewPublish(topic string, payload []byte) *Publish {
	return &Publish{
		Topic:   topic,
		Payload: payload,
	}
}

// Type returns TypePublish.
func (p *Publish) Type() Type {
	return TypePublish
}

// flags returns the publish flags byte.
func (p *Publish) flags() byte {
	flags := byte(p.QoS) << publishQoSShift
	if p.Retain {
		flags |= publishFlagRetain
	}
	return flags
}

// EncodedLen returns the exact encoded payload size.
func (p *Publish) EncodedLen() int {
	return 1 + 2 + len(p.Topic) + len(p.Payload)
}

// Encode appends the PUBLISH payload to dst.
func (p *Publish) Encode(dst []byte) []byte {
	dst = append(dst, p.flags())
	dst = AppendString(dst, p.Topic)
	return append(dst, p.Payload...)
}

// DecodePublish decodes a PUBLISH payload.
func DecodePublish(buf []byte) (*Publish, error) {
	if len(buf) == 0 {
		return nil, &BufferTooShortError{Expected: 1, Actual: 0}
	}

	flags := buf[0]
	qos := QoS((flags >> publishQoSShift) & publishQoSMask)
	if !qos.Valid() {
		return nil, &InvalidQoSError{Value: byte(qos)}
	}

	topic, off, err := ReadString(buf, 1)
	if err != nil {
		return nil, err
	}

	p := &Publish{
		Topic:  topic,
		QoS:    qos,
		Retain: flags&publishFlagRetain != 0,
	}
	if off < len(buf) {
		p.Payload = make([]byte, len(buf)-off)
		copy(p.Payload, buf[off:])
	}
	return p, nil
}

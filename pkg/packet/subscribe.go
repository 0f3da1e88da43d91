package packet

// Filter is a single (topic filter, QoS) pair inside a SUBSCRIBE packet.
type Filter struct {
	Topic string
	QoS   QoS
}

// Subscribe represents a SUBSCRIBE packet.
//
// Wire layout: filter_count(1) | repeated{ topic(string) | qos(1) }.
// Filter order is significant: the broker's SUBACK answers one return
// code per filter in the same order.
type Subscribe struct {
	Filters []Filter
}

// NewSubscribe creates a SUBSCRIBE packet for the given filters.
func NewSubscribe(filters ...Filter) *Subscribe {
	return &Subscribe{Filters: filters}
}

// Type returns TypeSubscribe.
func (s *Subscribe) Type() Type {
	return TypeSubscribe
}

// EncodedLen returns the exact encoded payload size.
func (s *Subscribe) EncodedLen() int {
	n := 1
	for _, f := range s.Filters {
		n += 2 + len(f.Topic) + 1
	}
	return n
}

// Encode appends the SUBSCRIBE payload to dst.
// Callers must not pass more than 255 filters; the count prefix is a
// single byte and the frame ceiling bounds it long before that anyway.
func (s *Subscribe) Encode(dst []byte) []byte {
	dst = append(dst, byte(len(s.Filters)))
	for _, f := range s.Filters {
		dst = AppendString(dst, f.Topic)
		dst = append(dst, byte(f.QoS))
	}
	return dst
}

// DecodeSubscribe decodes a SUBSCRIBE payload.
func DecodeSubscribe(buf []byte) (*Subscribe, error) {
	if len(buf) == 0 {
		return nil, &BufferTooShortError{Expected: 1, Actual: 0}
	}

	count := int(buf[0])
	filters := make([]Filter, 0, count)
	off := 1

	for i := 0; i < count; i++ {
		topic, next, err := ReadString(buf, off)
		if err != nil {
			return nil, err
		}
		if len(buf) <= next {
			return nil, &BufferTooShortError{Expected: next + 1, Actual: len(buf)}
		}
		qos := QoS(buf[next])
		if !qos.Valid() {
			return nil, &InvalidQoSError{Value: buf[next]}
		}
		filters = append(filters, Filter{Topic: topic, QoS: qos})
		off = next + 1
	}

	return &Subscribe{Filters: filters}, nil
}

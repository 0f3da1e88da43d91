package packet

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// roundtrip encodes a frame, decodes the bytes, and checks structural
// equality of the result.
func roundtrip(t *testing.T, msgID uint16, pkt Packet) *Frame {
	t.Helper()

	frame := NewFrame(msgID, pkt)
	encoded, err := frame.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(encoded) != frame.EncodedLen() {
		t.Fatalf("encoded %d bytes, EncodedLen reports %d", len(encoded), frame.EncodedLen())
	}

	decoded, err := DecodeFrame(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.MsgID != msgID {
		t.Errorf("msg_id: got %d, want %d", decoded.MsgID, msgID)
	}
	if !reflect.DeepEqual(decoded.Packet, pkt) {
		t.Errorf("packet mismatch:\n got  %#v\n want %#v", decoded.Packet, pkt)
	}
	return decoded
}

func TestRoundtripConnect(t *testing.T) {
	connect := NewConnect("test-client")
	connect.KeepAlive = 120
	connect.SetCredentials("user", []byte("pass"))

	roundtrip(t, 1, connect)
}

func TestRoundtripConnectMinimal(t *testing.T) {
	roundtrip(t, 7, NewConnect("id1"))
}

func TestRoundtripConnack(t *testing.T) {
	roundtrip(t, 2, NewConnack(true, ConnectAccepted))
	roundtrip(t, 3, NewConnack(false, ConnectNotAuthorized))
}

func TestRoundtripPublish(t *testing.T) {
	pub := NewPublish("sensor/temp", []byte("25.5"))
	pub.QoS = QoS1
	pub.Retain = true

	decoded := roundtrip(t, 42, pub)

	p := decoded.Packet.(*Publish)
	if p.QoS != QoS1 || !p.Retain {
		t.Errorf("flags not preserved: qos=%v retain=%v", p.QoS, p.Retain)
	}
}

func TestRoundtripPublishEmptyPayload(t *testing.T) {
	roundtrip(t, 5, NewPublish("a/b", nil))
}

func TestRoundtripPublishBinaryPayload(t *testing.T) {
	// Payload bytes are opaque: not UTF-8, including NUL and 0xFF.
	pub := NewPublish("bin", []byte{0x00, 0xFF, 0xFE, '\n', 0x80})
	pub.QoS = QoS2
	roundtrip(t, 6, pub)
}

func TestRoundtripSubscribe(t *testing.T) {
	sub := NewSubscribe(
		Filter{Topic: "home/+/temp", QoS: QoS1},
		Filter{Topic: "office/#", QoS: QoS0},
	)

	decoded := roundtrip(t, 100, sub)

	s := decoded.Packet.(*Subscribe)
	if s.Filters[0].Topic != "home/+/temp" || s.Filters[1].Topic != "office/#" {
		t.Errorf("filter order not preserved: %+v", s.Filters)
	}
}

func TestRoundtripSuback(t *testing.T) {
	roundtrip(t, 100, NewSuback(SubAckSuccessQoS1, SubAckSuccessQoS0, SubAckFailure))
}

func TestRoundtripZeroPayloadPackets(t *testing.T) {
	roundtrip(t, 9, &Puback{})
	roundtrip(t, 10, &Pingreq{})
	roundtrip(t, 11, &Pingresp{})
	roundtrip(t, 12, &Disconnect{})
}

func TestEncodedLenMatchesEncode(t *testing.T) {
	connect := NewConnect("client")
	connect.SetCredentials("u", []byte("p"))

	packets := []Packet{
		connect,
		NewConnect(""),
		NewConnack(true, ConnectServerUnavailable),
		NewPublish("t", []byte("payload")),
		NewPublish("", nil),
		NewSubscribe(Filter{Topic: "a", QoS: QoS2}),
		NewSubscribe(),
		NewSuback(SubAckFailure),
		NewSuback(),
		&Puback{},
		&Pingreq{},
		&Pingresp{},
		&Disconnect{},
	}

	for _, pkt := range packets {
		got := len(pkt.Encode(nil))
		if got != pkt.EncodedLen() {
			t.Errorf("%s: encoded %d bytes, EncodedLen reports %d", pkt.Type(), got, pkt.EncodedLen())
		}
	}
}

func TestDecodeInvalidType(t *testing.T) {
	_, err := DecodeFrame([]byte{4, 0xFF, 0, 0})

	var invalid *InvalidTypeError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidTypeError", err)
	}
	if invalid.Value != 0xFF {
		t.Errorf("got value 0x%02X, want 0xFF", invalid.Value)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	// Claims length 10, supplies 4.
	_, err := DecodeFrame([]byte{10, 0x01, 0, 0})

	var short *BufferTooShortError
	if !errors.As(err, &short) {
		t.Fatalf("got %v, want BufferTooShortError", err)
	}
	if short.Expected != 10 || short.Actual != 4 {
		t.Errorf("got expected=%d actual=%d, want expected=10 actual=4", short.Expected, short.Actual)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, err := DecodeFrame([]byte{4, 0x07})

	var short *BufferTooShortError
	if !errors.As(err, &short) {
		t.Fatalf("got %v, want BufferTooShortError", err)
	}
	if short.Expected != HeaderLen || short.Actual != 2 {
		t.Errorf("got expected=%d actual=%d, want expected=4 actual=2", short.Expected, short.Actual)
	}
}

func TestDecodeUndersizedLength(t *testing.T) {
	// Declared length 2 cannot even cover the header.
	_, err := DecodeFrame([]byte{2, 0x07, 0, 0})

	var malformed *MalformedPacketError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedPacketError", err)
	}
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	// A receive buffer is usually longer than the frame it holds; decode
	// must honor the declared length and ignore the rest.
	frame := NewFrame(3, NewPublish("t", []byte("x")))
	encoded, err := frame.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	padded := make([]byte, 0, len(encoded)+16)
	padded = append(padded, encoded...)
	for i := 0; i < 16; i++ {
		padded = append(padded, 0xAA)
	}

	decoded, err := DecodeFrame(padded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	p := decoded.Packet.(*Publish)
	if string(p.Payload) != "x" {
		t.Errorf("trailing bytes leaked into payload: %q", p.Payload)
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	pub := NewPublish("t", []byte(strings.Repeat("x", 300)))

	_, err := NewFrame(1, pub).Encode()

	var tooLarge *FrameTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("got %v, want FrameTooLargeError", err)
	}
	if tooLarge.Len != HeaderLen+pub.EncodedLen() {
		t.Errorf("got len %d, want %d", tooLarge.Len, HeaderLen+pub.EncodedLen())
	}
}

func TestEncodeFrameAtLimit(t *testing.T) {
	// 255 bytes total is the largest legal frame.
	payloadLen := MaxFrameLen - HeaderLen - (1 + 2 + 1) // flags + topic prefix + topic "t"
	pub := NewPublish("t", make([]byte, payloadLen))

	encoded, err := NewFrame(1, pub).Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if len(encoded) != MaxFrameLen {
		t.Errorf("got %d bytes, want %d", len(encoded), MaxFrameLen)
	}
	if encoded[0] != 0xFF {
		t.Errorf("length byte: got 0x%02X, want 0xFF", encoded[0])
	}

	if _, err := DecodeFrame(encoded); err != nil {
		t.Errorf("decode of max-size frame failed: %v", err)
	}
}

func TestWireLayout(t *testing.T) {
	// Byte-exact layout check: the wire format is the system boundary.
	pub := NewPublish("ab", []byte{0x01})
	pub.QoS = QoS1
	pub.Retain = true

	encoded, err := NewFrame(0x0102, pub).Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	want := []byte{
		10,         // total length
		0x03,       // PUBLISH
		0x01, 0x02, // msg_id
		0x03,       // flags: retain | qos1<<1
		0x00, 0x02, // topic length
		'a', 'b',
		0x01, // payload
	}
	if len(encoded) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(encoded), len(want))
	}
	for i := range want {
		if encoded[i] != want[i] {
			t.Errorf("byte %d: got 0x%02X, want 0x%02X", i, encoded[i], want[i])
		}
	}
}

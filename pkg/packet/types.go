// Package packet implements the UDPMQ wire codec: nine control packet
// types and the single-datagram frame envelope that carries them.
// Encode and decode are pure functions of their input and are safe for
// concurrent use.
package packet

// Type represents a UDPMQ control packet type.
type Type byte

// Control packet types. The wire carries exactly these nine values;
// anything else is rejected at decode time.
const (
	TypeConnect    Type = 0x01 // Client request to connect
	TypeConnack    Type = 0x02 // Connect acknowledgment
	TypePublish    Type = 0x03 // Publish message
	TypePuback     Type = 0x04 // Publish acknowledgment
	TypeSubscribe  Type = 0x05 // Subscribe request
	TypeSuback     Type = 0x06 // Subscribe acknowledgment
	TypePingreq    Type = 0x07 // PING request
	TypePingresp   Type = 0x08 // PING response
	TypeDisconnect Type = 0x09 // Disconnect notification
)

// String returns the string representation of the packet type.
func (t Type) String() string {
	switch t {
	case TypeConnect:
		return "CONNECT"
	case TypeConnack:
		return "CONNACK"
	case TypePublish:
		return "PUBLISH"
	case TypePuback:
		return "PUBACK"
	case TypeSubscribe:
		return "SUBSCRIBE"
	case TypeSuback:
		return "SUBACK"
	case TypePingreq:
		return "PINGREQ"
	case TypePingresp:
		return "PINGRESP"
	case TypeDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

// Valid returns true if the packet type is one of the nine defined kinds.
func (t Type) Valid() bool {
	return t >= TypeConnect && t <= TypeDisconnect
}

// QoS represents a quality of service level.
type QoS byte

const (
	QoS0 QoS = 0 // At most once delivery
	QoS1 QoS = 1 // At least once delivery
	QoS2 QoS = 2 // Exactly once delivery
)

// Valid returns true if the QoS level is valid.
func (q QoS) Valid() bool {
	return q <= QoS2
}

// String returns the string representation of the QoS level.
func (q QoS) String() string {
	switch q {
	case QoS0:
		return "QoS0"
	case QoS1:
		return "QoS1"
	case QoS2:
		return "QoS2"
	default:
		return "invalid"
	}
}

// ConnectReturnCode is the result carried in a CONNACK packet.
type ConnectReturnCode byte

const (
	ConnectAccepted           ConnectReturnCode = 0x00
	ConnectUnacceptableProto  ConnectReturnCode = 0x01
	ConnectIdentifierRejected ConnectReturnCode = 0x02
	ConnectServerUnavailable  ConnectReturnCode = 0x03
	ConnectBadCredentials     ConnectReturnCode = 0x04
	ConnectNotAuthorized      ConnectReturnCode = 0x05
)

// Valid returns true if the return code is a defined value.
func (c ConnectReturnCode) Valid() bool {
	return c <= ConnectNotAuthorized
}

// String returns the string representation of the return code.
func (c ConnectReturnCode) String() string {
	switch c {
	case ConnectAccepted:
		return "accepted"
	case ConnectUnacceptableProto:
		return "unacceptable protocol"
	case ConnectIdentifierRejected:
		return "identifier rejected"
	case ConnectServerUnavailable:
		return "server unavailable"
	case ConnectBadCredentials:
		return "bad credentials"
	case ConnectNotAuthorized:
		return "not authorized"
	default:
		return "unknown"
	}
}

// SubAckReturnCode is the per-filter result carried in a SUBACK packet.
type SubAckReturnCode byte

const (
	SubAckSuccessQoS0 SubAckReturnCode = 0x00
	SubAckSuccessQoS1 SubAckReturnCode = 0x01
	SubAckSuccessQoS2 SubAckReturnCode = 0x02
	SubAckFailure     SubAckReturnCode = 0x80
)

// Valid returns true if the return code is a defined value.
func (c SubAckReturnCode) Valid() bool {
	return c <= SubAckSuccessQoS2 || c == SubAckFailure
}

// String returns the string representation of the return code.
func (c SubAckReturnCode) String() string {
	switch c {
	case SubAckSuccessQoS0:
		return "granted QoS0"
	case SubAckSuccessQoS1:
		return "granted QoS1"
	case SubAckSuccessQoS2:
		return "granted QoS2"
	case SubAckFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// CONNECT flag bits. Bit 0 is reserved and must be zero on the wire.
const (
	connectFlagCleanSession = 1 << 1
	connectFlagPassword     = 1 << 6
	connectFlagUsername     = 1 << 7
)

// PUBLISH flag bits: bit 0 is RETAIN, bits 1-2 carry the QoS level.
const (
	publishFlagRetain = 1 << 0
	publishQoSShift   = 1
	publishQoSMask    = 0x03
)

package console

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// Mode selects how inbound datagrams are rendered.
type Mode int

const (
	// ModeAuto tries protocol frame, then UTF-8 text, then hex.
	ModeAuto Mode = iota
	// ModeProtocol renders decoded protocol frames, hex otherwise.
	ModeProtocol
	// ModeText renders UTF-8 text, hex otherwise.
	ModeText
	// ModeHex always renders hex.
	ModeHex
)

// String returns the mode's display name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeProtocol:
		return "mqtt"
	case ModeText:
		return "text"
	case ModeHex:
		return "hex"
	default:
		return "unknown"
	}
}

// Next cycles to the following mode.
func (m Mode) Next() Mode {
	return (m + 1) % 4
}

// Format renders a datagram in auto mode.
func Format(data []byte) string {
	return FormatForMode(ModeAuto, data)
}

// FormatForMode renders a datagram honoring the selected mode.
func FormatForMode(mode Mode, data []byte) string {
	switch mode {
	case ModeHex:
		return formatHex(data)
	case ModeProtocol:
		if s, ok := formatFrame(data); ok {
			return s
		}
		return formatHex(data)
	case ModeText:
		if s, ok := formatText(data); ok {
			return s
		}
		return formatHex(data)
	default:
		if s, ok := formatFrame(data); ok {
			return s
		}
		if s, ok := formatText(data); ok {
			return s
		}
		return formatHex(data)
	}
}

// formatHex renders up to 24 bytes as space-separated hex.
func formatHex(data []byte) string {
	var b strings.Builder
	n := min(len(data), 24)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", data[i])
	}
	if len(data) > 24 {
		b.WriteString("...")
	}
	return b.String()
}

// formatText renders valid UTF-8 payloads, truncated past 50 bytes.
func formatText(data []byte) (string, bool) {
	if !utf8.Valid(data) {
		return "", false
	}
	s := string(data)
	if len(s) > 50 {
		return s[:47] + "...", true
	}
	return s, true
}

// formatFrame renders a decodable protocol frame as one summary line.
func formatFrame(data []byte) (string, bool) {
	frame, err := packet.DecodeFrame(data)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("#%d %s", frame.MsgID, FormatPacket(frame.Packet)), true
}

// FormatPacket renders a packet as a one-line summary.
func FormatPacket(pkt packet.Packet) string {
	switch p := pkt.(type) {
	case *packet.Connect:
		return fmt.Sprintf("CONNECT client=%s ka=%d", p.ClientID, p.KeepAlive)
	case *packet.Connack:
		return fmt.Sprintf("CONNACK %s session=%t", p.ReturnCode, p.SessionPresent)
	case *packet.Publish:
		return fmt.Sprintf("PUBLISH %s qos=%d %q", p.Topic, p.QoS, payloadPreview(p.Payload))
	case *packet.Puback:
		return "PUBACK"
	case *packet.Subscribe:
		topics := make([]string, len(p.Filters))
		for i, f := range p.Filters {
			topics[i] = f.Topic
		}
		return fmt.Sprintf("SUBSCRIBE [%s]", strings.Join(topics, ", "))
	case *packet.Suback:
		codes := make([]string, len(p.ReturnCodes))
		for i, c := range p.ReturnCodes {
			codes[i] = c.String()
		}
		return fmt.Sprintf("SUBACK [%s]", strings.Join(codes, ", "))
	case *packet.Pingreq:
		return "PING"
	case *packet.Pingresp:
		return "PONG"
	case *packet.Disconnect:
		return "DISCONNECT"
	default:
		return pkt.Type().String()
	}
}

// payloadPreview truncates payloads past 30 bytes for display.
func payloadPreview(payload []byte) string {
	s := string(payload)
	if len(s) > 30 {
		return s[:27] + "..."
	}
	return s
}

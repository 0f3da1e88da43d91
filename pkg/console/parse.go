// Package console implements the interactive command language of the udd
// tool: a compact grammar for building protocol packets, escape handling
// for text payloads and human-readable frame formatting.
package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// ParseCommand parses one protocol command line into a packet.
// The caller wraps the packet in a frame with its own message id.
//
// Grammar:
//
//	connect <client_id> [keepalive=N|ka=N] [user=X] [pass=X] [clean=true|1]
//	pub|publish <topic> <payload...> [qos=0|1|2] [retain]
//	sub|subscribe <t1>[,<t2>...] [qos=0|1|2]
//	ping
//	disconnect|disc
//	puback
//	connack [accepted|rejected|unauthorized|unavailable] [session=true|1]
//	suback <0|1|2|fail|failure>...
//	pingresp|pong
func ParseCommand(input string) (packet.Packet, error) {
	input = strings.TrimSpace(input)
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "connect":
		return parseConnect(rest)
	case "pub", "publish":
		return parsePublish(rest)
	case "sub", "subscribe":
		return parseSubscribe(rest)
	case "ping":
		return &packet.Pingreq{}, nil
	case "disconnect", "disc":
		return &packet.Disconnect{}, nil
	case "puback":
		return &packet.Puback{}, nil
	case "connack":
		return parseConnack(rest)
	case "suback":
		return parseSuback(rest)
	case "pingresp", "pong":
		return &packet.Pingresp{}, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", cmd)
	}
}

func parseConnect(rest string) (packet.Packet, error) {
	parts := strings.Fields(rest)

	clientID := "id1"
	if len(parts) > 0 && !strings.Contains(parts[0], "=") {
		clientID = parts[0]
		parts = parts[1:]
	}
	conn := packet.NewConnect(clientID)

	for _, part := range parts {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch k {
		case "keepalive", "ka":
			ka, err := strconv.ParseUint(v, 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid keepalive: %s", v)
			}
			conn.KeepAlive = uint16(ka)
		case "user":
			conn.Username = v
			conn.UsernameFlag = true
		case "pass":
			conn.Password = []byte(v)
			conn.PasswordFlag = true
		case "clean":
			conn.CleanSession = v == "true" || v == "1"
		default:
			return nil, fmt.Errorf("unknown option: %s", k)
		}
	}
	return conn, nil
}

func parsePublish(rest string) (packet.Packet, error) {
	topic, remainder, ok := strings.Cut(rest, " ")
	if !ok {
		return nil, fmt.Errorf("pub|publish <topic> <payload> [qos=0|1|2] [retain]")
	}

	pub := packet.NewPublish(topic, nil)
	var payloadParts []string

	for _, part := range strings.Fields(remainder) {
		if k, v, isOpt := strings.Cut(part, "="); isOpt && k == "qos" {
			qos, err := parseQoS(v)
			if err != nil {
				return nil, err
			}
			pub.QoS = qos
		} else if part == "retain" {
			pub.Retain = true
		} else {
			payloadParts = append(payloadParts, part)
		}
	}

	pub.Payload = ParseTextWithEscapes(strings.Join(payloadParts, " "))
	return pub, nil
}

func parseSubscribe(rest string) (packet.Packet, error) {
	qos := packet.QoS0
	var topics []string

	for _, part := range strings.Fields(rest) {
		if k, v, isOpt := strings.Cut(part, "="); isOpt {
			if k == "qos" {
				parsed, err := parseQoS(v)
				if err != nil {
					return nil, err
				}
				qos = parsed
			}
		} else {
			topics = append(topics, strings.Split(part, ",")...)
		}
	}

	if len(topics) == 0 {
		return nil, fmt.Errorf("subscribe requires at least one topic")
	}

	filters := make([]packet.Filter, len(topics))
	for i, t := range topics {
		filters[i] = packet.Filter{Topic: t, QoS: qos}
	}
	return &packet.Subscribe{Filters: filters}, nil
}

func parseConnack(rest string) (packet.Packet, error) {
	code := packet.ConnectAccepted
	session := false

	for _, part := range strings.Fields(rest) {
		switch {
		case part == "accepted":
			code = packet.ConnectAccepted
		case part == "rejected" || part == "unauthorized":
			code = packet.ConnectNotAuthorized
		case part == "unavailable":
			code = packet.ConnectServerUnavailable
		case strings.HasPrefix(part, "session="):
			session = strings.HasSuffix(part, "true") || strings.HasSuffix(part, "1")
		}
	}
	return packet.NewConnack(session, code), nil
}

func parseSuback(rest string) (packet.Packet, error) {
	var codes []packet.SubAckReturnCode
	for _, s := range strings.Fields(rest) {
		switch s {
		case "0":
			codes = append(codes, packet.SubAckSuccessQoS0)
		case "1":
			codes = append(codes, packet.SubAckSuccessQoS1)
		case "2":
			codes = append(codes, packet.SubAckSuccessQoS2)
		case "fail", "failure":
			codes = append(codes, packet.SubAckFailure)
		default:
			return nil, fmt.Errorf("invalid suback code: %s", s)
		}
	}
	return &packet.Suback{ReturnCodes: codes}, nil
}

func parseQoS(v string) (packet.QoS, error) {
	switch v {
	case "0":
		return packet.QoS0, nil
	case "1":
		return packet.QoS1, nil
	case "2":
		return packet.QoS2, nil
	default:
		return 0, fmt.Errorf("qos must be 0, 1, or 2")
	}
}

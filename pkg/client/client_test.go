package client

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// fakeBroker answers protocol requests on a loopback UDP socket.
type fakeBroker struct {
	conn net.PacketConn
	done chan struct{}
}

func startFakeBroker(t *testing.T) *fakeBroker {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	fb := &fakeBroker{conn: conn, done: make(chan struct{})}
	go fb.serve()
	t.Cleanup(func() {
		close(fb.done)
		conn.Close()
	})
	return fb
}

func (fb *fakeBroker) addr() string { return fb.conn.LocalAddr().String() }

func (fb *fakeBroker) serve() {
	buf := make([]byte, 4096)
	for {
		n, raddr, err := fb.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		frame, err := packet.DecodeFrame(buf[:n])
		if err != nil {
			continue
		}

		var reply packet.Packet
		switch pkt := frame.Packet.(type) {
		case *packet.Connect:
			reply = packet.NewConnack(false, packet.ConnectAccepted)
		case *packet.Publish:
			if pkt.QoS > packet.QoS0 {
				reply = &packet.Puback{}
			}
			// Echo the publish back, as a subscribed broker would.
			echo, _ := packet.NewFrame(1000, pkt).Encode()
			fb.conn.WriteTo(echo, raddr)
		case *packet.Subscribe:
			codes := make([]packet.SubAckReturnCode, len(pkt.Filters))
			for i, f := range pkt.Filters {
				codes[i] = packet.SubAckReturnCode(f.QoS)
			}
			reply = &packet.Suback{ReturnCodes: codes}
		case *packet.Pingreq:
			reply = &packet.Pingresp{}
		}

		if reply != nil {
			data, err := packet.NewFrame(frame.MsgID, reply).Encode()
			if err != nil {
				continue
			}
			fb.conn.WriteTo(data, raddr)
		}
	}
}

func dialFake(t *testing.T, fb *fakeBroker, handler Handler) *Client {
	t.Helper()
	c, err := Dial(Config{Target: fb.addr(), Handler: handler})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestConnectWaitsForConnack(t *testing.T) {
	fb := startFakeBroker(t)
	c := dialFake(t, fb, nil)

	ack, err := c.Connect(testContext(t), packet.NewConnect("test-client"))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if ack.ReturnCode != packet.ConnectAccepted {
		t.Errorf("got return code %v, want accepted", ack.ReturnCode)
	}
}

func TestPublishQoS1WaitsForPuback(t *testing.T) {
	fb := startFakeBroker(t)
	c := dialFake(t, fb, nil)

	pkt := packet.NewPublish("a/b", []byte("x"))
	pkt.QoS = packet.QoS1
	if err := c.Publish(testContext(t), pkt); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestSubscribeReturnsGrants(t *testing.T) {
	fb := startFakeBroker(t)
	c := dialFake(t, fb, nil)

	ack, err := c.Subscribe(testContext(t), packet.NewSubscribe(
		packet.Filter{Topic: "home/+/temp", QoS: packet.QoS1},
		packet.Filter{Topic: "office/#", QoS: packet.QoS0},
	))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(ack.ReturnCodes) != 2 {
		t.Fatalf("got %d codes, want 2", len(ack.ReturnCodes))
	}
	if ack.ReturnCodes[0] != packet.SubAckSuccessQoS1 {
		t.Errorf("got code 0x%02X, want qos 1 grant", ack.ReturnCodes[0])
	}
}

func TestPing(t *testing.T) {
	fb := startFakeBroker(t)
	c := dialFake(t, fb, nil)

	if err := c.Ping(testContext(t)); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestHandlerReceivesUnsolicitedFrames(t *testing.T) {
	fb := startFakeBroker(t)

	got := make(chan *packet.Frame, 1)
	c := dialFake(t, fb, func(frame *packet.Frame) {
		if frame.Packet.Type() == packet.TypePublish {
			got <- frame
		}
	})

	// The fake broker echoes publishes back as unsolicited traffic.
	if err := c.Publish(testContext(t), packet.NewPublish("a/b", []byte("hello"))); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case frame := <-got:
		pub := frame.Packet.(*packet.Publish)
		if !bytes.Equal(pub.Payload, []byte("hello")) {
			t.Errorf("got payload %q", pub.Payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never received the echoed publish")
	}
}

func TestRequestTimeout(t *testing.T) {
	// A listener that never answers.
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	c, err := Dial(Config{Target: conn.LocalAddr().String()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := c.Ping(ctx); err != context.DeadlineExceeded {
		t.Errorf("got %v, want deadline exceeded", err)
	}
}

func TestMsgIDSkipsZero(t *testing.T) {
	fb := startFakeBroker(t)
	c := dialFake(t, fb, nil)

	if id := c.NextMsgID(); id != 1 {
		t.Errorf("first id = %d, want 1", id)
	}

	// Force wraparound past 0xFFFF; zero must be skipped.
	c.msgID.Store(0xFFFF)
	if id := c.NextMsgID(); id == 0 {
		t.Error("allocated message id zero")
	}
}

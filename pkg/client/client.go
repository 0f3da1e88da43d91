// Package client provides a UDPMQ client: typed request/response helpers
// over a single UDP socket with a background receive loop.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/bromq-dev/udpmq/pkg/packet"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("client closed")

// Handler receives frames that are not answers to a pending request:
// routed publishes, retained deliveries and unsolicited traffic.
type Handler func(frame *packet.Frame)

// Config configures a client.
type Config struct {
	// Target is the broker address, host:port.
	Target string

	// Bind is an optional local address to bind the socket to.
	Bind string

	// Handler receives unsolicited inbound frames. Optional.
	Handler Handler

	// RawHandler observes every inbound datagram before decoding,
	// including ones that are not valid frames. Optional.
	RawHandler func(data []byte)

	// ReadBufferSize is the receive buffer size (default: 4096).
	ReadBufferSize int

	// Logger receives client events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a UDPMQ client over a connected UDP socket.
type Client struct {
	conn       *net.UDPConn
	log        *slog.Logger
	handler    Handler
	rawHandler func(data []byte)

	msgID atomic.Uint32

	mu      sync.Mutex
	waiters map[waiterKey]chan *packet.Frame

	closed chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// waiterKey identifies a pending request by its expected reply.
type waiterKey struct {
	t  packet.Type
	id uint16
}

// Dial connects to a broker and starts the receive loop.
func Dial(cfg Config) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", cfg.Target)
	if err != nil {
		return nil, fmt.Errorf("resolve target: %w", err)
	}

	var laddr *net.UDPAddr
	if cfg.Bind != "" {
		laddr, err = net.ResolveUDPAddr("udp", cfg.Bind)
		if err != nil {
			return nil, fmt.Errorf("resolve bind address: %w", err)
		}
	}

	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	bufSize := cfg.ReadBufferSize
	if bufSize == 0 {
		bufSize = 4096
	}

	c := &Client{
		conn:       conn,
		log:        log,
		handler:    cfg.Handler,
		rawHandler: cfg.RawHandler,
		waiters:    make(map[waiterKey]chan *packet.Frame),
		closed:     make(chan struct{}),
	}

	c.wg.Add(1)
	go c.recvLoop(bufSize)

	return c, nil
}

// Close stops the receive loop and closes the socket.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		err = c.conn.Close()
		c.wg.Wait()
	})
	return err
}

// LocalAddr returns the local socket address.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// NextMsgID allocates the next message identifier.
// Identifiers start at 1 and wrap around skipping zero.
func (c *Client) NextMsgID() uint16 {
	for {
		id := uint16(c.msgID.Add(1))
		if id != 0 {
			return id
		}
	}
}

// Send frames and sends a packet with an explicit message id.
func (c *Client) Send(msgID uint16, pkt packet.Packet) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	data, err := packet.NewFrame(msgID, pkt).Encode()
	if err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

// SendRaw sends an arbitrary datagram. Useful for wire-level testing.
func (c *Client) SendRaw(data []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	_, err := c.conn.Write(data)
	return err
}

// Connect sends a CONNECT and waits for the matching CONNACK.
func (c *Client) Connect(ctx context.Context, pkt *packet.Connect) (*packet.Connack, error) {
	frame, err := c.request(ctx, c.NextMsgID(), pkt, packet.TypeConnack)
	if err != nil {
		return nil, err
	}
	return frame.Packet.(*packet.Connack), nil
}

// Publish sends a PUBLISH. For QoS > 0 it waits for the matching PUBACK.
func (c *Client) Publish(ctx context.Context, pkt *packet.Publish) error {
	msgID := c.NextMsgID()
	if pkt.QoS == packet.QoS0 {
		return c.Send(msgID, pkt)
	}
	_, err := c.request(ctx, msgID, pkt, packet.TypePuback)
	return err
}

// Subscribe sends a SUBSCRIBE and waits for the matching SUBACK.
func (c *Client) Subscribe(ctx context.Context, pkt *packet.Subscribe) (*packet.Suback, error) {
	frame, err := c.request(ctx, c.NextMsgID(), pkt, packet.TypeSuback)
	if err != nil {
		return nil, err
	}
	return frame.Packet.(*packet.Suback), nil
}

// Ping sends a PINGREQ and waits for the matching PINGRESP.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.request(ctx, c.NextMsgID(), &packet.Pingreq{}, packet.TypePingresp)
	return err
}

// Disconnect sends a DISCONNECT. The broker does not reply.
func (c *Client) Disconnect() error {
	return c.Send(c.NextMsgID(), &packet.Disconnect{})
}

// request sends a packet and waits for a reply of the given type carrying
// the same message id.
func (c *Client) request(ctx context.Context, msgID uint16, pkt packet.Packet, reply packet.Type) (*packet.Frame, error) {
	key := waiterKey{t: reply, id: msgID}
	ch := make(chan *packet.Frame, 1)

	c.mu.Lock()
	c.waiters[key] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, key)
		c.mu.Unlock()
	}()

	if err := c.Send(msgID, pkt); err != nil {
		return nil, err
	}

	select {
	case frame := <-ch:
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, ErrClosed
	}
}

func (c *Client) recvLoop(bufSize int) {
	defer c.wg.Done()

	buf := make([]byte, bufSize)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
				c.log.Debug("read failed", "error", err)
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		if c.rawHandler != nil {
			c.rawHandler(data)
		}

		frame, err := packet.DecodeFrame(data)
		if err != nil {
			c.log.Debug("dropping undecodable datagram", "len", n, "error", err)
			continue
		}

		c.dispatch(frame)
	}
}

func (c *Client) dispatch(frame *packet.Frame) {
	key := waiterKey{t: frame.Packet.Type(), id: frame.MsgID}

	c.mu.Lock()
	ch, ok := c.waiters[key]
	if ok {
		delete(c.waiters, key)
	}
	c.mu.Unlock()

	if ok {
		ch <- frame
		return
	}

	if c.handler != nil {
		c.handler(frame)
	}
}

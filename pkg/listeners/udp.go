package listeners

import (
	"errors"
	"net"
	"sync"

	"github.com/bromq-dev/udpmq/pkg/broker"
	"github.com/bromq-dev/udpmq/pkg/packet"
)

// UDP is the primary UDPMQ listener: one protocol frame per datagram.
type UDP struct {
	id     string
	addr   string
	conn   *net.UDPConn
	wg     sync.WaitGroup
	closed chan struct{}
	mu     sync.Mutex
}

// NewUDP creates a new UDP listener.
func NewUDP(id, addr string) *UDP {
	return &UDP{
		id:     id,
		addr:   addr,
		closed: make(chan struct{}),
	}
}

// ID returns the listener ID.
func (u *UDP) ID() string {
	return u.id
}

// Addr returns the listener's address.
// Returns nil if the listener hasn't started.
func (u *UDP) Addr() net.Addr {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

// Serve starts receiving datagrams and passes them to the handler.
func (u *UDP) Serve(handler DatagramHandler) error {
	laddr, err := net.ResolveUDPAddr("udp", u.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.conn = conn
	u.mu.Unlock()

	u.wg.Add(1)
	defer u.wg.Done()

	// A frame never exceeds packet.MaxFrameLen, but read with headroom
	// so over-long datagrams surface as decode errors instead of being
	// silently truncated.
	buf := make([]byte, 4*packet.MaxFrameLen)

	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-u.closed:
				return nil
			default:
				continue
			}
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		handler.HandleDatagram(&udpEndpoint{conn: conn, raddr: raddr}, data)
	}
}

// Close stops the listener.
func (u *UDP) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	select {
	case <-u.closed:
		return errors.New("listener already closed")
	default:
		close(u.closed)
	}

	if u.conn != nil {
		u.conn.Close()
	}
	u.wg.Wait()
	return nil
}

// udpEndpoint is the return path to one UDP peer.
type udpEndpoint struct {
	conn  *net.UDPConn
	raddr *net.UDPAddr
}

var _ broker.Endpoint = (*udpEndpoint)(nil)

func (e *udpEndpoint) RemoteAddr() string {
	return "udp://" + e.raddr.String()
}

func (e *udpEndpoint) WriteDatagram(data []byte) error {
	_, err := e.conn.WriteToUDP(data, e.raddr)
	return err
}

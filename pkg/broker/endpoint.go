package broker

import (
	"sync"
	"time"
)

// Endpoint is a return path for datagrams to a single remote peer.
// Listeners construct one per source address and hand it to the broker
// alongside each received datagram.
type Endpoint interface {
	// RemoteAddr returns the peer address in a listener-specific format.
	RemoteAddr() string

	// WriteDatagram sends a single datagram to the peer.
	WriteDatagram(data []byte) error
}

// Client represents a connected client and its endpoint.
// It implements ClientInfo for hooks.
type Client struct {
	ep Endpoint

	id           string
	username     string
	cleanSession bool
	keepAlive    uint16

	mu           sync.Mutex
	lastActivity time.Time
	nextID       uint16
}

func newClient(ep Endpoint, id, username string, cleanSession bool, keepAlive uint16) *Client {
	return &Client{
		ep:           ep,
		id:           id,
		username:     username,
		cleanSession: cleanSession,
		keepAlive:    keepAlive,
		lastActivity: time.Now(),
		nextID:       1,
	}
}

// ClientID returns the client identifier.
func (c *Client) ClientID() string { return c.id }

// Username returns the username supplied at connect, or empty.
func (c *Client) Username() string { return c.username }

// RemoteAddr returns the remote address of the client's endpoint.
func (c *Client) RemoteAddr() string { return c.ep.RemoteAddr() }

// CleanSession reports whether the session is discarded on disconnect.
func (c *Client) CleanSession() bool { return c.cleanSession }

// KeepAlive returns the keep-alive interval in seconds.
func (c *Client) KeepAlive() uint16 { return c.keepAlive }

// touch records activity for keep-alive tracking.
func (c *Client) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// idle returns how long the client has been silent.
func (c *Client) idle() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastActivity)
}

// allocID returns the next message identifier for broker-originated
// packets to this client. Wraps around skipping zero.
func (c *Client) allocID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	if c.nextID == 0 {
		c.nextID = 1
	}
	return id
}

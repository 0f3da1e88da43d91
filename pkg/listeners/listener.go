// Package listeners provides transport listeners for the UDPMQ broker.
// Each listener delivers whole datagrams to a DatagramHandler together
// with an endpoint for the return path.
package listeners

import (
	"net"

	"github.com/bromq-dev/udpmq/pkg/broker"
)

// DatagramHandler consumes datagrams from listeners.
// The broker implements it.
type DatagramHandler interface {
	HandleDatagram(ep broker.Endpoint, data []byte)
}

// Listener is the interface that all transport listeners implement.
type Listener interface {
	// ID returns the unique identifier for this listener.
	ID() string

	// Addr returns the listener's address.
	Addr() net.Addr

	// Serve starts receiving datagrams and passes them to the handler.
	// This should be called in a goroutine as it blocks until Close is called.
	Serve(handler DatagramHandler) error

	// Close stops the listener.
	Close() error
}

package listeners

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bromq-dev/udpmq/pkg/broker"
)

// WebSocketConfig holds configuration for WebSocket listeners.
type WebSocketConfig struct {
	// TLSConfig enables TLS if set.
	TLSConfig *tls.Config

	// Path is the URL path to listen on. Default: "/udpmq".
	Path string

	// CheckOrigin is a function to validate the Origin header.
	// If nil, all origins are allowed.
	CheckOrigin func(r *http.Request) bool
}

// WebSocket is a WebSocket listener. Every binary message carries exactly
// one protocol frame, mirroring the one-frame-per-datagram UDP transport.
type WebSocket struct {
	id       string
	addr     string
	config   *WebSocketConfig
	server   *http.Server
	upgrader websocket.Upgrader
	handler  DatagramHandler
	wg       sync.WaitGroup
	closed   chan struct{}
	mu       sync.Mutex
}

// NewWebSocket creates a new WebSocket listener.
func NewWebSocket(id, addr string, config *WebSocketConfig) *WebSocket {
	if config == nil {
		config = &WebSocketConfig{}
	}
	if config.Path == "" {
		config.Path = "/udpmq"
	}
	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &WebSocket{
		id:     id,
		addr:   addr,
		config: config,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"udpmq"},
			CheckOrigin:  checkOrigin,
		},
		closed: make(chan struct{}),
	}
}

// ID returns the listener ID.
func (w *WebSocket) ID() string {
	return w.id
}

// Addr returns the listener's address.
func (w *WebSocket) Addr() net.Addr {
	return &wsListenerAddr{addr: w.addr}
}

// Serve starts the WebSocket server.
func (w *WebSocket) Serve(handler DatagramHandler) error {
	w.handler = handler

	mux := http.NewServeMux()
	mux.HandleFunc(w.config.Path, w.handleWebSocket)

	w.server = &http.Server{
		Addr:    w.addr,
		Handler: mux,
	}

	var ln net.Listener
	var err error

	if w.config.TLSConfig != nil {
		w.server.TLSConfig = w.config.TLSConfig
		ln, err = tls.Listen("tcp", w.addr, w.config.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", w.addr)
	}
	if err != nil {
		return err
	}

	w.wg.Add(1)
	defer w.wg.Done()

	err = w.server.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (w *WebSocket) handleWebSocket(rw http.ResponseWriter, r *http.Request) {
	select {
	case <-w.closed:
		http.Error(rw, "server closing", http.StatusServiceUnavailable)
		return
	default:
	}

	ws, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}

	ep := &wsEndpoint{conn: ws, remoteAddr: r.RemoteAddr}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ws.Close()

		for {
			messageType, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if messageType != websocket.BinaryMessage {
				continue
			}
			w.handler.HandleDatagram(ep, data)
		}
	}()
}

// Close stops the WebSocket server.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.closed:
		return errors.New("listener already closed")
	default:
		close(w.closed)
	}

	if w.server != nil {
		w.server.Close()
	}
	w.wg.Wait()
	return nil
}

// wsEndpoint is the return path to one WebSocket peer.
type wsEndpoint struct {
	conn       *websocket.Conn
	remoteAddr string
	mu         sync.Mutex
}

var _ broker.Endpoint = (*wsEndpoint)(nil)

func (e *wsEndpoint) RemoteAddr() string {
	return "ws://" + e.remoteAddr
}

func (e *wsEndpoint) WriteDatagram(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteMessage(websocket.BinaryMessage, data)
}

// wsListenerAddr implements net.Addr for the WebSocket listener.
type wsListenerAddr struct {
	addr string
}

func (a *wsListenerAddr) Network() string { return "tcp" }
func (a *wsListenerAddr) String() string  { return a.addr }

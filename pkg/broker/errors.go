package broker

import "errors"

// Disconnect reasons passed to connection hooks.
var (
	// ErrKeepAliveExpired indicates the client stayed silent past its
	// keep-alive grace period.
	ErrKeepAliveExpired = errors.New("keep-alive expired")

	// ErrServerShutdown indicates the broker is shutting down.
	ErrServerShutdown = errors.New("server shutting down")

	// ErrSessionTakenOver indicates another client connected with the
	// same client identifier.
	ErrSessionTakenOver = errors.New("session taken over")
)

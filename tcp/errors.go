package tcp

import "errors"

var (
	// ErrUnknownConnection is a RoutingError-class condition: a segment
	// arrived addressed to a ConnID the Manager has no record of (e.g. after
	// a connection already closed).
	ErrUnknownConnection = errors.New("tcp: unknown connection id")
	// ErrNotEstablished means application data was offered to a connection
	// that has not completed its handshake.
	ErrNotEstablished = errors.New("tcp: connection not established")
)

// Package transport owns the listening side of the HTTP API: binding the
// socket, serving, and shutting down cleanly. Routing lives in httpapi.
package transport

import (
	"context"
	"net/http"
)

// ServerTransport is implemented by every listener the daemon can run.
type ServerTransport interface {
	// Start binds and begins serving handler in the background.
	Start(ctx context.Context, handler http.Handler) error

	// Stop drains in-flight requests and releases the listener.
	Stop() error

	// Address returns the bound address, or the configured one before Start.
	Address() string
}

// TransportType names the socket family the API listens on.
type TransportType string

const (
	// TransportTCP listens on a host:port.
	TransportTCP TransportType = "tcp"

	// TransportUnix listens on a filesystem socket, for sidecar deployments.
	TransportUnix TransportType = "unix"
)

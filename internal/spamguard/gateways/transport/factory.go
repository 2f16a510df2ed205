package transport

import (
	"fmt"
	"time"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

// NewTransport creates a transport for transportType bound to addr.
func NewTransport(transportType TransportType, addr string, shutdownTimeout time.Duration, logger log.Logger) (ServerTransport, error) {
	switch transportType {
	case TransportTCP, TransportUnix:
		return NewHTTPTransport(string(transportType), addr, shutdownTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
}

// GetSupportedTransports returns the transport types NewTransport accepts.
func GetSupportedTransports() []TransportType {
	return []TransportType{TransportTCP, TransportUnix}
}

// IsTransportSupported checks if a given transport type is currently supported.
func IsTransportSupported(transportType TransportType) bool {
	for _, t := range GetSupportedTransports() {
		if t == transportType {
			return true
		}
	}
	return false
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

// DefaultShutdownTimeout bounds how long Stop waits for in-flight requests.
const DefaultShutdownTimeout = 10 * time.Second

// HTTPTransport serves an http.Handler on a TCP or unix listener.
type HTTPTransport struct {
	network         string
	addr            string
	shutdownTimeout time.Duration
	logger          log.Logger

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	running  bool
	done     chan struct{}
}

// NewHTTPTransport creates a transport; nothing is bound until Start.
func NewHTTPTransport(network, addr string, shutdownTimeout time.Duration, logger log.Logger) *HTTPTransport {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPTransport{
		network:         network,
		addr:            addr,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Start binds the listener and serves handler until Stop is called or ctx is
// cancelled. Bind errors are returned synchronously.
func (t *HTTPTransport) Start(ctx context.Context, handler http.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("HTTP transport already running")
	}

	ln, err := net.Listen(t.network, t.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s %s: %w", t.network, t.addr, err)
	}

	t.listener = ln
	t.server = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	t.running = true
	t.done = make(chan struct{})

	t.logger.Info(map[string]any{
		"transport": t.network,
		"address":   ln.Addr().String(),
	}, "HTTP transport started")

	go t.serve(t.server, ln, t.done)
	go func(done <-chan struct{}) {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "HTTP transport stopping due to context cancellation")
			_ = t.Stop()
		case <-done:
		}
	}(t.done)

	return nil
}

func (t *HTTPTransport) serve(srv *http.Server, ln net.Listener, done chan struct{}) {
	defer close(done)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.logger.Error(map[string]any{
			"address": ln.Addr().String(),
			"error":   err,
		}, "HTTP transport stopped unexpectedly")
	}
}

// Stop gracefully shuts the server down, waiting up to the shutdown timeout
// for in-flight requests.
func (t *HTTPTransport) Stop() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	srv, done := t.server, t.done
	t.running = false
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		t.logger.Warn(map[string]any{
			"error": err,
		}, "Error shutting down HTTP server")
		_ = srv.Close()
	}
	<-done

	t.logger.Info(map[string]any{
		"transport": t.network,
		"address":   t.Address(),
	}, "HTTP transport stopped")

	return err
}

// Address returns the bound address once started, otherwise the configured one.
func (t *HTTPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.addr
}

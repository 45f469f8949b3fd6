package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/OrlandoBitencourt/flagx/internal/cache"
	"github.com/OrlandoBitencourt/flagx/internal/logging"
)

// CacheInterface defines what the HTTP surfaces need from the flag cache
type CacheInterface interface {
	GetMetrics() cache.Metrics
	Invalidate(flagKey, targetID string)
	InvalidateFlag(flagKey string)
	InvalidateAll()
}

// listener runs an http.Server on a bound address.
type listener struct {
	name    string
	addr    string
	logger  logging.Logger
	handler http.Handler

	mu     sync.Mutex
	server *http.Server
	bound  net.Addr
}

func (l *listener) start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.server != nil {
		return fmt.Errorf("%s server already started", l.name)
	}

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("%s server listen on %s: %w", l.name, l.addr, err)
	}

	l.server = &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	l.bound = ln.Addr()

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("server stopped unexpectedly", "server", l.name, "error", err)
		}
	}(l.server)

	l.logger.Info("server listening", "server", l.name, "addr", l.bound.String())
	return nil
}

func (l *listener) shutdown(ctx context.Context) error {
	l.mu.Lock()
	srv := l.server
	l.server = nil
	l.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (l *listener) address() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.bound == nil {
		return ""
	}
	return l.bound.String()
}

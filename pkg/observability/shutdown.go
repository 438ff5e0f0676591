package observability

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// ShutdownFunc is a cleanup function invoked during shutdown
type ShutdownFunc func(context.Context) error

// ServerGroup runs the application and health HTTP servers together and
// shuts both down gracefully on SIGINT/SIGTERM. Registered shutdown
// functions (store close, cache close, sweeper stop) run after the
// listeners drain.
type ServerGroup struct {
	logger          *Logger
	servers         []*http.Server
	shutdownFuncs   []ShutdownFunc
	shutdownTimeout time.Duration
}

// NewServerGroup creates a server group with the given shutdown timeout
func NewServerGroup(logger *Logger, timeout time.Duration, servers ...*http.Server) *ServerGroup {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ServerGroup{
		logger:          logger,
		servers:         servers,
		shutdownTimeout: timeout,
	}
}

// OnShutdown registers a cleanup function to run during shutdown
func (sg *ServerGroup) OnShutdown(fn ShutdownFunc) {
	sg.shutdownFuncs = append(sg.shutdownFuncs, fn)
}

// Run serves until a termination signal arrives, then drains the
// listeners and runs the registered shutdown functions.
func (sg *ServerGroup) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	for _, srv := range sg.servers {
		srv := srv
		g.Go(func() error {
			sg.logger.Infof("Listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		sg.logger.Info("Shutdown signal received, draining listeners")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), sg.shutdownTimeout)
		defer cancel()

		var firstErr error
		for _, srv := range sg.servers {
			if err := srv.Shutdown(shutdownCtx); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("shutdown of %s: %w", srv.Addr, err)
			}
		}
		for _, fn := range sg.shutdownFuncs {
			if err := fn(shutdownCtx); err != nil {
				sg.logger.WithError(err).Error("Shutdown function failed")
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	})

	if err := g.Wait(); err != nil {
		return err
	}
	sg.logger.Info("Graceful shutdown complete")
	return nil
}

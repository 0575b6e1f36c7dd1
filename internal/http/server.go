package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultShutdownTimeout bounds how long in-flight requests may finish after ctx ends.
const DefaultShutdownTimeout = 15 * time.Second

// RunServer binds server.Addr, serves until ctx is cancelled and then drains connections.
// A bind failure is returned before any request is accepted.
func RunServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	return runServer(ctx, server, logger, DefaultShutdownTimeout)
}

func runServer(ctx context.Context, server *http.Server, logger *slog.Logger, drain time.Duration) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}
	logger.Info("http listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drain)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", "err", err)
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", "err", err)
		}
		return err
	}
}

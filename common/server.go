package common

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bgsc/vaultui/log"
)

// How long RunServer waits for in-flight requests after ctx is cancelled.
const shutdownTimeout = 5 * time.Second

// RunServer serves on server until ctx is cancelled, then shuts it down
// gracefully. It returns nil on a clean shutdown.
func RunServer(ctx context.Context, server *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "addr", server.Addr, "reason", ctx.Err())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

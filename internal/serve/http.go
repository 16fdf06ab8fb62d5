package serve

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmorgan81/backdrop/internal/log"
)

const shutdownGrace = 30 * time.Second

// ListenAndServe serves handler on addr until ctx is done, then waits for
// in-flight requests to finish.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	log := log.FromContextOrDiscard(ctx).WithGroup("server").With("address", addr)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

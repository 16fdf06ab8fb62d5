package handler

import (
	"log/slog"
	"net/http"

	"github.com/dmorgan81/backdrop/internal/log"
	"github.com/dmorgan81/backdrop/internal/metrics"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const requestIDHeader = "X-Request-Id"

// NewRouter mounts every endpoint under /api and at the root.
func NewRouter(i *do.Injector) (http.Handler, error) {
	m := do.MustInvoke[*metrics.Metrics](i)
	logger := do.MustInvoke[*slog.Logger](i)

	routes := map[string]http.Handler{
		"apply-effect":        do.MustInvoke[*EffectHandler](i),
		"generate-background": do.MustInvoke[*BackgroundHandler](i),
		"remove-background":   do.MustInvoke[*RemoveHandler](i),
	}

	mux := http.NewServeMux()
	for name, h := range routes {
		h = m.Instrument(name, h)
		mux.Handle("/api/"+name, h)
		mux.Handle("/"+name, h)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", m.Handler())

	return withRequestLogger(logger, mux), nil
}

// withRequestLogger tags every request with an id, reusing the caller's
// when it is a valid UUID, and carries a logger bound to it in the context.
func withRequestLogger(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(requestIDHeader))
		if err != nil {
			id = uuid.New()
		}
		w.Header().Set(requestIDHeader, id.String())

		logger := base.With("request_id", id.String(), "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(log.NewContext(r.Context(), logger)))
	})
}

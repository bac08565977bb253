package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identityhandler "onestop/internal/identity/handler"
	"onestop/internal/platform/metrics"
	"onestop/internal/platform/middleware"
	submissionhandler "onestop/internal/submission/handler"
)

// NewRouter assembles the portal API. The platform middleware chain applies
// once at the root; role gating happens inside each handler's Register.
func NewRouter(identity *identityhandler.Handler, submissions *submissionhandler.Handler, logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.ContentTypeJSON)

	identity.Register(r)
	submissions.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

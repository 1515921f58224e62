// Package api defines the HTTP surface of the vault dashboard.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	v1 "github.com/bgsc/vaultui/api/v1"
	"github.com/bgsc/vaultui/api/web"
	"github.com/bgsc/vaultui/app"
	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
)

const (
	moduleName = "api"
)

// APIHandler is a handler that handles API requests.
type APIHandler interface {
	// RegisterRoutes registers routes for this API Handler
	RegisterRoutes(chi.Router)

	// Name returns the name of this API handler.
	Name() string
}

// NewRouter creates the router serving the dashboard and the JSON API.
// A zero requestTimeout disables the per-request timeout.
func NewRouter(a *app.App, requestTimeout time.Duration, l *log.Logger) http.Handler {
	logger := l.WithModule(moduleName)

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(metrics.NewDefaultRequestMetrics(moduleName), logger))
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	handlers := []APIHandler{
		web.NewHandler(a, l),
		v1.NewHandler(a, l),
	}
	for _, handler := range handlers {
		handler.RegisterRoutes(r)
		logger.Debug("registered handler", "handler", handler.Name())
	}

	return CorsMiddleware(r)
}

// Package v1 implements the JSON API of the vault dashboard.
package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/bgsc/vaultui/app"
	"github.com/bgsc/vaultui/log"
)

const moduleName = "api_v1"

// Handler is the V1 JSON API handler.
type Handler struct {
	app    *app.App
	logger *log.Logger
}

// NewHandler creates a new V1 API handler.
func NewHandler(a *app.App, l *log.Logger) *Handler {
	return &Handler{
		app:    a,
		logger: l.WithModule(moduleName),
	}
}

// Name implements the APIHandler interface.
func (h *Handler) Name() string {
	return moduleName
}

// RegisterRoutes implements the APIHandler interface.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/vault", func(r chi.Router) {
			r.Get("/", h.GetVault)
			r.Post("/refetch", h.RefetchVault)
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", h.GetWallet)
			r.Post("/connect", h.ConnectWallet)
			r.Post("/disconnect", h.DisconnectWallet)
		})

		r.Route("/deposit", func(r chi.Router) {
			r.Post("/", h.OpenDeposit)
			r.Post("/submit", h.SubmitDeposit)
			r.Delete("/", h.CloseDeposit)
		})

		r.Post("/withdraw", h.Withdraw)
		r.Post("/claim", h.Claim)
		r.Put("/language", h.SetLanguage)
	})
}

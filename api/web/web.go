// Package web serves the server-rendered dashboard.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"

	"github.com/bgsc/vaultui/api/common"
	"github.com/bgsc/vaultui/app"
	cmnTypes "github.com/bgsc/vaultui/common"
	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/vault"
)

const moduleName = "web"

//go:embed templates static
var content embed.FS

var dashboardTemplate = template.Must(template.ParseFS(content, "templates/dashboard.html"))

// Handler serves the dashboard page and its form actions. Every action
// redirects back to the dashboard, or re-renders it with the error.
type Handler struct {
	app    *app.App
	logger *log.Logger
}

// NewHandler creates the dashboard handler.
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
	static, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", h.Index)
	r.Post("/connect", h.Connect)
	r.Post("/disconnect", h.Disconnect)
	r.Post("/deposit/open", h.OpenDeposit)
	r.Post("/deposit/submit", h.SubmitDeposit)
	r.Post("/deposit/close", h.CloseDeposit)
	r.Post("/withdraw", h.Withdraw)
	r.Post("/claim", h.Claim)
	r.Post("/refresh", h.Refresh)
	r.Post("/language", h.SetLanguage)
}

// page is the template data.
type page struct {
	app.Dashboard
	Error string

	printer *message.Printer
}

// T formats a catalog message in the page language.
func (p page) T(key string, args ...interface{}) string {
	return p.printer.Sprintf(key, args...)
}

func (p page) Amount(d decimal.Decimal) string {
	return vault.FormatAmount(d, 2)
}

func (p page) Percent(d decimal.Decimal) string {
	return vault.FormatAmount(d, 1)
}

func (p page) Languages() []i18n.Language {
	return i18n.Languages
}

// Refreshing is set while something is pending that the page should
// reload to pick up.
func (p page) Refreshing() bool {
	if p.Flow != nil {
		return true
	}
	return p.Loading || p.Deposit.IsProcessing || p.Withdraw.IsProcessing || p.Claim.IsProcessing
}

// Index renders the dashboard.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	d := h.app.Dashboard()
	p := page{Dashboard: d, Error: errMsg, printer: d.Language.Printer()}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, p); err != nil {
		h.logger.Error("failed to render dashboard",
			"request_id", cmnTypes.RequestID(r.Context()),
			"err", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write response",
			"request_id", cmnTypes.RequestID(r.Context()),
			"err", err,
		)
	}
}

// done finishes a form action.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.logger.Info("dashboard action failed",
			"request_id", cmnTypes.RequestID(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		h.render(w, r, common.HttpCodeForError(err), err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	h.app.Connect(r.Context())
	h.done(w, r, nil)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.app.Disconnect()
	h.done(w, r, nil)
}

func (h *Handler) OpenDeposit(w http.ResponseWriter, r *http.Request) {
	_, err := h.app.OpenDeposit()
	h.done(w, r, err)
}

// SubmitDeposit submits the amount form field. A rejected amount is shown
// inline in the deposit dialog.
func (h *Handler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	_, _, err := h.app.SubmitDeposit(r.FormValue("amount"))
	h.done(w, r, err)
}

func (h *Handler) CloseDeposit(w http.ResponseWriter, r *http.Request) {
	err := h.app.CloseDeposit()
	if errors.Is(err, app.ErrNoFlow) {
		// Already closed itself.
		err = nil
	}
	h.done(w, r, err)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	_, err := h.app.Withdraw(r.FormValue("amount"))
	h.done(w, r, err)
}

func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	h.done(w, r, h.app.Claim())
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	_, err := h.app.Refetch(r.Context())
	h.done(w, r, err)
}

// SetLanguage switches to the "lang" form value, or to the best match for
// the browser's Accept-Language when it is empty.
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := i18n.Match(r.Header.Get("Accept-Language"))
	if v := r.FormValue("lang"); v != "" {
		parsed, err := i18n.Parse(v)
		if err != nil {
			h.done(w, r, common.ErrBadRequest)
			return
		}
		lang = parsed
	}
	h.app.SetLanguage(lang)
	h.done(w, r, nil)
}

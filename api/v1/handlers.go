package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bgsc/vaultui/api/common"
	"github.com/bgsc/vaultui/app"
	cmnTypes "github.com/bgsc/vaultui/common"
	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/vault"
)

// Upper bound on request bodies; they only ever carry an amount or a
// language code.
const maxBodyBytes = 1 << 12

// GetDashboard gets the whole dashboard state.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.reply(r.Context(), w, http.StatusOK, h.app.Dashboard())
}

// GetVault gets the latest vault snapshot.
func (h *Handler) GetVault(w http.ResponseWriter, r *http.Request) {
	d := h.app.Dashboard()
	h.reply(r.Context(), w, http.StatusOK, VaultResponse{Snapshot: d.Vault, Loading: d.Loading})
}

// RefetchVault refreshes the vault snapshot now.
func (h *Handler) RefetchVault(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := h.app.Refetch(ctx)
	if err != nil {
		h.logAndReply(ctx, "failed to refetch vault", w, err)
		return
	}
	h.reply(ctx, w, http.StatusOK, VaultResponse{Snapshot: snapshot})
}

// GetWallet gets the wallet connection.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	h.reply(r.Context(), w, http.StatusOK, h.app.Dashboard().Wallet)
}

// ConnectWallet connects the wallet. Provider errors are not reported;
// the response carries the resulting state.
func (h *Handler) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.app.Connect(ctx)
	h.reply(ctx, w, http.StatusOK, h.app.Dashboard().Wallet)
}

// DisconnectWallet disconnects the wallet.
func (h *Handler) DisconnectWallet(w http.ResponseWriter, r *http.Request) {
	h.app.Disconnect()
	h.reply(r.Context(), w, http.StatusOK, h.app.Dashboard().Wallet)
}

// OpenDeposit opens the deposit flow.
func (h *Handler) OpenDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st, err := h.app.OpenDeposit()
	if err != nil {
		h.logAndReply(ctx, "failed to open deposit flow", w, err)
		return
	}
	h.reply(ctx, w, http.StatusOK, st)
}

// SubmitDeposit submits an amount to the open deposit flow. A rejected
// amount is answered with 422 and the validation in the body.
func (h *Handler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AmountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logAndReply(ctx, "failed to decode deposit request", w, err)
		return
	}
	v, st, err := h.app.SubmitDeposit(req.Amount)
	if err != nil {
		h.logAndReply(ctx, "failed to submit deposit", w, err)
		return
	}

	resp := SubmitDepositResponse{Validation: v, Flow: st}
	status := http.StatusAccepted
	if !v.Valid {
		resp.Message = app.ValidationMessage(h.app.Language(), v)
		status = http.StatusUnprocessableEntity
	}
	h.reply(ctx, w, status, resp)
}

// CloseDeposit closes the deposit flow.
func (h *Handler) CloseDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.app.CloseDeposit(); err != nil {
		h.logAndReply(ctx, "failed to close deposit flow", w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Withdraw starts a withdrawal. An empty amount withdraws the whole
// balance.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AmountRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logAndReply(ctx, "failed to decode withdraw request", w, err)
		return
	}
	v, err := h.app.Withdraw(req.Amount)
	if err != nil {
		h.logAndReply(ctx, "failed to withdraw", w, err)
		return
	}
	h.reply(ctx, w, http.StatusAccepted, OperationResponse{Operation: vault.OpWithdraw, Amount: v.Amount.String()})
}

// Claim starts claiming the pending rewards.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.app.Claim(); err != nil {
		h.logAndReply(ctx, "failed to claim rewards", w, err)
		return
	}
	h.reply(ctx, w, http.StatusAccepted, OperationResponse{Operation: vault.OpClaim})
}

// SetLanguage changes the display language.
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LanguageRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logAndReply(ctx, "failed to decode language request", w, err)
		return
	}
	lang, err := i18n.Parse(req.Language)
	if err != nil {
		h.logAndReply(ctx, "failed to set language", w, fmt.Errorf("%w: %w", common.ErrBadRequest, err))
		return
	}
	h.app.SetLanguage(lang)
	h.reply(ctx, w, http.StatusOK, LanguageResponse{Language: lang})
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", common.ErrBadRequest, err)
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	resp, err := json.Marshal(v)
	if err != nil {
		h.logAndReply(ctx, "failed to marshal response", w, err)
		return
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(resp); err != nil {
		h.logger.Error("failed to write response",
			"request_id", cmnTypes.RequestID(ctx),
			"err", err,
		)
	}
}

func (h *Handler) logAndReply(ctx context.Context, msg string, w http.ResponseWriter, err error) {
	h.logger.Info(msg,
		"request_id", cmnTypes.RequestID(ctx),
		"err", err,
	)
	common.HumanReadableJsonErrorHandler(w, nil, err)
}

package app

import (
	"strconv"

	"github.com/bgsc/vaultui/deposit"
	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/vault"
	"github.com/bgsc/vaultui/wallet"
)

// Trigger is the state of one action button.
type Trigger struct {
	Enabled      bool   `json:"enabled"`
	IsProcessing bool   `json:"is_processing"`
	Error        string `json:"error,omitempty"`
}

// WalletView describes the wallet for display.
type WalletView struct {
	wallet.State
	Available bool `json:"available"`
	// Display is the checksummed account and Short its abbreviation.
	Display string `json:"display,omitempty"`
	Short   string `json:"short,omitempty"`
	Chain   string `json:"chain,omitempty"`
}

// FlowView describes the open deposit flow.
type FlowView struct {
	deposit.State
	// Message is the localized success message, set in the success step.
	Message string `json:"message,omitempty"`
	// Validation is the last rejected amount, if any.
	Validation *vault.AmountValidation `json:"validation,omitempty"`
	// ValidationMessage is the localized rejection reason.
	ValidationMessage string `json:"validation_message,omitempty"`
}

// Dashboard is everything needed to render the dashboard.
type Dashboard struct {
	Name     string         `json:"name"`
	Token    string         `json:"token"`
	Language i18n.Language  `json:"language"`
	Vault    vault.Snapshot `json:"vault"`
	Loading  bool           `json:"loading"`
	Wallet   WalletView     `json:"wallet"`

	// ShowConnectAlert is set while the wallet is disconnected.
	ShowConnectAlert bool `json:"show_connect_alert"`

	Deposit  Trigger `json:"deposit"`
	Withdraw Trigger `json:"withdraw"`
	Claim    Trigger `json:"claim"`

	// Flow is nil unless a deposit flow is open.
	Flow *FlowView `json:"flow,omitempty"`
}

// Dashboard returns the current dashboard.
func (a *App) Dashboard() Dashboard {
	ws := a.conn.State()
	connected := ws.IsConnected()

	a.mu.Lock()
	lang := a.lang
	flow := a.flow
	var validation *vault.AmountValidation
	if a.validation != nil {
		v := *a.validation
		validation = &v
	}
	trigger := func(kind vault.OperationKind) Trigger {
		st := a.ops.Get(kind).State()
		processing := a.busy(kind)
		return Trigger{
			Enabled:      connected && !processing,
			IsProcessing: processing,
			Error:        st.Error,
		}
	}
	d := Dashboard{
		Name:     a.cfg.Name,
		Token:    a.cfg.Token,
		Language: lang,
		Deposit:  trigger(vault.OpDeposit),
		Withdraw: trigger(vault.OpWithdraw),
		Claim:    trigger(vault.OpClaim),
	}
	a.mu.Unlock()

	d.Vault = a.refresher.Snapshot()
	d.Loading = a.refresher.Loading()
	d.ShowConnectAlert = !connected
	d.Wallet = WalletView{State: ws, Available: a.conn.Available()}
	if ws.Account != nil {
		d.Wallet.Display = wallet.DisplayAccount(*ws.Account)
		d.Wallet.Short = wallet.ShortAccount(*ws.Account)
	}
	p := lang.Printer()
	if ws.ChainID != nil {
		d.Wallet.Chain = p.Sprintf(i18n.MsgChain, strconv.FormatUint(*ws.ChainID, 10))
	}

	if flow != nil {
		d.Deposit.Enabled = false
		fv := &FlowView{State: flow.State(), Validation: validation}
		if fv.Step == deposit.StepSuccess {
			fv.Message = p.Sprintf(i18n.MsgDeposited, fv.Amount, a.cfg.Token)
		}
		if validation != nil {
			fv.ValidationMessage = ValidationMessage(lang, *validation)
		}
		d.Flow = fv
	}
	return d
}

// ValidationMessage localizes why an amount was rejected. It is empty for
// a valid amount.
func ValidationMessage(lang i18n.Language, v vault.AmountValidation) string {
	p := lang.Printer()
	switch v.Reason {
	case vault.ReasonEmpty:
		return p.Sprintf(i18n.MsgAmountEmpty)
	case vault.ReasonNotNumeric:
		return p.Sprintf(i18n.MsgAmountNotNumeric)
	case vault.ReasonNotPositive:
		return p.Sprintf(i18n.MsgAmountNotPositive)
	default:
		return ""
	}
}

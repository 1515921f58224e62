package v1

import (
	"github.com/bgsc/vaultui/deposit"
	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/vault"
)

// VaultResponse is the latest vault snapshot.
type VaultResponse struct {
	vault.Snapshot
	Loading bool `json:"loading"`
}

// AmountRequest carries a user-entered amount.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// SubmitDepositResponse reports the validation of a deposit submission and
// the resulting flow state.
type SubmitDepositResponse struct {
	Validation vault.AmountValidation `json:"validation"`
	// Message is the localized rejection reason, if any.
	Message string        `json:"message,omitempty"`
	Flow    deposit.State `json:"flow"`
}

// OperationResponse acknowledges a started operation.
type OperationResponse struct {
	Operation vault.OperationKind `json:"operation"`
	Amount    string              `json:"amount,omitempty"`
}

// LanguageRequest selects the display language.
type LanguageRequest struct {
	Language string `json:"language"`
}

// LanguageResponse reports the display language.
type LanguageResponse struct {
	Language i18n.Language `json:"language"`
}

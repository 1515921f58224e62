package vault

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
)

// OperationKind names a vault write operation.
type OperationKind string

const (
	OpDeposit  OperationKind = "deposit"
	OpWithdraw OperationKind = "withdraw"
	OpClaim    OperationKind = "claim"
)

// Result is the tagged outcome of one operation invocation.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OperationState is what callers read to decide whether a trigger is
// enabled and whether to show a failure.
type OperationState struct {
	IsProcessing bool   `json:"is_processing"`
	Error        string `json:"error,omitempty"`
}

// Operation tracks the busy flag and error slot of one operation kind.
// The busy flag is advisory: Operation never refuses a concurrent call,
// it only reports that one is running.
type Operation struct {
	kind OperationKind

	mu       sync.Mutex
	inFlight int
	lastErr  string

	logger  *log.Logger
	metrics metrics.VaultMetrics
}

func newOperation(kind OperationKind, logger *log.Logger, m metrics.VaultMetrics) *Operation {
	return &Operation{
		kind:    kind,
		logger:  logger.With("operation", string(kind)),
		metrics: m,
	}
}

// Kind returns the operation kind.
func (o *Operation) Kind() OperationKind {
	return o.kind
}

// State returns a copy of the operation state.
func (o *Operation) State() OperationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OperationState{
		IsProcessing: o.inFlight > 0,
		Error:        o.lastErr,
	}
}

// IsProcessing reports whether any invocation is running.
func (o *Operation) IsProcessing() bool {
	return o.State().IsProcessing
}

func (o *Operation) run(ctx context.Context, fn func(context.Context) error) Result {
	o.mu.Lock()
	o.inFlight++
	o.lastErr = ""
	o.mu.Unlock()

	name := string(o.kind)
	o.metrics.OperationsInFlight(name).Inc()
	timer := o.metrics.OperationTimer(name)

	err := fn(ctx)

	timer.ObserveDuration()
	o.metrics.OperationsInFlight(name).Dec()

	o.mu.Lock()
	o.inFlight--
	if err != nil {
		o.lastErr = err.Error()
	}
	o.mu.Unlock()

	if err != nil {
		outcome := metrics.OutcomeFailure
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCancelled
		}
		o.metrics.Operations(name, outcome).Inc()
		o.logger.Warn("operation failed", "err", err)
		return Result{Success: false, Error: err.Error()}
	}
	o.metrics.Operations(name, metrics.OutcomeSuccess).Inc()
	o.logger.Info("operation succeeded")
	return Result{Success: true}
}

// Operations runs deposit, withdraw and claim against a Contract. Each
// kind has its own independent state.
type Operations struct {
	contract Contract

	deposit  *Operation
	withdraw *Operation
	claim    *Operation
}

// NewOperations creates the operation runners for contract.
func NewOperations(contract Contract, logger *log.Logger, m metrics.VaultMetrics) *Operations {
	logger = logger.WithModule("operations")
	return &Operations{
		contract: contract,
		deposit:  newOperation(OpDeposit, logger, m),
		withdraw: newOperation(OpWithdraw, logger, m),
		claim:    newOperation(OpClaim, logger, m),
	}
}

// Get returns the Operation for kind, or nil for an unknown kind.
func (ops *Operations) Get(kind OperationKind) *Operation {
	switch kind {
	case OpDeposit:
		return ops.deposit
	case OpWithdraw:
		return ops.withdraw
	case OpClaim:
		return ops.claim
	default:
		return nil
	}
}

// Deposit deposits amount into the vault.
func (ops *Operations) Deposit(ctx context.Context, amount decimal.Decimal) Result {
	return ops.deposit.run(ctx, func(ctx context.Context) error {
		return ops.contract.Deposit(ctx, amount)
	})
}

// Withdraw withdraws amount from the vault.
func (ops *Operations) Withdraw(ctx context.Context, amount decimal.Decimal) Result {
	return ops.withdraw.run(ctx, func(ctx context.Context) error {
		return ops.contract.Withdraw(ctx, amount)
	})
}

// ClaimRewards claims the pending rewards.
func (ops *Operations) ClaimRewards(ctx context.Context) Result {
	return ops.claim.run(ctx, ops.contract.ClaimRewards)
}

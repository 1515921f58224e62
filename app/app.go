// Package app wires the wallet connection, the vault operations, the
// snapshot refresher and the deposit flow into the dashboard application.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bgsc/vaultui/config"
	"github.com/bgsc/vaultui/deposit"
	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
	"github.com/bgsc/vaultui/vault"
	"github.com/bgsc/vaultui/wallet"
)

const moduleName = "app"

var (
	// ErrNotConnected is returned by actions that need a connected wallet.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrBusy is returned when the same action is already running.
	ErrBusy = errors.New("operation already in progress")
	// ErrNoFlow is returned by deposit flow actions when no flow is open.
	ErrNoFlow = errors.New("no deposit flow is open")
)

// App is the dashboard application. There is one per process.
type App struct {
	cfg *config.VaultConfig

	conn      *wallet.Connection
	ops       *vault.Operations
	refresher *vault.Refresher

	// ctx bounds background work started by actions; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	lang       i18n.Language
	flow       *deposit.Flow
	validation *vault.AmountValidation
	pending    map[vault.OperationKind]bool
	closed     bool

	logger  *log.Logger
	metrics metrics.VaultMetrics
}

// New creates the app. The connection is owned by the caller and must
// outlive the app.
func New(
	cfg *config.VaultConfig,
	conn *wallet.Connection,
	contract vault.Contract,
	lang i18n.Language,
	logger *log.Logger,
	m metrics.VaultMetrics,
) *App {
	logger = logger.WithModule(moduleName)
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:       cfg,
		conn:      conn,
		ops:       vault.NewOperations(contract, logger, m),
		refresher: vault.NewRefresher(contract, conn.Account, cfg.RefreshInterval, logger, m),
		ctx:       ctx,
		cancel:    cancel,
		lang:      lang,
		pending:   map[vault.OperationKind]bool{},
		logger:    logger,
		metrics:   m,
	}
}

// Run keeps the snapshot fresh until ctx is cancelled: it refreshes
// periodically and whenever the wallet account or chain changes.
func (a *App) Run(ctx context.Context) error {
	changes := make(chan wallet.State, 8)
	sub := a.conn.SubscribeChanges(changes)
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.refresher.Start(ctx)
	}()

	for {
		select {
		case s := <-changes:
			a.logger.Debug("wallet changed, refreshing", "connected", s.IsConnected())
			a.refetchAsync()
		case err := <-sub.Err():
			// Only set when the connection is closed under us.
			if err != nil {
				return fmt.Errorf("wallet subscription: %w", err)
			}
			<-ctx.Done()
			return nil
		case <-ctx.Done():
			a.logger.Info("stopping app", "reason", ctx.Err())
			return nil
		}
	}
}

// Close cancels outstanding actions, closes the deposit flow and waits
// for background work to finish.
func (a *App) Close() {
	a.mu.Lock()
	a.closed = true
	flow := a.flow
	a.flow = nil
	a.mu.Unlock()

	if flow != nil {
		flow.Close()
		flow.Wait()
	}
	a.cancel()
	a.wg.Wait()
}

// goBackground runs fn unless the app is closed.
func (a *App) goBackground(fn func(ctx context.Context)) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(a.ctx)
	}()
	return true
}

func (a *App) refetchAsync() {
	a.goBackground(func(ctx context.Context) {
		if _, err := a.refresher.Refetch(ctx); err != nil {
			a.logger.Warn("refresh failed", "err", err)
		}
	})
}

// Connect connects the wallet. Without a provider this does nothing.
func (a *App) Connect(ctx context.Context) wallet.State {
	return a.conn.Connect(ctx)
}

// Disconnect forgets the wallet account.
func (a *App) Disconnect() {
	a.conn.Disconnect()
}

// Refetch refreshes the snapshot now.
func (a *App) Refetch(ctx context.Context) (vault.Snapshot, error) {
	return a.refresher.Refetch(ctx)
}

// Snapshot returns the latest vault snapshot.
func (a *App) Snapshot() vault.Snapshot {
	return a.refresher.Snapshot()
}

// Wallet returns the wallet connection state.
func (a *App) Wallet() wallet.State {
	return a.conn.State()
}

// Language returns the display language.
func (a *App) Language() i18n.Language {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lang
}

// SetLanguage changes the display language.
func (a *App) SetLanguage(l i18n.Language) {
	a.mu.Lock()
	a.lang = l
	a.mu.Unlock()
	a.logger.Debug("language changed", "language", string(l))
}

// busy reports whether kind is running. Callers hold a.mu.
func (a *App) busy(kind vault.OperationKind) bool {
	return a.pending[kind] || a.ops.Get(kind).IsProcessing()
}

// start launches an operation of kind in the background unless the
// wallet is disconnected or the operation is already running.
func (a *App) start(kind vault.OperationKind, op func(ctx context.Context) vault.Result) error {
	if !a.conn.IsConnected() {
		return ErrNotConnected
	}
	a.mu.Lock()
	if a.busy(kind) {
		a.mu.Unlock()
		return fmt.Errorf("%s: %w", kind, ErrBusy)
	}
	a.pending[kind] = true
	a.mu.Unlock()

	started := a.goBackground(func(ctx context.Context) {
		defer func() {
			a.mu.Lock()
			delete(a.pending, kind)
			a.mu.Unlock()
		}()
		if res := op(ctx); res.Success {
			a.refetchAsync()
		}
	})
	if !started {
		a.mu.Lock()
		delete(a.pending, kind)
		a.mu.Unlock()
		return context.Canceled
	}
	return nil
}

// Withdraw starts withdrawing amount. An empty amount withdraws the whole
// balance.
func (a *App) Withdraw(input string) (vault.AmountValidation, error) {
	if !a.conn.IsConnected() {
		return vault.AmountValidation{Input: input}, ErrNotConnected
	}
	v := vault.ValidateAmount(input)
	if v.Reason == vault.ReasonEmpty {
		balance := a.refresher.Snapshot().UserBalance
		v = vault.ValidateAmount(balance.String())
	}
	if !v.Valid {
		return v, v.Err()
	}
	amount := v.Amount
	return v, a.start(vault.OpWithdraw, func(ctx context.Context) vault.Result {
		return a.ops.Withdraw(ctx, amount)
	})
}

// Claim starts claiming the pending rewards.
func (a *App) Claim() error {
	return a.start(vault.OpClaim, a.ops.ClaimRewards)
}

// OpenDeposit opens the deposit flow, or returns the one already open.
func (a *App) OpenDeposit() (deposit.State, error) {
	if !a.conn.IsConnected() {
		return deposit.State{}, ErrNotConnected
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return deposit.State{}, context.Canceled
	}
	if a.flow != nil {
		return a.flow.State(), nil
	}
	if a.busy(vault.OpDeposit) {
		return deposit.State{}, fmt.Errorf("%s: %w", vault.OpDeposit, ErrBusy)
	}
	a.validation = nil
	a.flow = deposit.Open(a.submitDeposit, deposit.Options{
		CloseDelay: a.cfg.DepositCloseDelay,
		OnClose:    a.forgetFlow,
	}, a.logger, a.metrics)
	return a.flow.State(), nil
}

func (a *App) submitDeposit(ctx context.Context, amount decimal.Decimal) error {
	res := a.ops.Deposit(ctx, amount)
	if !res.Success {
		return errors.New(res.Error)
	}
	a.refetchAsync()
	return nil
}

// forgetFlow drops f once it closes itself after success.
func (a *App) forgetFlow(f *deposit.Flow) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.flow == f {
		a.flow = nil
		a.validation = nil
	}
}

// SubmitDeposit submits the amount entered in the open deposit flow. A
// rejected amount is returned as a validation and changes nothing.
func (a *App) SubmitDeposit(input string) (vault.AmountValidation, deposit.State, error) {
	a.mu.Lock()
	flow := a.flow
	a.mu.Unlock()
	if flow == nil {
		return vault.AmountValidation{Input: input}, deposit.State{}, ErrNoFlow
	}

	v, err := flow.Submit(input)
	if err == nil {
		a.mu.Lock()
		if a.flow == flow {
			if v.Valid {
				a.validation = nil
			} else {
				a.validation = &v
			}
		}
		a.mu.Unlock()
	}
	return v, flow.State(), err
}

// CloseDeposit closes the open deposit flow, cancelling a pending
// submission.
func (a *App) CloseDeposit() error {
	a.mu.Lock()
	flow := a.flow
	a.flow = nil
	a.validation = nil
	a.mu.Unlock()
	if flow == nil {
		return ErrNoFlow
	}
	flow.Close()
	return nil
}

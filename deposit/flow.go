// Package deposit implements the two-step deposit dialog: the user enters
// an amount, the deposit is submitted, and a success step is shown briefly
// before the flow closes itself.
package deposit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
	"github.com/bgsc/vaultui/vault"
)

var (
	// ErrBusy is returned when a submission is already being processed.
	ErrBusy = errors.New("deposit is being processed")
	// ErrFlowClosed is returned by operations on a closed flow.
	ErrFlowClosed = errors.New("deposit flow is closed")
	// ErrCompleted is returned when submitting to a flow that already
	// reached the success step.
	ErrCompleted = errors.New("deposit already completed")
)

// Step is a deposit flow step. Steps only advance.
type Step string

const (
	StepAmountEntry Step = "amount_entry"
	StepSuccess     Step = "success"
)

// Flow events, used as metric labels.
const (
	eventOpened    = "opened"
	eventRejected  = "rejected"
	eventBusy      = "busy"
	eventSucceeded = "succeeded"
	eventFailed    = "failed"
	eventClosed    = "closed"
)

// State is a copy of the flow state.
type State struct {
	Step         Step   `json:"step"`
	Amount       string `json:"amount"`
	IsProcessing bool   `json:"is_processing"`
	// Error holds the failure of the last submission, if any.
	Error  string `json:"error,omitempty"`
	Closed bool   `json:"closed"`
}

// Submitter performs the deposit. It must return promptly once ctx is
// cancelled.
type Submitter func(ctx context.Context, amount decimal.Decimal) error

// Options configure a Flow.
type Options struct {
	// CloseDelay is how long the success step is shown before the flow
	// closes itself.
	CloseDelay time.Duration
	// OnClose, if set, is called exactly once when the flow closes, either
	// by Close or by the automatic close after success. It must not call
	// back into the flow.
	OnClose func(*Flow)
}

// Flow is one open deposit dialog. All pending work (the submission and
// the automatic close) is bound to the flow and cancelled by Close; once
// closed, a flow never changes state again.
type Flow struct {
	submit Submitter
	opts   Options

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	step       Step
	amount     string
	processing bool
	lastErr    string
	closed     bool

	wg sync.WaitGroup

	logger  *log.Logger
	metrics metrics.VaultMetrics
}

// Open creates a flow in the amount entry step.
func Open(submit Submitter, opts Options, logger *log.Logger, m metrics.VaultMetrics) *Flow {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		submit:  submit,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		step:    StepAmountEntry,
		logger:  logger.WithModule("deposit"),
		metrics: m,
	}
	m.DepositFlowEvents(eventOpened).Inc()
	f.logger.Debug("deposit flow opened")
	return f
}

// State returns a copy of the flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Step:         f.step,
		Amount:       f.amount,
		IsProcessing: f.processing,
		Error:        f.lastErr,
		Closed:       f.closed,
	}
}

// Submit validates input and, if it is a positive decimal, starts the
// deposit in the background. An invalid amount changes nothing; the
// validation is returned for the caller to present. The returned error is
// non-nil only when the flow cannot accept a submission at all.
func (f *Flow) Submit(input string) (vault.AmountValidation, error) {
	v := vault.ValidateAmount(input)

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.closed:
		return v, ErrFlowClosed
	case f.processing:
		f.metrics.DepositFlowEvents(eventBusy).Inc()
		return v, ErrBusy
	case f.step == StepSuccess:
		return v, ErrCompleted
	}
	if !v.Valid {
		f.metrics.DepositFlowEvents(eventRejected).Inc()
		f.logger.Debug("deposit amount rejected", "reason", v.Reason)
		return v, nil
	}

	f.amount = strings.TrimSpace(input)
	f.processing = true
	f.lastErr = ""
	f.wg.Add(1)
	go f.run(v.Amount)
	return v, nil
}

func (f *Flow) run(amount decimal.Decimal) {
	defer f.wg.Done()

	err := f.submit(f.ctx, amount)

	f.mu.Lock()
	if f.closed {
		// Abandoned while the deposit was in flight.
		f.mu.Unlock()
		return
	}
	f.processing = false
	if err != nil {
		f.lastErr = err.Error()
		f.mu.Unlock()
		f.metrics.DepositFlowEvents(eventFailed).Inc()
		f.logger.Warn("deposit failed", "amount", amount, "err", err)
		return
	}
	f.step = StepSuccess
	f.mu.Unlock()
	f.metrics.DepositFlowEvents(eventSucceeded).Inc()
	f.logger.Info("deposit succeeded", "amount", amount)

	timer := time.NewTimer(f.opts.CloseDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		f.Close()
	case <-f.ctx.Done():
	}
}

// Close closes the flow and cancels any pending submission or automatic
// close. It does not wait for them; see Wait. Closing twice is a no-op.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.processing = false
	f.mu.Unlock()

	f.cancel()
	f.metrics.DepositFlowEvents(eventClosed).Inc()
	f.logger.Debug("deposit flow closed")
	if f.opts.OnClose != nil {
		f.opts.OnClose(f)
	}
}

// Done is closed when the flow closes.
func (f *Flow) Done() <-chan struct{} {
	return f.ctx.Done()
}

// Wait blocks until the background submission, if any, has returned.
func (f *Flow) Wait() {
	f.wg.Wait()
}

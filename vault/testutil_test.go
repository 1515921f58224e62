package vault

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// blockingContract lets tests control when a write completes and what it
// returns.
type blockingContract struct {
	mu      sync.Mutex
	calls   map[OperationKind]int
	release chan error
	started chan OperationKind
}

func newBlockingContract() *blockingContract {
	return &blockingContract{
		calls:   map[OperationKind]int{},
		release: make(chan error),
		started: make(chan OperationKind, 16),
	}
}

func (c *blockingContract) wait(ctx context.Context, kind OperationKind) error {
	c.mu.Lock()
	c.calls[kind]++
	c.mu.Unlock()
	c.started <- kind
	select {
	case err := <-c.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *blockingContract) Deposit(ctx context.Context, _ decimal.Decimal) error {
	return c.wait(ctx, OpDeposit)
}

func (c *blockingContract) Withdraw(ctx context.Context, _ decimal.Decimal) error {
	return c.wait(ctx, OpWithdraw)
}

func (c *blockingContract) ClaimRewards(ctx context.Context) error {
	return c.wait(ctx, OpClaim)
}

func (c *blockingContract) FetchSnapshot(context.Context, string) (Snapshot, error) {
	return Snapshot{}, errors.New("not implemented")
}

func (c *blockingContract) count(kind OperationKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[kind]
}

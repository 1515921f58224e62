// Package vault implements the staking vault boundary: the contract
// interface, the operation runners built on it and the periodic
// snapshot refresher.
package vault

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bgsc/vaultui/log"
)

// Contract is the vault contract boundary. Write operations block until
// the transaction is considered final.
type Contract interface {
	Deposit(ctx context.Context, amount decimal.Decimal) error
	Withdraw(ctx context.Context, amount decimal.Decimal) error
	ClaimRewards(ctx context.Context) error
	FetchSnapshot(ctx context.Context, account string) (Snapshot, error)
}

// Values reported by SimulatedContract.
var (
	simulatedTotalDeposited = decimal.RequireFromString("1234567.89")
	simulatedAPY            = decimal.RequireFromString("45.2")
	simulatedUserBalance    = decimal.RequireFromString("1000.00")
	simulatedPendingRewards = decimal.RequireFromString("50.25")
)

// SimulatedContract stands in for the on-chain vault. Writes sleep for a
// fixed delay and always succeed unless ctx is cancelled first; reads
// return fixed values.
type SimulatedContract struct {
	delay        time.Duration
	rewardPeriod time.Duration
	now          func() time.Time
	logger       *log.Logger
}

var _ Contract = (*SimulatedContract)(nil)

// NewSimulatedContract creates a simulated vault contract.
func NewSimulatedContract(delay, rewardPeriod time.Duration, logger *log.Logger) *SimulatedContract {
	return &SimulatedContract{
		delay:        delay,
		rewardPeriod: rewardPeriod,
		now:          time.Now,
		logger:       logger.WithModule("contract"),
	}
}

func (c *SimulatedContract) simulate(ctx context.Context) error {
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *SimulatedContract) Deposit(ctx context.Context, amount decimal.Decimal) error {
	c.logger.Info("depositing", "amount", amount.String())
	return c.simulate(ctx)
}

func (c *SimulatedContract) Withdraw(ctx context.Context, amount decimal.Decimal) error {
	c.logger.Info("withdrawing", "amount", amount.String())
	return c.simulate(ctx)
}

func (c *SimulatedContract) ClaimRewards(ctx context.Context) error {
	c.logger.Info("claiming rewards")
	return c.simulate(ctx)
}

// FetchSnapshot returns the fixed vault figures. Per-user fields are zero
// when account is empty.
func (c *SimulatedContract) FetchSnapshot(ctx context.Context, account string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	now := c.now()
	s := Snapshot{
		TotalDeposited: simulatedTotalDeposited,
		APY:            simulatedAPY,
		FetchedAt:      now,
	}
	if account != "" {
		s.UserBalance = simulatedUserBalance
		s.PendingRewards = simulatedPendingRewards
	}
	if c.rewardPeriod > 0 {
		next := now.Truncate(c.rewardPeriod).Add(c.rewardPeriod)
		s.NextRewardTime = &next
	}
	return s, nil
}

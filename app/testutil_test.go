package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/shopspring/decimal"

	"github.com/bgsc/vaultui/config"
	"github.com/bgsc/vaultui/i18n"
	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
	"github.com/bgsc/vaultui/vault"
	"github.com/bgsc/vaultui/wallet"
)

const (
	testTimeout = 2 * time.Second
	testPoll    = time.Millisecond
)

type staticProvider struct {
	accounts     []string
	accountsFeed event.Feed
	chainFeed    event.Feed
}

func (p *staticProvider) RequestAccounts(context.Context) ([]string, error) {
	return p.accounts, nil
}

func (p *staticProvider) ChainID(context.Context) (string, error) {
	return "0x38", nil
}

func (p *staticProvider) SubscribeAccountsChanged(ch chan<- []string) event.Subscription {
	return p.accountsFeed.Subscribe(ch)
}

func (p *staticProvider) SubscribeChainChanged(ch chan<- string) event.Subscription {
	return p.chainFeed.Subscribe(ch)
}

// gatedContract reports the simulated figures but holds every write until
// the test releases it (or the write's context ends).
type gatedContract struct {
	*vault.SimulatedContract

	mu      sync.Mutex
	calls   map[vault.OperationKind]int
	gate    chan struct{}
	started chan vault.OperationKind
}

func newGatedContract(gated bool) *gatedContract {
	c := &gatedContract{
		SimulatedContract: vault.NewSimulatedContract(0, time.Hour, log.NewNopLogger()),
		calls:             map[vault.OperationKind]int{},
		started:           make(chan vault.OperationKind, 16),
	}
	if gated {
		c.gate = make(chan struct{})
	}
	return c
}

func (c *gatedContract) write(ctx context.Context, kind vault.OperationKind) error {
	c.mu.Lock()
	c.calls[kind]++
	c.mu.Unlock()
	c.started <- kind
	if c.gate == nil {
		return nil
	}
	select {
	case <-c.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *gatedContract) count(kind vault.OperationKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[kind]
}

func (c *gatedContract) Deposit(ctx context.Context, _ decimal.Decimal) error {
	return c.write(ctx, vault.OpDeposit)
}

func (c *gatedContract) Withdraw(ctx context.Context, _ decimal.Decimal) error {
	return c.write(ctx, vault.OpWithdraw)
}

func (c *gatedContract) ClaimRewards(ctx context.Context) error {
	return c.write(ctx, vault.OpClaim)
}

func testVaultConfig() *config.VaultConfig {
	cfg := config.DefaultVaultConfig()
	cfg.RefreshInterval = time.Hour
	cfg.DepositCloseDelay = 100 * time.Millisecond
	return cfg
}

// newTestApp creates an app over provider (nil for none) and contract.
// Everything is torn down with the test.
func newTestApp(t *testing.T, provider wallet.Provider, contract vault.Contract) *App {
	logger := log.NewNopLogger()
	conn := wallet.NewConnection(provider, logger)
	a := New(testVaultConfig(), conn, contract, i18n.English, logger, metrics.NewDefaultVaultMetrics("app_test"))
	t.Cleanup(func() {
		a.Close()
		conn.Close()
	})
	return a
}

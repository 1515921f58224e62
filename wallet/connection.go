package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/bgsc/vaultui/log"
)

// State is a copy of the connection state.
type State struct {
	Account      *string `json:"account"`
	ChainID      *uint64 `json:"chain_id"`
	IsConnecting bool    `json:"is_connecting"`
}

// IsConnected is true iff an account is present.
func (s State) IsConnected() bool {
	return s.Account != nil
}

// Connection tracks the current account and chain of a wallet provider.
// It listens to provider change notifications from creation until Close.
// A nil provider is valid and means the wallet feature is unavailable.
type Connection struct {
	provider Provider

	mu         sync.RWMutex
	account    *string
	chainID    *uint64
	connecting bool

	changes event.Feed
	scope   event.SubscriptionScope

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	logger *log.Logger
}

// NewConnection creates a connection and subscribes to provider
// notifications.
func NewConnection(provider Provider, logger *log.Logger) *Connection {
	c := &Connection{
		provider: provider,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.WithModule("wallet"),
	}
	if provider == nil {
		c.logger.Info("no wallet provider available")
		close(c.done)
		return c
	}

	accountsCh := make(chan []string, 8)
	chainCh := make(chan string, 8)
	c.scope.Track(provider.SubscribeAccountsChanged(accountsCh))
	c.scope.Track(provider.SubscribeChainChanged(chainCh))
	go c.watch(accountsCh, chainCh)
	return c
}

func (c *Connection) watch(accountsCh <-chan []string, chainCh <-chan string) {
	defer close(c.done)
	for {
		select {
		case accounts := <-accountsCh:
			c.onAccountsChanged(accounts)
		case hex := <-chainCh:
			c.onChainChanged(hex)
		case <-c.quit:
			return
		}
	}
}

func (c *Connection) onAccountsChanged(accounts []string) {
	c.mu.Lock()
	c.account = firstAccount(accounts)
	c.mu.Unlock()
	c.logger.Info("accounts changed", "num_accounts", len(accounts))
	c.publish()
}

// firstAccount returns the selected account, or nil when the provider
// reports none. An empty string is not an account.
func firstAccount(accounts []string) *string {
	if len(accounts) == 0 || accounts[0] == "" {
		return nil
	}
	account := accounts[0]
	return &account
}

func (c *Connection) onChainChanged(hex string) {
	id, err := ParseChainID(hex)
	if err != nil {
		c.logger.Warn("ignoring chain change", "chain_id", hex, "err", err)
		return
	}
	c.mu.Lock()
	c.chainID = &id
	c.mu.Unlock()
	c.logger.Info("chain changed", "chain_id", id)
	c.publish()
}

func (c *Connection) publish() {
	c.changes.Send(c.State())
}

// SubscribeChanges delivers the new State after every change.
func (c *Connection) SubscribeChanges(ch chan<- State) event.Subscription {
	return c.scope.Track(c.changes.Subscribe(ch))
}

// State returns a copy of the current state.
func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := State{IsConnecting: c.connecting}
	if c.account != nil {
		account := *c.account
		s.Account = &account
	}
	if c.chainID != nil {
		id := *c.chainID
		s.ChainID = &id
	}
	return s
}

// Account returns the current account, or "" when disconnected.
func (c *Connection) Account() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.account == nil {
		return ""
	}
	return *c.account
}

// IsConnected reports whether an account is present.
func (c *Connection) IsConnected() bool {
	return c.State().IsConnected()
}

// Available reports whether a wallet provider exists at all.
func (c *Connection) Available() bool {
	return c.provider != nil
}

// Connect requests accounts and the chain id from the provider and stores
// both. Without a provider it does nothing. Provider errors are logged and
// leave the state unchanged.
func (c *Connection) Connect(ctx context.Context) State {
	if c.provider == nil {
		return c.State()
	}

	c.mu.Lock()
	c.connecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		c.logger.Error("connection error", "stage", "request_accounts", "err", err)
		return c.stateAfterConnect()
	}
	hex, err := c.provider.ChainID(ctx)
	if err != nil {
		c.logger.Error("connection error", "stage", "chain_id", "err", err)
		return c.stateAfterConnect()
	}
	id, err := ParseChainID(hex)
	if err != nil {
		c.logger.Error("connection error", "stage", "chain_id", "err", err)
		return c.stateAfterConnect()
	}

	c.mu.Lock()
	c.account = firstAccount(accounts)
	c.chainID = &id
	c.mu.Unlock()

	c.logger.Info("wallet connected", "num_accounts", len(accounts), "chain_id", id)
	c.publish()
	return c.stateAfterConnect()
}

// stateAfterConnect reports the state as it will be once Connect returns.
func (c *Connection) stateAfterConnect() State {
	s := c.State()
	s.IsConnecting = false
	return s
}

// Disconnect forgets the account and chain id.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.account = nil
	c.chainID = nil
	c.mu.Unlock()
	c.logger.Info("wallet disconnected")
	c.publish()
}

// Close releases the provider subscriptions and stops listening. It is
// safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.scope.Close()
		close(c.quit)
		<-c.done
	})
}

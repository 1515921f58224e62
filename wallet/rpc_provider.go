package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/bgsc/vaultui/log"
)

const (
	defaultPollInterval = 2 * time.Second
	// JSON-RPC "method not found".
	errCodeMethodNotFound = -32601
)

// RPCProvider uses an Ethereum JSON-RPC endpoint (a node with unlocked
// accounts, or a signer such as clef) as the wallet. Plain JSON-RPC has no
// push notifications for account or chain changes, so Start polls for them.
type RPCProvider struct {
	client       *rpc.Client
	pollInterval time.Duration

	accountsFeed event.Feed
	chainFeed    event.Feed

	mu           sync.Mutex
	lastAccounts []string
	lastChainID  string
	primed       bool

	logger *log.Logger
}

var _ Provider = (*RPCProvider)(nil)

// DialRPCProvider connects to the JSON-RPC endpoint at url.
func DialRPCProvider(ctx context.Context, url string, pollInterval time.Duration, logger *log.Logger) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rpc DialContext %s: %w", url, err)
	}
	return NewRPCProvider(client, pollInterval, logger), nil
}

// NewRPCProvider wraps an existing rpc client.
func NewRPCProvider(client *rpc.Client, pollInterval time.Duration, logger *log.Logger) *RPCProvider {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &RPCProvider{
		client:       client,
		pollInterval: pollInterval,
		logger:       logger.WithModule("rpc_provider"),
	}
}

func isMethodNotFound(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == errCodeMethodNotFound
}

// RequestAccounts calls eth_requestAccounts, falling back to eth_accounts
// on endpoints that do not implement it.
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts")
	if isMethodNotFound(err) {
		return p.accounts(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("eth_requestAccounts: %w", err)
	}
	return accounts, nil
}

func (p *RPCProvider) accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, fmt.Errorf("eth_accounts: %w", err)
	}
	return accounts, nil
}

// ChainID calls eth_chainId.
func (p *RPCProvider) ChainID(ctx context.Context) (string, error) {
	var id hexutil.Uint64
	if err := p.client.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return "", fmt.Errorf("eth_chainId: %w", err)
	}
	return id.String(), nil
}

func (p *RPCProvider) SubscribeAccountsChanged(ch chan<- []string) event.Subscription {
	return p.accountsFeed.Subscribe(ch)
}

func (p *RPCProvider) SubscribeChainChanged(ch chan<- string) event.Subscription {
	return p.chainFeed.Subscribe(ch)
}

// Start polls for account and chain changes until ctx is done.
func (p *RPCProvider) Start(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		if err := p.poll(ctx); err != nil {
			p.logger.Warn("polling wallet provider failed", "err", err)
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.logger.Info("stopping wallet provider polling", "reason", ctx.Err())
			return
		}
	}
}

// poll fetches accounts and chain id and emits whatever changed since the
// previous poll. The first successful poll only records the baseline.
func (p *RPCProvider) poll(ctx context.Context) error {
	accounts, err := p.accounts(ctx)
	if err != nil {
		return err
	}
	chainID, err := p.ChainID(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	primed := p.primed
	accountsChanged := primed && !slices.Equal(accounts, p.lastAccounts)
	chainChanged := primed && chainID != p.lastChainID
	p.lastAccounts, p.lastChainID, p.primed = accounts, chainID, true
	p.mu.Unlock()

	if accountsChanged {
		p.accountsFeed.Send(accounts)
	}
	if chainChanged {
		p.chainFeed.Send(chainID)
	}
	return nil
}

// Close closes the underlying rpc client.
func (p *RPCProvider) Close() {
	p.client.Close()
}

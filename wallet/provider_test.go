package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/event"
)

// fakeProvider is an in-memory Provider whose notifications are driven by
// the test.
type fakeProvider struct {
	mu          sync.Mutex
	accounts    []string
	chainID     string
	accountsErr error
	chainErr    error
	gate        chan struct{} // if non-nil, RequestAccounts waits on it

	accountsFeed event.Feed
	chainFeed    event.Feed
}

func newFakeProvider(accounts []string, chainID string) *fakeProvider {
	return &fakeProvider{accounts: accounts, chainID: chainID}
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accountsErr != nil {
		return nil, p.accountsErr
	}
	return append([]string(nil), p.accounts...), nil
}

func (p *fakeProvider) ChainID(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.chainErr != nil {
		return "", p.chainErr
	}
	return p.chainID, nil
}

func (p *fakeProvider) SubscribeAccountsChanged(ch chan<- []string) event.Subscription {
	return p.accountsFeed.Subscribe(ch)
}

func (p *fakeProvider) SubscribeChainChanged(ch chan<- string) event.Subscription {
	return p.chainFeed.Subscribe(ch)
}

var errUserRejected = errors.New("user rejected the request")

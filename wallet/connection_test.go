package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bgsc/vaultui/log"
)

const (
	testTimeout = 2 * time.Second
	testPoll    = time.Millisecond
)

func TestConnectWithoutProvider(t *testing.T) {
	c := NewConnection(nil, log.NewNopLogger())
	defer c.Close()

	var s State
	require.NotPanics(t, func() { s = c.Connect(context.Background()) })
	require.Nil(t, s.Account)
	require.Nil(t, s.ChainID)
	require.False(t, s.IsConnected())
	require.False(t, c.Available())
	require.Equal(t, "", c.Account())
}

func TestConnectStoresAccountAndChain(t *testing.T) {
	p := newFakeProvider([]string{"0xABC", "0xDEF"}, "0x38")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	s := c.Connect(context.Background())
	require.True(t, s.IsConnected())
	require.Equal(t, "0xABC", *s.Account)
	require.Equal(t, uint64(56), *s.ChainID)
	require.False(t, s.IsConnecting)
	require.True(t, c.IsConnected())
	require.Equal(t, "0xABC", c.Account())
}

func TestAccountsChangedEmptyClearsAccount(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	c.Connect(context.Background())
	require.Equal(t, "0xABC", c.Account())

	p.accountsFeed.Send([]string{})
	require.Eventually(t, func() bool { return !c.IsConnected() }, testTimeout, time.Millisecond)
	require.Nil(t, c.State().Account)

	p.accountsFeed.Send([]string{"0x123"})
	require.Eventually(t, func() bool { return c.Account() == "0x123" }, testTimeout, time.Millisecond)
}

func TestEmptyAccountIsNotConnected(t *testing.T) {
	p := newFakeProvider([]string{""}, "0x1")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	s := c.Connect(context.Background())
	require.Nil(t, s.Account)
	require.False(t, s.IsConnected())
	require.False(t, c.IsConnected())
	require.Equal(t, uint64(1), *s.ChainID)

	p.accountsFeed.Send([]string{"0xABC"})
	require.Eventually(t, c.IsConnected, testTimeout, time.Millisecond)

	p.accountsFeed.Send([]string{""})
	require.Eventually(t, func() bool { return !c.IsConnected() }, testTimeout, time.Millisecond)
	require.False(t, c.State().IsConnected())
}

func TestChainChanged(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	p.chainFeed.Send("0x61")
	require.Eventually(t, func() bool {
		id := c.State().ChainID
		return id != nil && *id == 97
	}, testTimeout, time.Millisecond)

	// Garbage is ignored.
	p.chainFeed.Send("not-hex")
	p.chainFeed.Send("0x38")
	require.Eventually(t, func() bool { return *c.State().ChainID == 56 }, testTimeout, time.Millisecond)
}

func TestConnectProviderErrorLeavesStateUnchanged(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	p.accountsErr = errUserRejected
	s := c.Connect(context.Background())
	require.False(t, s.IsConnected())
	require.Nil(t, s.ChainID)

	p.accountsErr = nil
	p.chainErr = errUserRejected
	s = c.Connect(context.Background())
	require.False(t, s.IsConnected(), "account is only stored together with the chain id")
}

func TestConnectingFlag(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	p.gate = make(chan struct{})
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	done := make(chan State, 1)
	go func() { done <- c.Connect(context.Background()) }()
	require.Eventually(t, func() bool { return c.State().IsConnecting }, testTimeout, time.Millisecond)
	close(p.gate)
	s := <-done
	require.True(t, s.IsConnected())
	require.False(t, c.State().IsConnecting)
}

func TestDisconnect(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	c.Connect(context.Background())
	c.Disconnect()
	s := c.State()
	require.Nil(t, s.Account)
	require.Nil(t, s.ChainID)
}

func TestSubscribeChanges(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	c := NewConnection(p, log.NewNopLogger())
	defer c.Close()

	ch := make(chan State, 4)
	sub := c.SubscribeChanges(ch)
	defer sub.Unsubscribe()

	c.Connect(context.Background())
	s := <-ch
	require.Equal(t, "0xABC", *s.Account)

	c.Disconnect()
	s = <-ch
	require.False(t, s.IsConnected())
}

func TestCloseReleasesSubscriptions(t *testing.T) {
	p := newFakeProvider([]string{"0xABC"}, "0x1")
	c := NewConnection(p, log.NewNopLogger())

	c.Close()
	c.Close() // idempotent

	require.Equal(t, 0, p.accountsFeed.Send([]string{}))
	require.Equal(t, 0, p.chainFeed.Send("0x2"))
}

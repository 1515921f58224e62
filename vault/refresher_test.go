package vault

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
)

type countingSource struct {
	calls atomic.Int64
	gate  chan struct{} // if non-nil, every fetch waits on it
	err   atomic.Value  // error
}

func (s *countingSource) FetchSnapshot(ctx context.Context, account string) (Snapshot, error) {
	n := s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	if err, _ := s.err.Load().(error); err != nil {
		return Snapshot{}, err
	}
	balance := decimal.Zero
	if account != "" {
		balance = decimal.NewFromInt(n)
	}
	return Snapshot{
		TotalDeposited: decimal.NewFromInt(1000 * n),
		UserBalance:    balance,
		APY:            decimal.NewFromInt(n),
		PendingRewards: decimal.NewFromInt(n),
	}, nil
}

func newTestRefresher(src SnapshotSource, account func() string, interval time.Duration) *Refresher {
	return NewRefresher(src, account, interval, log.NewNopLogger(), metrics.NewDefaultVaultMetrics("vault_test"))
}

func TestRefresherFetchesImmediatelyAndPeriodically(t *testing.T) {
	src := &countingSource{}
	r := newTestRefresher(src, nil, 20*time.Millisecond)
	require.True(t, r.Snapshot().IsZero())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, testTimeout, time.Millisecond)
	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, testTimeout, time.Millisecond)
	require.False(t, r.Snapshot().IsZero())

	cancel()
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("refresher did not stop")
	}
}

func TestRefetchReplacesSnapshotWithoutTimer(t *testing.T) {
	src := &countingSource{}
	r := newTestRefresher(src, func() string { return "0xABC" }, time.Hour)

	first, err := r.Refetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1000", first.TotalDeposited.String())

	second, err := r.Refetch(context.Background())
	require.NoError(t, err)

	// Every field is replaced together.
	got := r.Snapshot()
	require.Equal(t, second, got)
	require.Equal(t, "2000", got.TotalDeposited.String())
	require.Equal(t, "2", got.UserBalance.String())
	require.Equal(t, "2", got.APY.String())
	require.Equal(t, "2", got.PendingRewards.String())
	require.False(t, got.FetchedAt.IsZero())
}

func TestRefetchCollapsesOverlappingFetches(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	r := newTestRefresher(src, nil, time.Hour)

	var wg sync.WaitGroup
	results := make([]Snapshot, 3)
	errs := make([]error, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Refetch(context.Background())
		}(i)
	}
	require.Eventually(t, r.Loading, testTimeout, time.Millisecond)
	// Give the other callers time to join the in-flight fetch.
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), src.calls.Load())
	require.Equal(t, results[0], results[1])
	require.Equal(t, results[1], results[2])
	require.False(t, r.Loading())
}

func TestRefetchFailureKeepsPreviousSnapshot(t *testing.T) {
	src := &countingSource{}
	r := newTestRefresher(src, nil, time.Hour)

	prev, err := r.Refetch(context.Background())
	require.NoError(t, err)

	src.err.Store(errors.New("rpc unavailable"))
	_, err = r.Refetch(context.Background())
	require.ErrorContains(t, err, "rpc unavailable")
	require.Equal(t, prev, r.Snapshot())
}

func TestRefetchCallerCancellation(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	r := newTestRefresher(src, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := r.Refetch(ctx)
		errCh <- err
	}()
	require.Eventually(t, r.Loading, testTimeout, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	// The shared fetch still completes and lands.
	close(src.gate)
	require.Eventually(t, func() bool { return !r.Snapshot().IsZero() }, testTimeout, time.Millisecond)
}

func TestRefetchDiscardsStaleAccount(t *testing.T) {
	src := &countingSource{gate: make(chan struct{})}
	var account atomic.Value
	account.Store("0xOLD")
	r := newTestRefresher(src, func() string { return account.Load().(string) }, time.Hour)

	done := make(chan struct{})
	go func() {
		_, _ = r.Refetch(context.Background())
		close(done)
	}()
	require.Eventually(t, r.Loading, testTimeout, time.Millisecond)
	account.Store("0xNEW")
	close(src.gate)
	<-done

	require.True(t, r.Snapshot().IsZero())
}

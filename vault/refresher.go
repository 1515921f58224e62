package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
)

// Upper bound on a single snapshot fetch.
const fetchTimeout = 15 * time.Second

// SnapshotSource produces vault snapshots for an account ("" for none).
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context, account string) (Snapshot, error)
}

// Refresher keeps the latest Snapshot, fetching one immediately on Start
// and then every interval. Concurrent fetches for the same account are
// collapsed into one.
type Refresher struct {
	source   SnapshotSource
	account  func() string
	interval time.Duration

	group singleflight.Group

	mu       sync.RWMutex
	snapshot Snapshot
	loading  int

	logger  *log.Logger
	metrics metrics.VaultMetrics
}

// NewRefresher creates a refresher. account is consulted on every fetch;
// it may be nil when there is never a user.
func NewRefresher(
	source SnapshotSource,
	account func() string,
	interval time.Duration,
	logger *log.Logger,
	m metrics.VaultMetrics,
) *Refresher {
	if account == nil {
		account = func() string { return "" }
	}
	return &Refresher{
		source:   source,
		account:  account,
		interval: interval,
		logger:   logger.WithModule("refresher"),
		metrics:  m,
	}
}

// Snapshot returns the latest snapshot, or the zero snapshot before the
// first successful fetch.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Loading reports whether a fetch is in flight.
func (r *Refresher) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading > 0
}

// Start fetches immediately and then every interval until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("starting snapshot refresher", "interval", r.interval)
	for firstIter := true; ; firstIter = false {
		delay := r.interval
		if firstIter {
			delay = 0 // Don't sleep before first iteration.
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.logger.Info("shutting down snapshot refresher", "reason", ctx.Err())
			return
		}
		if _, err := r.Refetch(ctx); err != nil {
			r.logger.Warn("periodic snapshot refresh failed", "err", err)
		}
	}
}

// Refetch fetches a snapshot now, without waiting for the timer. If a
// fetch for the same account is already running, Refetch joins it.
// On failure the previous snapshot is kept.
func (r *Refresher) Refetch(ctx context.Context) (Snapshot, error) {
	account := r.account()
	ch := r.group.DoChan(account, func() (interface{}, error) {
		return r.fetch(ctx, account)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Refresher) fetch(ctx context.Context, account string) (Snapshot, error) {
	r.mu.Lock()
	r.loading++
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.loading--
		r.mu.Unlock()
	}()

	// The fetch may be shared with other callers, so it must not die
	// with the context of whoever started it.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
	defer cancel()

	timer := r.metrics.RefreshTimer()
	s, err := r.source.FetchSnapshot(fetchCtx, account)
	timer.ObserveDuration()
	if err != nil {
		r.metrics.Refreshes(metrics.OutcomeFailure).Inc()
		return Snapshot{}, fmt.Errorf("fetching snapshot: %w", err)
	}
	if s.FetchedAt.IsZero() {
		s.FetchedAt = time.Now()
	}

	current := r.account()
	r.mu.Lock()
	defer r.mu.Unlock()
	if current != account {
		// The account changed while we were fetching; this result
		// belongs to the old one.
		r.metrics.Refreshes(metrics.OutcomeRejected).Inc()
		r.logger.Debug("discarding snapshot for stale account", "account", account, "current", current)
		return s, nil
	}
	r.snapshot = s
	r.metrics.Refreshes(metrics.OutcomeSuccess).Inc()
	r.logger.Debug("snapshot refreshed", "account", account)
	return s, nil
}

package vault

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bgsc/vaultui/log"
	"github.com/bgsc/vaultui/metrics"
)

const testTimeout = 2 * time.Second

func newTestOperations(c Contract) *Operations {
	return NewOperations(c, log.NewNopLogger(), metrics.NewDefaultVaultMetrics("vault_test"))
}

func TestOperationSuccess(t *testing.T) {
	c := newBlockingContract()
	ops := newTestOperations(c)

	done := make(chan Result, 1)
	go func() { done <- ops.Deposit(context.Background(), decimal.NewFromInt(100)) }()

	require.Equal(t, OpDeposit, <-c.started)
	require.True(t, ops.Get(OpDeposit).IsProcessing())
	require.False(t, ops.Get(OpWithdraw).IsProcessing(), "operations are independent")
	require.False(t, ops.Get(OpClaim).IsProcessing(), "operations are independent")

	c.release <- nil
	res := <-done
	require.Equal(t, Result{Success: true}, res)
	require.Equal(t, OperationState{}, ops.Get(OpDeposit).State())
}

func TestOperationFailureCapturesError(t *testing.T) {
	c := newBlockingContract()
	ops := newTestOperations(c)

	done := make(chan Result, 1)
	go func() { done <- ops.ClaimRewards(context.Background()) }()
	<-c.started
	c.release <- errors.New("execution reverted")

	res := <-done
	require.False(t, res.Success)
	require.Equal(t, "execution reverted", res.Error)
	require.Equal(t, OperationState{Error: "execution reverted"}, ops.Get(OpClaim).State())

	// The error slot is reset at the start of the next invocation.
	go func() { done <- ops.ClaimRewards(context.Background()) }()
	<-c.started
	require.Equal(t, OperationState{IsProcessing: true}, ops.Get(OpClaim).State())
	c.release <- nil
	require.True(t, (<-done).Success)
	require.Empty(t, ops.Get(OpClaim).State().Error)
}

func TestOperationBusyIsAdvisory(t *testing.T) {
	c := newBlockingContract()
	ops := newTestOperations(c)
	amount := decimal.NewFromInt(5)

	done := make(chan Result, 2)
	go func() { done <- ops.Withdraw(context.Background(), amount) }()
	go func() { done <- ops.Withdraw(context.Background(), amount) }()
	<-c.started
	<-c.started
	require.Equal(t, 2, c.count(OpWithdraw))

	c.release <- nil
	<-done
	require.True(t, ops.Get(OpWithdraw).IsProcessing(), "second call still running")
	c.release <- nil
	<-done
	require.False(t, ops.Get(OpWithdraw).IsProcessing())
}

func TestOperationCancelled(t *testing.T) {
	c := newBlockingContract()
	ops := newTestOperations(c)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan Result, 1)
	go func() { done <- ops.Deposit(ctx, decimal.NewFromInt(1)) }()
	<-c.started
	cancel()

	select {
	case res := <-done:
		require.False(t, res.Success)
		require.Equal(t, context.Canceled.Error(), res.Error)
	case <-time.After(testTimeout):
		t.Fatal("operation did not observe cancellation")
	}
}

func TestOperationsGetUnknown(t *testing.T) {
	ops := newTestOperations(newBlockingContract())
	require.Nil(t, ops.Get("stake"))
	require.Equal(t, OpClaim, ops.Get(OpClaim).Kind())
}

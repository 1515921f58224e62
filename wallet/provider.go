// Package wallet manages the binding between the dashboard and an external
// wallet provider.
package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
)

// Provider is the wallet provider boundary. Change notifications are
// delivered on the channels passed to the Subscribe methods until the
// returned subscription is released.
type Provider interface {
	// RequestAccounts asks the wallet for the accounts the user exposes.
	RequestAccounts(ctx context.Context) ([]string, error)
	// ChainID returns the current chain id as a hex quantity, e.g. "0x38".
	ChainID(ctx context.Context) (string, error)

	// SubscribeAccountsChanged delivers the full account list whenever it changes.
	SubscribeAccountsChanged(ch chan<- []string) event.Subscription
	// SubscribeChainChanged delivers the hex chain id whenever it changes.
	SubscribeChainChanged(ch chan<- string) event.Subscription
}

// ParseChainID parses a hex chain id. Leading zeros are tolerated.
func ParseChainID(s string) (uint64, error) {
	if id, err := hexutil.DecodeUint64(s); err == nil {
		return id, nil
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	id, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	return id, nil
}

// DisplayAccount returns the EIP-55 checksummed form of a hex address and
// any other string unchanged.
func DisplayAccount(account string) string {
	if common.IsHexAddress(account) {
		return common.HexToAddress(account).Hex()
	}
	return account
}

// ShortAccount abbreviates an account for compact display: 0x1234...abcd.
func ShortAccount(account string) string {
	account = DisplayAccount(account)
	if len(account) <= 12 {
		return account
	}
	return account[:6] + "..." + account[len(account)-4:]
}

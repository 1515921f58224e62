package vault

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time view of the vault. Decimal fields marshal
// to JSON as decimal strings; the zero value renders as "0".
type Snapshot struct {
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	UserBalance    decimal.Decimal `json:"user_balance"`
	APY            decimal.Decimal `json:"apy"`
	PendingRewards decimal.Decimal `json:"pending_rewards"`
	NextRewardTime *time.Time      `json:"next_reward_time,omitempty"`

	// FetchedAt is zero until the first successful fetch.
	FetchedAt time.Time `json:"fetched_at"`
}

// IsZero reports whether no snapshot has been fetched yet.
func (s Snapshot) IsZero() bool {
	return s.FetchedAt.IsZero()
}

// FormatAmount renders d with the given number of decimal places and
// comma thousands separators, e.g. 1234567.891 -> "1,234,567.89".
// Grouping works on the exact decimal string; d never passes through a float.
func FormatAmount(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}

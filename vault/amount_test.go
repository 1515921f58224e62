package vault

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	for _, tc := range []struct {
		input  string
		valid  bool
		reason ValidationReason
		amount string
	}{
		{input: "100", valid: true, amount: "100"},
		{input: "0.5", valid: true, amount: "0.5"},
		{input: " 2.25 ", valid: true, amount: "2.25"},
		{input: "1e3", valid: true, amount: "1000"},
		{input: "", reason: ReasonEmpty},
		{input: "   ", reason: ReasonEmpty},
		{input: "abc", reason: ReasonNotNumeric},
		{input: "12abc", reason: ReasonNotNumeric},
		{input: "1,000", reason: ReasonNotNumeric},
		{input: "0", reason: ReasonNotPositive},
		{input: "0.000", reason: ReasonNotPositive},
		{input: "-5", reason: ReasonNotPositive},
	} {
		t.Run(tc.input, func(t *testing.T) {
			v := ValidateAmount(tc.input)
			require.Equal(t, tc.valid, v.Valid)
			require.Equal(t, tc.reason, v.Reason)
			require.Equal(t, tc.input, v.Input)
			if tc.valid {
				require.NoError(t, v.Err())
				require.True(t, decimal.RequireFromString(tc.amount).Equal(v.Amount))
			} else {
				require.True(t, errors.Is(v.Err(), ErrInvalidAmount))
				require.Contains(t, v.Err().Error(), string(tc.reason))
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	for _, tc := range []struct {
		in     string
		places int32
		out    string
	}{
		{"1234567.89", 2, "1,234,567.89"},
		{"1000", 2, "1,000.00"},
		{"999.999", 2, "1,000.00"},
		{"45.2", 1, "45.2"},
		{"0", 2, "0.00"},
		{"-1234.5", 2, "-1,234.50"},
		{"123456", 0, "123,456"},
		{"12345678901234567.89", 2, "12,345,678,901,234,567.89"},
		{"0.000000000000000001", 18, "0.000000000000000001"},
	} {
		require.Equal(t, tc.out, FormatAmount(decimal.RequireFromString(tc.in), tc.places), tc.in)
	}
}

func TestSnapshotZeroValue(t *testing.T) {
	s := Snapshot{}
	require.True(t, s.IsZero())
	require.Equal(t, "0", s.UserBalance.String())
}

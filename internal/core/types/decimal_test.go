package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMoney_HalfUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0.005", "0.01"},
		{"0.015", "0.02"},
		{"0.025", "0.03"},
		{"2.675", "2.68"},
		{"1.004", "1"},
		{"-0.005", "-0.01"},
		{"1190", "1190"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tt.in))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestRoundQuantity(t *testing.T) {
	got := RoundQuantity(decimal.RequireFromString("1.2345"))
	assert.Equal(t, "1.235", got.String())
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("10.999")
	require.NoError(t, err)
	assert.Equal(t, "11", m.String())

	_, err = NewMoneyFromString("abc")
	assert.Error(t, err)
}

func TestSumMoney(t *testing.T) {
	got := SumMoney(MustMoney("0.10"), MustMoney("0.20"), MustMoney("1190.00"))
	assert.True(t, got.Equal(MustMoney("1190.30")))
}

func TestMinQuantity(t *testing.T) {
	assert.Equal(t, "2", MinQuantity(MustQuantity("2"), MustQuantity("5")).String())
	assert.Equal(t, "2", MinQuantity(MustQuantity("5"), MustQuantity("2")).String())
}

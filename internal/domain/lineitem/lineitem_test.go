package lineitem

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	tests := []struct {
		name                 string
		qty, price, rate     string
		subtotal, tax, total string
	}{
		{"ten at hundred with 19%", "10", "100", "19", "1000", "190", "1190"},
		{"no tax", "3", "2.50", "0", "7.5", "0", "7.5"},
		{"rounding of subtotal", "0.333", "10", "0", "3.33", "0", "3.33"},
		{"half up on tax", "1", "0.05", "10", "0.05", "0.01", "0.06"},
		{"fractional rate", "2", "19.99", "7.5", "39.98", "3", "42.98"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(dec(tt.qty), dec(tt.price), dec(tt.rate))
			assert.True(t, got.Subtotal.Equal(dec(tt.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.TaxTotal.Equal(dec(tt.tax)), "tax %s", got.TaxTotal)
			assert.True(t, got.Total.Equal(dec(tt.total)), "total %s", got.Total)
		})
	}
}

func TestSum_EqualsSumOfLineTotals(t *testing.T) {
	lines := []Line{
		ApplyDefaults(Input{Description: "a", Quantity: dec("10"), UnitPrice: ptr(dec("100")), TaxRate: ptr(dec("19"))}, nil),
		ApplyDefaults(Input{Description: "b", Quantity: dec("0.333"), UnitPrice: ptr(dec("10")), TaxRate: ptr(dec("7"))}, nil),
		ApplyDefaults(Input{Description: "c", Quantity: dec("1"), UnitPrice: ptr(dec("0.05")), TaxRate: ptr(dec("10"))}, nil),
	}

	totals := Sum(lines)

	want := decimal.Zero
	for _, l := range lines {
		want = want.Add(l.Total)
	}
	assert.True(t, totals.Total.Equal(want))
	assert.True(t, totals.Total.Equal(totals.Subtotal.Add(totals.TaxTotal)))
	assert.True(t, Sum(nil).Total.IsZero())
}

func TestApplyDefaults(t *testing.T) {
	productID := id.New()
	d := &Defaults{Name: "Widget", UnitPrice: types.MustMoney("100"), TaxRate: dec("19")}

	l := ApplyDefaults(Input{ProductID: &productID, Quantity: dec("10")}, d)
	assert.Equal(t, "Widget", l.Description)
	assert.True(t, l.UnitPrice.Equal(dec("100")))
	assert.True(t, l.TaxRate.Equal(dec("19")))
	assert.True(t, l.Total.Equal(dec("1190")))

	// explicit values win over defaults, including an explicit zero
	l = ApplyDefaults(Input{ProductID: &productID, Description: "Custom", Quantity: dec("1"),
		UnitPrice: ptr(dec("0")), TaxRate: ptr(dec("0"))}, d)
	assert.Equal(t, "Custom", l.Description)
	assert.True(t, l.UnitPrice.IsZero())
	assert.True(t, l.Total.IsZero())
}

func TestLine_Validate(t *testing.T) {
	ctx := context.Background()
	productID := id.New()

	valid := Line{ProductID: &productID, Quantity: dec("1"), UnitPrice: dec("1"), TaxRate: dec("0")}
	require.NoError(t, valid.Validate(ctx, 0))

	tests := []struct {
		name string
		mut  func(l *Line)
	}{
		{"zero quantity", func(l *Line) { l.Quantity = decimal.Zero }},
		{"negative quantity", func(l *Line) { l.Quantity = dec("-1") }},
		{"negative price", func(l *Line) { l.UnitPrice = dec("-0.01") }},
		{"negative rate", func(l *Line) { l.TaxRate = dec("-1") }},
		{"no product no description", func(l *Line) { l.ProductID = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			tt.mut(&l)
			err := l.Validate(ctx, 3)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, 3, appErr.Details["line"])
		})
	}
}

func ptr[T any](v T) *T { return &v }

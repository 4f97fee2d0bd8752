package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/core/apperror"
	"erpcore/internal/core/id"
	"erpcore/internal/core/types"
)

func TestApply(t *testing.T) {
	pid := id.New()
	tests := []struct {
		name     string
		prev     string
		typ      MovementType
		qty      string
		want     string
		wantCode string
	}{
		{"in", "5", MovementIn, "2.5", "7.5", ""},
		{"out", "5", MovementOut, "5", "0", ""},
		{"out below zero", "5", MovementOut, "5.001", "", apperror.CodeInsufficientStock},
		{"adjustment sets level", "5", MovementAdjustment, "42", "42", ""},
		{"zero quantity", "5", MovementIn, "0", "", apperror.CodeNonPositiveQuantity},
		{"negative quantity", "5", MovementOut, "-1", "", apperror.CodeNonPositiveQuantity},
		{"unknown type", "5", MovementType("teleport"), "1", "", apperror.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(types.MustQuantity(tt.prev), tt.typ, types.MustQuantity(tt.qty), pid)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(types.MustQuantity(tt.want)), "got %s", got)
		})
	}
}

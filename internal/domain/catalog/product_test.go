package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBulkDiscountRuleConfigured(t *testing.T) {
	tests := []struct {
		name     string
		rule     BulkDiscountRule
		expected bool
	}{
		{
			name: "both values set",
			rule: BulkDiscountRule{
				MinQuantity:        decimal.NewFromInt(100),
				DiscountPercentage: decimal.NewFromInt(10),
			},
			expected: true,
		},
		{
			name:     "zero rule",
			rule:     BulkDiscountRule{},
			expected: false,
		},
		{
			name: "missing percentage",
			rule: BulkDiscountRule{
				MinQuantity: decimal.NewFromInt(100),
			},
			expected: false,
		},
		{
			name: "missing threshold",
			rule: BulkDiscountRule{
				DiscountPercentage: decimal.NewFromInt(10),
			},
			expected: false,
		},
		{
			name: "negative values",
			rule: BulkDiscountRule{
				MinQuantity:        decimal.NewFromInt(-5),
				DiscountPercentage: decimal.NewFromInt(10),
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.rule.Configured())
		})
	}
}

package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

func TestEstimateWithPricing(t *testing.T) {
	tests := []struct {
		name     string
		pricing  ModelPricing
		usage    model.Usage
		expected float64
	}{
		{
			name:     "input and output only",
			pricing:  ModelPricing{Input: 3.00, Output: 15.00, CacheCreation: 3.75, CacheRead: 0.30},
			usage:    model.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000},
			expected: 18.0,
		},
		{
			name:    "all four counters",
			pricing: ModelPricing{Input: 3.00, Output: 15.00, CacheCreation: 3.75, CacheRead: 0.30},
			usage: model.Usage{
				InputTokens:              100_000,
				OutputTokens:             50_000,
				CacheCreationInputTokens: 200_000,
				CacheReadInputTokens:     400_000,
			},
			// 0.3 + 0.75 + 0.75 + 0.12
			expected: 1.92,
		},
		{
			name:     "zero usage costs nothing",
			pricing:  ModelPricing{Input: 3.00, Output: 15.00},
			usage:    model.Usage{},
			expected: 0,
		},
		{
			name:     "sub-cent amounts keep six digits",
			pricing:  ModelPricing{Input: 3.00, Output: 15.00},
			usage:    model.Usage{InputTokens: 1, OutputTokens: 1},
			expected: 0.000018,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EstimateWithPricing(tt.pricing, tt.usage), 1e-9)
		})
	}
}

func TestEstimateCostUnknownModelUsesDefault(t *testing.T) {
	usage := model.Usage{InputTokens: 1_000_000}
	assert.InDelta(t, 3.00, EstimateCost("no-such-model", usage), 1e-9)
}

func TestEstimatorFallsBackWithoutProvider(t *testing.T) {
	usage := model.Usage{OutputTokens: 1_000_000}

	var e *Estimator
	assert.InDelta(t, 15.00, e.Estimate(context.Background(), model.ModelSonnet4, usage), 1e-9)

	e = NewEstimator(nil)
	assert.InDelta(t, 15.00, e.Estimate(context.Background(), model.ModelSonnet4, usage), 1e-9)
}

func TestEstimatorUsesProvider(t *testing.T) {
	e := NewEstimator(NewDefaultProvider())
	usage := model.Usage{InputTokens: 2_000_000}
	assert.InDelta(t, 1.60, e.Estimate(context.Background(), model.ModelHaiku35, usage), 1e-9)
}

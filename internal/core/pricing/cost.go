package pricing

import (
	"context"
	"math"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

// costPrecision is the number of fractional digits kept on every
// estimate. Six digits preserve sub-cent comparisons without letting
// rounding drift accumulate across aggregation.
const costPrecision = 1e6

// EstimateWithPricing computes the cost of the given usage at the
// given rates. Rates are expressed in USD per million tokens.
func EstimateWithPricing(p ModelPricing, u model.Usage) float64 {
	cost := float64(u.InputTokens) / 1_000_000 * p.Input
	cost += float64(u.OutputTokens) / 1_000_000 * p.Output
	cost += float64(u.CacheCreationInputTokens) / 1_000_000 * p.CacheCreation
	cost += float64(u.CacheReadInputTokens) / 1_000_000 * p.CacheRead
	return math.Round(cost*costPrecision) / costPrecision
}

// EstimateCost is the static-table shortcut: model name plus usage,
// default entry for unknown models.
func EstimateCost(modelName string, u model.Usage) float64 {
	return EstimateWithPricing(GetPricing(modelName), u)
}

// Estimator computes call costs against a PricingProvider, falling
// back to the static table when the provider has no entry.
type Estimator struct {
	provider PricingProvider
}

func NewEstimator(provider PricingProvider) *Estimator {
	return &Estimator{provider: provider}
}

// Estimate returns the cost of usage for modelName. Provider failures
// degrade to the static table; this never returns an error because the
// observation path has nowhere to surface one.
func (e *Estimator) Estimate(ctx context.Context, modelName string, u model.Usage) float64 {
	if e == nil || e.provider == nil {
		return EstimateCost(modelName, u)
	}
	p, err := e.provider.GetPricing(ctx, modelName)
	if err != nil {
		return EstimateCost(modelName, u)
	}
	return EstimateWithPricing(p, u)
}

package pricing

import "github.com/penwyp/go-claude-spend/internal/core/model"

type SourceConfig struct {
	PricingSource      string `json:"pricingSource"`
	PricingOfflineMode bool   `json:"pricingOfflineMode"`
}

// ModelPricing defines token pricing for different Claude models
type ModelPricing struct {
	Input         float64 // Per million tokens
	Output        float64 // Per million tokens
	CacheCreation float64 // Per million tokens
	CacheRead     float64 // Per million tokens
}

// modelPricingMap stores pricing for all Claude models
var modelPricingMap = map[string]ModelPricing{
	model.ModelDefault: {
		Input:         3.00,
		Output:        15.00,
		CacheCreation: 3.75,
		CacheRead:     0.30,
	},
	model.ModelSonnet35: {
		Input:         3.00,
		Output:        15.00,
		CacheCreation: 3.75,
		CacheRead:     0.30,
	},
	model.ModelHaiku35: {
		Input:         0.80,
		Output:        4.00,
		CacheCreation: 1.00,
		CacheRead:     0.08,
	},
	model.ModelSonnet4: {
		Input:         3.00,
		Output:        15.00,
		CacheCreation: 3.75,
		CacheRead:     0.30,
	},
	model.ModelOpus4: {
		Input:         15.00,
		Output:        75.00,
		CacheCreation: 18.75,
		CacheRead:     1.50,
	},
	model.ModelOpus41: {
		Input:         15.00,
		Output:        75.00,
		CacheCreation: 18.75,
		CacheRead:     1.50,
	},
}

// GetPricing returns the pricing for a specific model. Unknown models
// fall back to the default entry instead of failing.
func GetPricing(modelName string) ModelPricing {
	if pricing, ok := modelPricingMap[modelName]; ok {
		return pricing
	}
	return modelPricingMap[model.ModelDefault]
}

// GetAllPricings returns all model pricings
func GetAllPricings() map[string]ModelPricing {
	// Return a copy to prevent external modification
	result := make(map[string]ModelPricing)
	for k, v := range modelPricingMap {
		result[k] = v
	}
	return result
}

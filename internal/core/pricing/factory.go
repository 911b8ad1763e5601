package pricing

import (
	"fmt"

	"github.com/penwyp/go-claude-spend/internal/util"
)

// CreatePricingProvider creates a pricing provider based on configuration
func CreatePricingProvider(cfg *SourceConfig, cacheDir string) (PricingProvider, error) {
	switch cfg.PricingSource {
	case "default", "":
		util.LogDebug("Using static pricing table")
		return NewDefaultProvider(), nil
	case "litellm":
		util.LogDebug(fmt.Sprintf("Using LiteLLM pricing: offline_mode=%t, cache_dir=%s",
			cfg.PricingOfflineMode, cacheDir))
		return NewLiteLLMProvider(cacheDir, cfg.PricingOfflineMode), nil
	default:
		return nil, fmt.Errorf("unknown pricing source: %s", cfg.PricingSource)
	}
}

package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-spend/internal/util"
)

const (
	liteLLMPricingURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"
	cacheExpiration   = 24 * time.Hour
	cacheFileName     = "pricing.json"
)

// LiteLLMProvider implements PricingProvider by fetching pricing from
// LiteLLM's repository. Fetched data is persisted under cacheDir so
// offline mode can serve the last known snapshot.
type LiteLLMProvider struct {
	mu            sync.RWMutex
	pricing       map[string]ModelPricing
	lastFetchTime time.Time
	httpClient    *http.Client
	cacheDir      string
	offline       bool
}

// liteLLMModel represents the structure of a model in LiteLLM's pricing data
type liteLLMModel struct {
	InputCostPerToken           *float64 `json:"input_cost_per_token"`
	OutputCostPerToken          *float64 `json:"output_cost_per_token"`
	CacheCreationInputTokenCost *float64 `json:"cache_creation_input_token_cost"`
	CacheReadInputTokenCost     *float64 `json:"cache_read_input_token_cost"`
}

// pricingSnapshot is the on-disk cache format.
type pricingSnapshot struct {
	FetchedAt int64                   `json:"fetchedAt"`
	Pricing   map[string]ModelPricing `json:"pricing"`
}

// NewLiteLLMProvider creates a new LiteLLM pricing provider
func NewLiteLLMProvider(cacheDir string, offline bool) *LiteLLMProvider {
	return &LiteLLMProvider{
		pricing: make(map[string]ModelPricing),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cacheDir: cacheDir,
		offline:  offline,
	}
}

// GetPricing returns the pricing for a specific model
func (p *LiteLLMProvider) GetPricing(ctx context.Context, modelName string) (ModelPricing, error) {
	if err := p.ensurePricingLoaded(ctx); err != nil {
		return ModelPricing{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if pricing, ok := p.pricing[modelName]; ok {
		return pricing, nil
	}

	// Try with provider prefix variations
	variations := []string{
		fmt.Sprintf("anthropic/%s", modelName),
		fmt.Sprintf("claude-3-5-%s", modelName),
		fmt.Sprintf("claude-%s", modelName),
	}
	for _, variant := range variations {
		if pricing, ok := p.pricing[variant]; ok {
			return pricing, nil
		}
	}

	// Try partial matches
	modelLower := strings.ToLower(modelName)
	for key, pricing := range p.pricing {
		keyLower := strings.ToLower(key)
		if strings.Contains(keyLower, modelLower) || strings.Contains(modelLower, keyLower) {
			return pricing, nil
		}
	}

	return ModelPricing{}, fmt.Errorf("%w: %s", ErrPricingNotFound, modelName)
}

// GetAllPricings returns all available model pricings
func (p *LiteLLMProvider) GetAllPricings(ctx context.Context) (map[string]ModelPricing, error) {
	if err := p.ensurePricingLoaded(ctx); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]ModelPricing)
	for k, v := range p.pricing {
		result[k] = v
	}
	return result, nil
}

// RefreshPricing forces a refresh of pricing data
func (p *LiteLLMProvider) RefreshPricing(ctx context.Context) error {
	return p.fetchPricing(ctx)
}

// GetProviderName returns the name of this pricing provider
func (p *LiteLLMProvider) GetProviderName() string {
	return "litellm"
}

// ensurePricingLoaded checks if pricing data needs to be loaded or refreshed
func (p *LiteLLMProvider) ensurePricingLoaded(ctx context.Context) error {
	p.mu.RLock()
	needsRefresh := time.Since(p.lastFetchTime) > cacheExpiration || len(p.pricing) == 0
	p.mu.RUnlock()

	if !needsRefresh {
		return nil
	}

	if p.offline {
		util.LogDebug("Offline pricing mode, loading cached snapshot")
		return p.loadSnapshot()
	}

	if err := p.fetchPricing(ctx); err != nil {
		// Network failure falls back to the last persisted snapshot.
		util.LogDebug(fmt.Sprintf("Pricing fetch failed, trying snapshot: %v", err))
		if snapErr := p.loadSnapshot(); snapErr == nil {
			return nil
		}
		return err
	}
	return nil
}

// fetchPricing fetches the latest pricing data from LiteLLM
func (p *LiteLLMProvider) fetchPricing(ctx context.Context) error {
	util.LogDebug(fmt.Sprintf("Fetching pricing data from LiteLLM: %s", liteLLMPricingURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, liteLLMPricingURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch pricing data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var rawData map[string]json.RawMessage
	if err := sonic.Unmarshal(body, &rawData); err != nil {
		return fmt.Errorf("failed to parse pricing data: %w", err)
	}

	newPricing := make(map[string]ModelPricing)
	for modelName, rawModel := range rawData {
		var m liteLLMModel
		if err := sonic.Unmarshal(rawModel, &m); err != nil {
			// Skip models that don't match our expected structure
			continue
		}
		if m.InputCostPerToken == nil || m.OutputCostPerToken == nil {
			continue
		}

		// Convert from cost per token to cost per million tokens
		pricing := ModelPricing{
			Input:  *m.InputCostPerToken * 1_000_000,
			Output: *m.OutputCostPerToken * 1_000_000,
		}
		if m.CacheCreationInputTokenCost != nil {
			pricing.CacheCreation = *m.CacheCreationInputTokenCost * 1_000_000
		} else {
			pricing.CacheCreation = pricing.Input * 1.25
		}
		if m.CacheReadInputTokenCost != nil {
			pricing.CacheRead = *m.CacheReadInputTokenCost * 1_000_000
		} else {
			pricing.CacheRead = pricing.Input * 0.1
		}

		newPricing[modelName] = pricing
	}

	p.mu.Lock()
	p.pricing = newPricing
	p.lastFetchTime = time.Now()
	p.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Loaded %d model pricings from LiteLLM", len(newPricing)))
	p.saveSnapshot()
	return nil
}

func (p *LiteLLMProvider) cachePath() string {
	return filepath.Join(p.cacheDir, cacheFileName)
}

func (p *LiteLLMProvider) saveSnapshot() {
	if p.cacheDir == "" {
		return
	}
	p.mu.RLock()
	snap := pricingSnapshot{
		FetchedAt: p.lastFetchTime.Unix(),
		Pricing:   p.pricing,
	}
	p.mu.RUnlock()

	data, err := sonic.Marshal(snap)
	if err != nil {
		return
	}
	if err := os.MkdirAll(p.cacheDir, 0755); err != nil {
		util.LogDebug(fmt.Sprintf("Failed to create pricing cache dir: %v", err))
		return
	}
	if err := os.WriteFile(p.cachePath(), data, 0644); err != nil {
		util.LogDebug(fmt.Sprintf("Failed to persist pricing snapshot: %v", err))
	}
}

func (p *LiteLLMProvider) loadSnapshot() error {
	if p.cacheDir == "" {
		return fmt.Errorf("no pricing cache directory configured")
	}
	data, err := os.ReadFile(p.cachePath())
	if err != nil {
		return fmt.Errorf("failed to read pricing snapshot: %w", err)
	}
	var snap pricingSnapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse pricing snapshot: %w", err)
	}
	if len(snap.Pricing) == 0 {
		return fmt.Errorf("pricing snapshot is empty")
	}

	p.mu.Lock()
	p.pricing = snap.Pricing
	p.lastFetchTime = time.Unix(snap.FetchedAt, 0)
	p.mu.Unlock()

	util.LogDebug(fmt.Sprintf("Loaded %d model pricings from snapshot", len(snap.Pricing)))
	return nil
}

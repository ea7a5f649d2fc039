package reply

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// ModelInfo describes one model a provider serves.
type ModelInfo struct {
	ID        string `yaml:"id"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ProviderModels is the per-provider model list loaded from YAML.
type ProviderModels struct {
	Provider string      `yaml:"provider"`
	Models   []ModelInfo `yaml:"models"`
}

// Registry holds the known provider/model combinations. The configured
// model is validated against it at boot so a typo fails fast instead of
// on the first chat request.
type Registry struct {
	providers map[string]*ProviderModels
	mu        sync.RWMutex
}

// NewRegistry creates a registry from the embedded YAML files.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderModels),
	}

	for _, provider := range []string{"anthropic", "lorem"} {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s models: %w", provider, err)
		}
	}

	return r, nil
}

func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerModels ProviderModels
	if err := yaml.Unmarshal(data, &providerModels); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	r.providers[provider] = &providerModels
	r.mu.Unlock()

	return nil
}

// Lookup returns the model info for a provider/model pair.
func (r *Registry) Lookup(provider, model string) (*ModelInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerModels, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	for i := range providerModels.Models {
		if providerModels.Models[i].ID == model {
			return &providerModels.Models[i], nil
		}
	}

	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

package lorem

import (
	"context"
	"fmt"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"

	"parley/internal/domain/services"
)

// Provider is a mock completion provider that generates lorem ipsum text.
// Used for development and testing without requiring real API keys.
type Provider struct {
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// Complete generates a short lorem ipsum reply. lorem-slow adds a delay to
// simulate a blocking provider call, which makes timeout paths testable.
func (p *Provider) Complete(ctx context.Context, req *services.CompletionRequest) (string, error) {
	if !p.SupportsModel(req.Model) {
		return "", fmt.Errorf("model '%s' is not supported by lorem provider", req.Model)
	}

	if strings.Contains(req.Model, "slow") {
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return p.generator.Paragraph(2, 4), nil
}

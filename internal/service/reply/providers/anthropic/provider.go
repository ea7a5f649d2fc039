package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"parley/internal/domain/models"
	"parley/internal/domain/services"
)

// Provider implements the services.Provider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// Complete performs a single Messages API call and returns the reply text.
func (p *Provider) Complete(ctx context.Context, req *services.CompletionRequest) (string, error) {
	if !p.SupportsModel(req.Model) {
		return "", fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model)
	}

	messages, err := convertMessages(req.Messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages: %w", err)
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(req.MaxTokens),
	}

	if req.System != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	return extractText(message)
}

// convertMessages converts turns to Anthropic SDK format.
func convertMessages(turns []models.Turn) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(turns))

	for i, turn := range turns {
		block := anthropic.NewTextBlock(turn.Text)

		switch turn.Role {
		case models.RoleUser:
			result = append(result, anthropic.NewUserMessage(block))
		case models.RoleAssistant:
			result = append(result, anthropic.NewAssistantMessage(block))
		default:
			return nil, fmt.Errorf("message %d: unsupported role '%s'", i, turn.Role)
		}
	}

	return result, nil
}

// extractText concatenates the text content blocks of a response.
func extractText(msg *anthropic.Message) (string, error) {
	var sb strings.Builder

	for _, content := range msg.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("response contained no text content (stop_reason=%s)", msg.StopReason)
	}

	return sb.String(), nil
}

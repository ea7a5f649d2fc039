// Package reply builds completion requests from stored conversation
// history and delegates them to a configured provider.
package reply

import (
	"context"
	"log/slog"

	"parley/internal/domain"
	"parley/internal/domain/models"
	"parley/internal/domain/services"
)

// systemInstruction is the fixed system turn prepended to every request.
const systemInstruction = "You are a helpful assistant."

// Generator implements services.ReplyGenerator over a single provider and
// model. It performs one synchronous call per invocation; bounded timeouts
// come from the caller's context.
type Generator struct {
	provider  services.Provider
	model     string
	maxTokens int
	logger    *slog.Logger
}

// NewGenerator wires a generator to a provider and model.
func NewGenerator(provider services.Provider, model string, maxTokens int, logger *slog.Logger) services.ReplyGenerator {
	return &Generator{
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Generate produces an assistant reply for userText given the stored
// history. Provider failures are returned as *domain.GenerationError so
// callers can never mistake a failure message for assistant content.
func (g *Generator) Generate(ctx context.Context, userText string, prior []models.Turn) (string, error) {
	req := &services.CompletionRequest{
		Model:     g.model,
		System:    systemInstruction,
		Messages:  buildMessages(prior, userText),
		MaxTokens: g.maxTokens,
	}

	text, err := g.provider.Complete(ctx, req)
	if err != nil {
		g.logger.Error("completion failed",
			"provider", g.provider.Name(),
			"model", g.model,
			"error", err,
		)
		return "", &domain.GenerationError{
			Provider: g.provider.Name(),
			Reason:   err.Error(),
			Err:      err,
		}
	}

	return text, nil
}

// buildMessages maps the stored history role-for-role and appends the new
// user turn last. Stored system turns are dropped from the message list;
// the fixed instruction already rides in CompletionRequest.System.
func buildMessages(prior []models.Turn, userText string) []models.Turn {
	messages := make([]models.Turn, 0, len(prior)+1)
	for _, turn := range prior {
		if turn.Role == models.RoleSystem {
			continue
		}
		messages = append(messages, turn)
	}
	messages = append(messages, models.Turn{Role: models.RoleUser, Text: userText})
	return messages
}

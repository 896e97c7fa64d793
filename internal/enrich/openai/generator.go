// Package openai generates bill enrichments through any OpenAI-compatible
// chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/vietddude/legisync/internal/enrich"
)

// maxParseAttempts bounds re-asking the model after malformed JSON.
const maxParseAttempts = 2

// Generator implements enrich.Generator.
type Generator struct {
	client llms.Model
	model  string
}

var _ enrich.Generator = (*Generator)(nil)

// New creates a generator from the enrichment config. An empty API key is
// sent as "none" for local servers that skip authentication.
func New(cfg enrich.Config) (*Generator, error) {
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}
	opts := []openai.Option{openai.WithToken(token), openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewWithModel(client, cfg.Model), nil
}

// NewWithModel wraps an existing langchaingo model.
func NewWithModel(client llms.Model, model string) *Generator {
	return &Generator{client: client, model: model}
}

// Generate asks the model for a JSON explanation of the bill.
func (g *Generator) Generate(ctx context.Context, req enrich.Request) (enrich.Result, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, enrich.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, enrich.UserPrompt(req)),
	}

	var (
		prompt, completion int
		lastErr            error
	)
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		resp, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.2), llms.WithJSONMode())
		if err != nil {
			return enrich.Result{}, err
		}
		if len(resp.Choices) == 0 {
			return enrich.Result{}, errors.New("no choices returned from model")
		}
		choice := resp.Choices[0]
		prompt += intInfo(choice.GenerationInfo, "PromptTokens")
		completion += intInfo(choice.GenerationInfo, "CompletionTokens")

		res, err := enrich.ParseResponse(choice.Content)
		if err != nil {
			lastErr = err
			continue
		}
		res.Model = g.model
		res.PromptTokens = prompt
		res.CompletionTokens = completion
		return res, nil
	}
	return enrich.Result{}, fmt.Errorf("parse model response after %d attempts: %w", maxParseAttempts, lastErr)
}

func intInfo(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Package gemini generates bill enrichments with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vietddude/legisync/internal/enrich"
)

// contentModel is the part of *genai.GenerativeModel the generator calls.
type contentModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Generator implements enrich.Generator.
type Generator struct {
	client *genai.Client
	model  contentModel
	name   string
}

var _ enrich.Generator = (*Generator)(nil)

// New connects to the Gemini API. Close releases the client.
func New(ctx context.Context, cfg enrich.Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	m := client.GenerativeModel(cfg.Model)
	m.SetTemperature(0.2)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(enrich.SystemPrompt)}}

	return &Generator{client: client, model: m, name: cfg.Model}, nil
}

// Close releases the underlying client.
func (g *Generator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Generate asks the model for a JSON explanation of the bill.
func (g *Generator) Generate(ctx context.Context, req enrich.Request) (enrich.Result, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(enrich.UserPrompt(req)))
	if err != nil {
		return enrich.Result{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return enrich.Result{}, errors.New("no candidates returned from model")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	res, err := enrich.ParseResponse(text.String())
	if err != nil {
		return enrich.Result{}, err
	}
	res.Model = g.name
	if u := resp.UsageMetadata; u != nil {
		res.PromptTokens = int(u.PromptTokenCount)
		res.CompletionTokens = int(u.CandidatesTokenCount)
	}
	return res, nil
}

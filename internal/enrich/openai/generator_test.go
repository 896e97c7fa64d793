package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/vietddude/legisync/internal/enrich"
)

type fakeModel struct {
	replies []string
	err     error
	calls   int
	last    []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.last = msgs
	if f.err != nil {
		return nil, f.err
	}
	reply := f.replies[min(f.calls-1, len(f.replies)-1)]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        reply,
		GenerationInfo: map[string]any{"PromptTokens": 120, "CompletionTokens": 40},
	}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, opts...)
}

var req = enrich.Request{BillID: 7, TypeCode: "PL", Number: 1087, Year: 2024, Summary: "Altera a Lei do SUS"}

func TestGenerate(t *testing.T) {
	m := &fakeModel{replies: []string{`{"headline":"Muda o SUS","summary":"Explica.","impact":["x"],"confidence":0.8}`}}
	g := NewWithModel(m, "gpt-4o-mini")

	res, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Muda o SUS", res.Headline)
	assert.Equal(t, "gpt-4o-mini", res.Model)
	assert.Equal(t, 120, res.PromptTokens)
	assert.Equal(t, 40, res.CompletionTokens)

	require.Len(t, m.last, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, m.last[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, m.last[1].Role)
}

func TestGenerateRetriesMalformedJSON(t *testing.T) {
	m := &fakeModel{replies: []string{"Claro! Aqui está:", `{"headline":"h","summary":"s","confidence":1}`}}
	res, err := NewWithModel(m, "m").Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, m.calls)
	assert.Equal(t, 240, res.PromptTokens)
}

func TestGenerateGivesUp(t *testing.T) {
	m := &fakeModel{replies: []string{"nope"}}
	_, err := NewWithModel(m, "m").Generate(context.Background(), req)
	assert.ErrorIs(t, err, enrich.ErrInvalidResult)
	assert.Equal(t, maxParseAttempts, m.calls)
}

func TestGeneratePropagatesClientError(t *testing.T) {
	boom := errors.New("429 too many requests")
	m := &fakeModel{err: boom}
	_, err := NewWithModel(m, "m").Generate(context.Background(), req)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.calls)
}

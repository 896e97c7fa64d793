package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/infra/storage/memory"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func conf(v float64) *float64 { return &v }

type mockGenerator struct {
	mu       sync.Mutex
	results  map[int64]Result
	failures map[int64]error
	requests map[int64]Request
}

func (m *mockGenerator) Generate(_ context.Context, req Request) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requests == nil {
		m.requests = map[int64]Request{}
	}
	m.requests[req.BillID] = req
	if err := m.failures[req.BillID]; err != nil {
		return Result{}, err
	}
	return m.results[req.BillID], nil
}

func seed(t *testing.T) *memory.MemoryStorage {
	t.Helper()
	ctx := context.Background()
	store := memory.NewMemoryStorage()
	_, err := store.ReplaceBills(ctx, []domain.Bill{
		{ID: 1, TypeCode: "PL", Number: 10, Year: 2024, Summary: "Cria o programa de merenda escolar integral"},
		{ID: 2, TypeCode: "PL", Number: 11, Year: 2024, Summary: "Altera alíquotas do imposto de renda"},
		{ID: 3, TypeCode: "PEC", Number: 1, Year: 2024, Summary: "Dispõe sobre o orçamento"},
		{ID: 4, TypeCode: "REQ", Number: 5, Year: 2024, Summary: ""},
	})
	require.NoError(t, err)
	_, err = store.UpsertCategories(ctx, domain.Catalog)
	require.NoError(t, err)
	_, err = store.UpsertBillCategories(ctx, []domain.BillCategory{
		{BillID: 1, CategoryCode: domain.CategoryEducation, Origin: domain.OriginRule, Confidence: 1},
	})
	require.NoError(t, err)
	return store
}

func newService(t *testing.T, store *memory.MemoryStorage, gen Generator) *Service {
	t.Helper()
	s, err := NewService(store, gen, Config{PromptVersion: "v1", Model: "test-model", Workers: 2, ReviewThreshold: 0.7}, discard)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestRunStoresValidResults(t *testing.T) {
	store := seed(t)
	gen := &mockGenerator{
		results: map[int64]Result{
			1: {Headline: "Merenda o dia todo", Summary: "Escolas passam a servir refeições no período integral.", Impact: []string{"Mais refeições"}, Confidence: conf(0.9)},
			2: {Headline: "Muda o IR", Summary: "Altera alíquotas.", Confidence: conf(0.5), Model: "other-model"},
			3: {Headline: "Orçamento", Summary: "Sem confiança informada."},
		},
	}
	s := newService(t, store, gen)

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Attempted: 3, Stored: 2, Failed: 1}, sum)

	assert.Equal(t, []string{domain.CategoryEducation}, gen.requests[1].Categories)
	_, asked := gen.requests[4]
	assert.False(t, asked, "bills without text are not sent")

	e, err := store.GetEnrichment(context.Background(), 1, "v1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "test-model", e.Model)
	assert.False(t, e.NeedsReview)
	assert.Equal(t, []string{"Mais refeições"}, e.Impact)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), e.GeneratedAt)

	e, err = store.GetEnrichment(context.Background(), 2, "v1")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.NeedsReview)
	assert.Equal(t, "other-model", e.Model)

	e, err = store.GetEnrichment(context.Background(), 3, "v1")
	require.NoError(t, err)
	assert.Nil(t, e, "missing confidence is never defaulted")
}

func TestRunSkipsAlreadyEnriched(t *testing.T) {
	store := seed(t)
	gen := &mockGenerator{results: map[int64]Result{
		1: {Headline: "h", Summary: "s", Confidence: conf(1)},
		2: {Headline: "h", Summary: "s", Confidence: conf(1)},
		3: {Headline: "h", Summary: "s", Confidence: conf(1)},
	}}
	s := newService(t, store, gen)

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Stored)

	sum, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)
}

func TestRunCountsGeneratorFailures(t *testing.T) {
	store := seed(t)
	gen := &mockGenerator{
		results:  map[int64]Result{1: {Headline: "h", Summary: "s", Confidence: conf(0.8)}},
		failures: map[int64]error{2: errors.New("rate limited"), 3: errors.New("timeout")},
	}
	s := newService(t, store, gen)

	sum, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Attempted: 3, Stored: 1, Failed: 2}, sum)
}

func TestNewServiceRequiresPromptVersion(t *testing.T) {
	_, err := NewService(memory.NewMemoryStorage(), &mockGenerator{}, Config{}, discard)
	assert.Error(t, err)
}

func TestResultValidate(t *testing.T) {
	assert.NoError(t, Result{Headline: "h", Summary: "s", Confidence: conf(0)}.Validate())
	assert.ErrorIs(t, Result{Summary: "s", Confidence: conf(0.5)}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, Result{Headline: "h", Confidence: conf(0.5)}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, Result{Headline: "h", Summary: "s"}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, Result{Headline: "h", Summary: "s", Confidence: conf(1.2)}.Validate(), ErrInvalidResult)
}

func TestParseResponse(t *testing.T) {
	res, err := ParseResponse("```json\n{\"headline\":\" Merenda \",\"summary\":\"s\",\"impact\":[\"a\",\" \"],\"confidence\":0.75}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Merenda", res.Headline)
	assert.Equal(t, []string{"a"}, res.Impact)
	require.NotNil(t, res.Confidence)
	assert.InDelta(t, 0.75, *res.Confidence, 1e-9)

	res, err = ParseResponse(`{"headline":"h","summary":"s"}`)
	require.NoError(t, err)
	assert.Nil(t, res.Confidence)

	_, err = ParseResponse("not json")
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestUserPrompt(t *testing.T) {
	p := UserPrompt(Request{TypeCode: "PL", Number: 10, Year: 2024, Summary: " Cria o programa ", Categories: []string{"EDUCACAO", "SAUDE"}})
	assert.Contains(t, p, "Proposição: PL 10/2024")
	assert.Contains(t, p, "Temas: EDUCACAO, SAUDE")
	assert.Contains(t, p, "Ementa: Cria o programa\n")
}

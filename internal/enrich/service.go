package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/infra/storage"
	"github.com/vietddude/legisync/internal/metrics"
)

const (
	defaultWorkers    = 4
	defaultBatchLimit = 200
	defaultThreshold  = 0.7
)

// Summary counts the outcome of one enrichment pass.
type Summary struct {
	Attempted int `json:"attempted"`
	Stored    int `json:"stored"`
	Failed    int `json:"failed"`
}

// Service enriches bills that have no explanation for the configured prompt
// version yet.
type Service struct {
	store storage.EnrichmentStore
	gen   Generator
	cfg   Config
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a service. Zero config values take defaults.
func NewService(store storage.EnrichmentStore, gen Generator, cfg Config, log *slog.Logger) (*Service, error) {
	if cfg.PromptVersion == "" {
		return nil, errs.Validationf("enrich", "prompt version is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = defaultBatchLimit
	}
	if cfg.ReviewThreshold == 0 {
		cfg.ReviewThreshold = defaultThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store: store,
		gen:   gen,
		cfg:   cfg,
		log:   log.With("component", "enrich"),
		now:   time.Now,
	}, nil
}

// Run processes one batch of pending bills. Per-bill failures are logged and
// counted; only failures to list work or to start the pool are returned.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	bills, err := s.store.ListBillsForEnrichment(ctx, s.cfg.PromptVersion, s.cfg.BatchLimit)
	if err != nil {
		return Summary{}, err
	}
	if len(bills) == 0 {
		s.log.Info("No bills pending enrichment", "prompt_version", s.cfg.PromptVersion)
		return Summary{}, nil
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return Summary{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu  sync.Mutex
		sum Summary
		wg  sync.WaitGroup
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		sum.Attempted++
		if err != nil {
			sum.Failed++
			return
		}
		sum.Stored++
	}

	for _, bill := range bills {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			record(s.enrichOne(ctx, bill))
		}); err != nil {
			wg.Done()
			record(err)
		}
	}
	wg.Wait()

	s.log.Info("Enrichment finished",
		"attempted", sum.Attempted,
		"stored", sum.Stored,
		"failed", sum.Failed,
		"prompt_version", s.cfg.PromptVersion,
	)
	return sum, ctx.Err()
}

func (s *Service) enrichOne(ctx context.Context, bill domain.BillText) error {
	log := s.log.With("bill_id", bill.ID)

	codes, err := s.store.BillCategoryCodes(ctx, bill.ID)
	if err != nil {
		log.Warn("Failed to load bill categories", "error", errs.Loggable(err))
		metrics.Enrichments.WithLabelValues("failed").Inc()
		return err
	}

	req := Request{
		BillID:     bill.ID,
		TypeCode:   bill.TypeCode,
		Number:     bill.Number,
		Year:       bill.Year,
		Summary:    bill.Summary,
		Categories: codes,
	}
	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		log.Warn("Generation failed", "error", errs.Loggable(err))
		metrics.Enrichments.WithLabelValues("failed").Inc()
		return err
	}
	metrics.EnrichmentTokens.WithLabelValues("prompt").Add(float64(res.PromptTokens))
	metrics.EnrichmentTokens.WithLabelValues("completion").Add(float64(res.CompletionTokens))

	if err := res.Validate(); err != nil {
		log.Warn("Rejected generated enrichment", "error", err)
		metrics.Enrichments.WithLabelValues("rejected").Inc()
		return err
	}

	model := res.Model
	if model == "" {
		model = s.cfg.Model
	}
	e := domain.Enrichment{
		BillID:           bill.ID,
		Model:            model,
		PromptVersion:    s.cfg.PromptVersion,
		Headline:         res.Headline,
		Summary:          res.Summary,
		Impact:           res.Impact,
		Confidence:       *res.Confidence,
		NeedsReview:      *res.Confidence < s.cfg.ReviewThreshold,
		PromptTokens:     res.PromptTokens,
		CompletionTokens: res.CompletionTokens,
		GeneratedAt:      s.now().UTC(),
	}
	if _, err := s.store.UpsertEnrichment(ctx, e); err != nil {
		log.Error("Failed to store enrichment", "error", errs.Loggable(err))
		metrics.Enrichments.WithLabelValues("failed").Inc()
		return err
	}

	metrics.Enrichments.WithLabelValues("stored").Inc()
	log.Debug("Stored enrichment", "needs_review", e.NeedsReview, "confidence", e.Confidence)
	return nil
}

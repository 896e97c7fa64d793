package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/legisync/internal/core/domain"
	"github.com/vietddude/legisync/internal/core/errs"
)

// enrichmentRow is the stored shape of domain.Enrichment; impact is JSON text.
type enrichmentRow struct {
	BillID           int64     `db:"bill_id"`
	Model            string    `db:"model"`
	PromptVersion    string    `db:"prompt_version"`
	Headline         string    `db:"headline"`
	Summary          string    `db:"summary"`
	Impact           string    `db:"impact"`
	Confidence       float64   `db:"confidence"`
	NeedsReview      bool      `db:"needs_review"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	GeneratedAt      time.Time `db:"generated_at"`
}

const upsertEnrichment = `
	INSERT INTO bill_enrichments (
		bill_id, prompt_version, model, headline, summary, impact, confidence,
		needs_review, prompt_tokens, completion_tokens, generated_at
	) VALUES (
		:bill_id, :prompt_version, :model, :headline, :summary, :impact, :confidence,
		:needs_review, :prompt_tokens, :completion_tokens, :generated_at
	)
	ON CONFLICT (bill_id, prompt_version) DO UPDATE SET
		model = EXCLUDED.model,
		headline = EXCLUDED.headline,
		summary = EXCLUDED.summary,
		impact = EXCLUDED.impact,
		confidence = EXCLUDED.confidence,
		needs_review = EXCLUDED.needs_review,
		prompt_tokens = EXCLUDED.prompt_tokens,
		completion_tokens = EXCLUDED.completion_tokens,
		generated_at = EXCLUDED.generated_at
`

// UpsertEnrichment inserts or overwrites the enrichment for (bill, prompt version).
func (s *Store) UpsertEnrichment(ctx context.Context, e domain.Enrichment) (int64, error) {
	const op = "store.enrichment"
	if e.PromptVersion == "" {
		return 0, errs.Validationf(op, "bill %d: empty prompt version", e.BillID)
	}

	impact := e.Impact
	if impact == nil {
		impact = []string{}
	}
	raw, err := json.Marshal(impact)
	if err != nil {
		return 0, errs.Validation(op, fmt.Errorf("encode impact: %w", err))
	}

	row := enrichmentRow{
		BillID:           e.BillID,
		Model:            e.Model,
		PromptVersion:    e.PromptVersion,
		Headline:         e.Headline,
		Summary:          e.Summary,
		Impact:           string(raw),
		Confidence:       e.Confidence,
		NeedsReview:      e.NeedsReview,
		PromptTokens:     e.PromptTokens,
		CompletionTokens: e.CompletionTokens,
		GeneratedAt:      e.GeneratedAt.UTC(),
	}
	return s.db.inTx(ctx, op, 1, func(u *UnitOfWork) (int64, error) {
		return execEach(ctx, u, upsertEnrichment, []enrichmentRow{row})
	})
}

// GetEnrichment returns the enrichment for (bill, prompt version), or nil.
func (s *Store) GetEnrichment(ctx context.Context, billID int64, promptVersion string) (*domain.Enrichment, error) {
	const op = "store.get_enrichment"

	var row enrichmentRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`
		SELECT bill_id, prompt_version, model, headline, summary, impact, confidence,
			needs_review, prompt_tokens, completion_tokens, generated_at
		FROM bill_enrichments
		WHERE bill_id = ? AND prompt_version = ?`), billID, promptVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(op, err)
	}

	var impact []string
	if err := json.Unmarshal([]byte(row.Impact), &impact); err != nil {
		return nil, errs.Store(op, fmt.Errorf("decode impact of bill %d: %w", billID, err))
	}

	return &domain.Enrichment{
		BillID:           row.BillID,
		Model:            row.Model,
		PromptVersion:    row.PromptVersion,
		Headline:         row.Headline,
		Summary:          row.Summary,
		Impact:           impact,
		Confidence:       row.Confidence,
		NeedsReview:      row.NeedsReview,
		PromptTokens:     row.PromptTokens,
		CompletionTokens: row.CompletionTokens,
		GeneratedAt:      row.GeneratedAt,
	}, nil
}

// ListBillsForEnrichment returns up to limit bills with text and no enrichment
// for promptVersion, ordered by ID.
func (s *Store) ListBillsForEnrichment(ctx context.Context, promptVersion string, limit int) ([]domain.BillText, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []domain.BillText
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT b.id, b.type_code, b.number, b.year, b.summary
		FROM bills b
		WHERE b.summary <> ''
		  AND NOT EXISTS (
			SELECT 1 FROM bill_enrichments e
			WHERE e.bill_id = b.id AND e.prompt_version = ?
		  )
		ORDER BY b.id
		LIMIT ?`), promptVersion, limit)
	if err != nil {
		return nil, classify("store.list_bills_for_enrichment", err)
	}
	return out, nil
}

// BillCategoryCodes returns the distinct category codes assigned to a bill.
func (s *Store) BillCategoryCodes(ctx context.Context, billID int64) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT DISTINCT category_code
		FROM bill_categories
		WHERE bill_id = ?
		ORDER BY category_code`), billID)
	if err != nil {
		return nil, classify("store.bill_category_codes", err)
	}
	return out, nil
}

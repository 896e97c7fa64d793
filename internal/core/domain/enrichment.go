package domain

import "time"

// Enrichment is a generated plain-language explanation of a bill.
// (BillID, PromptVersion) is unique: a new prompt version adds a row.
type Enrichment struct {
	BillID           int64     `db:"bill_id"`
	Model            string    `db:"model"`
	PromptVersion    string    `db:"prompt_version"`
	Headline         string    `db:"headline"`
	Summary          string    `db:"summary"`
	Impact           []string  `db:"-"`
	Confidence       float64   `db:"confidence"`
	NeedsReview      bool      `db:"needs_review"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	GeneratedAt      time.Time `db:"generated_at"`
}

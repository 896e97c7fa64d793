// Package enrich generates plain-language explanations of bills with a
// language model and stores them next to the bill.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Providers understood by the CLI.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds enrichment settings.
type Config struct {
	Provider        string  `yaml:"provider"`
	BaseURL         string  `yaml:"base_url"`
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	PromptVersion   string  `yaml:"prompt_version"`
	Workers         int     `yaml:"workers"`
	ReviewThreshold float64 `yaml:"review_threshold"`
	BatchLimit      int     `yaml:"batch_limit"`
}

// Request is the bill context sent to the model.
type Request struct {
	BillID     int64
	TypeCode   string
	Number     int
	Year       int
	Summary    string
	Categories []string
}

// Label renders the bill reference, e.g. "PL 1087/2024".
func (r Request) Label() string {
	return fmt.Sprintf("%s %d/%d", r.TypeCode, r.Number, r.Year)
}

// Result is a generated explanation. Confidence is nil when the model did
// not report one.
type Result struct {
	Model            string
	Headline         string
	Summary          string
	Impact           []string
	Confidence       *float64
	PromptTokens     int
	CompletionTokens int
}

// ErrInvalidResult marks a generated result that cannot be stored.
var ErrInvalidResult = errors.New("invalid enrichment result")

// Validate rejects empty text and missing or out-of-range confidence.
func (r Result) Validate() error {
	switch {
	case strings.TrimSpace(r.Headline) == "":
		return fmt.Errorf("%w: empty headline", ErrInvalidResult)
	case strings.TrimSpace(r.Summary) == "":
		return fmt.Errorf("%w: empty summary", ErrInvalidResult)
	case r.Confidence == nil:
		return fmt.Errorf("%w: missing confidence", ErrInvalidResult)
	case *r.Confidence < 0 || *r.Confidence > 1:
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidResult, *r.Confidence)
	}
	return nil
}

// Generator produces an explanation for one bill.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Package classify assigns catalog categories to bill text using compiled
// pattern rules. It is pure: no I/O and no mutable state after construction.
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vietddude/legisync/internal/core/domain"
)

// Rule lists the patterns that tag text with one category. Any pattern
// matching anywhere in the text is enough.
type Rule struct {
	Category string
	Patterns []string
}

// Match is one category assigned to a text.
type Match struct {
	Category   string
	Confidence float64
}

type compiledRule struct {
	category string
	patterns []*regexp.Regexp
}

// Engine evaluates every rule against a text and returns all matches in rule order.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles rules. Rule order defines output order.
func NewEngine(rules []Rule) (*Engine, error) {
	seen := make(map[string]bool, len(rules))
	compiled := make([]compiledRule, 0, len(rules))

	for _, r := range rules {
		if !domain.IsCatalogCode(r.Category) {
			return nil, fmt.Errorf("rule for unknown category %q", r.Category)
		}
		if seen[r.Category] {
			return nil, fmt.Errorf("duplicate rule for category %q", r.Category)
		}
		if len(r.Patterns) == 0 {
			return nil, fmt.Errorf("rule for category %q has no patterns", r.Category)
		}
		seen[r.Category] = true

		cr := compiledRule{category: r.Category, patterns: make([]*regexp.Regexp, 0, len(r.Patterns))}
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("category %s: compile %q: %w", r.Category, p, err)
			}
			cr.patterns = append(cr.patterns, re)
		}
		compiled = append(compiled, cr)
	}

	return &Engine{rules: compiled}, nil
}

// Default returns an engine built from DefaultRules.
func Default() *Engine {
	e, err := NewEngine(DefaultRules)
	if err != nil {
		panic(err)
	}
	return e
}

// Classify returns the categories whose rules match text. Empty or blank text
// yields no matches.
func (e *Engine) Classify(text string) []Match {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	folded := fold(text)

	var out []Match
	for _, r := range e.rules {
		for _, re := range r.patterns {
			if re.MatchString(folded) {
				out = append(out, Match{Category: r.category, Confidence: domain.RuleConfidence})
				break
			}
		}
	}
	return out
}

// Categories is Classify reduced to category codes.
func (e *Engine) Categories(text string) []string {
	matches := e.Classify(text)
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, m.Category)
	}
	return codes
}

// fold lower-cases text and strips combining marks ("Orçamento" -> "orcamento").
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

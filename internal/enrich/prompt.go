package enrich

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SystemPrompt instructs the model on tone and output shape.
const SystemPrompt = `Você explica proposições legislativas brasileiras para cidadãos sem formação jurídica.
Responda somente com um objeto JSON com os campos:
  "headline": frase curta (até 90 caracteres) dizendo o que a proposição faz;
  "summary": explicação em linguagem simples, 2 a 4 frases;
  "impact": lista de até 3 efeitos práticos para a população;
  "confidence": número entre 0 e 1 indicando o quanto a ementa sustenta a explicação.
Não invente fatos que não estejam na ementa.`

// UserPrompt renders the bill context.
func UserPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposição: %s\n", req.Label())
	if len(req.Categories) > 0 {
		fmt.Fprintf(&b, "Temas: %s\n", strings.Join(req.Categories, ", "))
	}
	fmt.Fprintf(&b, "Ementa: %s\n", strings.TrimSpace(req.Summary))
	return b.String()
}

type response struct {
	Headline   string   `json:"headline"`
	Summary    string   `json:"summary"`
	Impact     []string `json:"impact"`
	Confidence *float64 `json:"confidence"`
}

// ParseResponse decodes a model reply, tolerating markdown code fences.
func ParseResponse(text string) (Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var r response
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	impact := make([]string, 0, len(r.Impact))
	for _, s := range r.Impact {
		if s = strings.TrimSpace(s); s != "" {
			impact = append(impact, s)
		}
	}
	return Result{
		Headline:   strings.TrimSpace(r.Headline),
		Summary:    strings.TrimSpace(r.Summary),
		Impact:     impact,
		Confidence: r.Confidence,
	}, nil
}

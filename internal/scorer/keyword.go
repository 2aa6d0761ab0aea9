package scorer

import (
	"context"
	"strings"
	"unicode"
)

// KeywordScorer is a lightweight lexical stand-in for the zero-shot model.
// It scores a text against each hypothesis by token overlap: the fraction of
// content tokens from the hypothesis that occur in the text. Deterministic
// and dependency-free, it lets the CLI run end to end on machines without an
// inference backend; real deployments substitute the NLI-backed scorer.
type KeywordScorer struct {
	hypotheses []Hypothesis
	tokens     map[LabelKey][]string
}

var keywordStop = map[string]bool{
	"a": true, "an": true, "and": true, "is": true, "of": true, "or": true,
	"the": true, "this": true, "text": true, "example": true, "expresses": true,
	"describes": true, "mentions": true, "references": true, "states": true,
}

// NewKeywordScorer builds a KeywordScorer over the given hypothesis set.
func NewKeywordScorer(hypotheses []Hypothesis) *KeywordScorer {
	tokens := make(map[LabelKey][]string, len(hypotheses))
	for _, h := range hypotheses {
		tokens[h.Key] = contentTokens(h.Text)
	}
	return &KeywordScorer{hypotheses: hypotheses, tokens: tokens}
}

// Score implements Scorer.
func (s *KeywordScorer) Score(ctx context.Context, text string) (map[LabelKey]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	present := make(map[string]bool)
	for _, tok := range contentTokens(text) {
		present[tok] = true
	}

	out := make(map[LabelKey]float64, len(s.hypotheses))
	for _, h := range s.hypotheses {
		toks := s.tokens[h.Key]
		if len(toks) == 0 {
			out[h.Key] = 0
			continue
		}
		matched := 0
		for _, tok := range toks {
			if present[tok] {
				matched++
			}
		}
		out[h.Key] = float64(matched) / float64(len(toks))
	}
	return out, nil
}

func contentTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	toks := make([]string, 0, len(fields))
	for _, f := range fields {
		if keywordStop[f] || len(f) < 2 {
			continue
		}
		toks = append(toks, f)
	}
	return toks
}

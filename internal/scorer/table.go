package scorer

import (
	"context"
	"strings"
	"sync"
)

// TableScorer is a deterministic in-memory Scorer backed by a lookup table of
// per-text scores. It stands in for the real NLI model in tests and local
// development: scores for known texts come from the table, everything else
// falls back to a fixed default per label.
//
// Unlike a real model handle the table is cheap to copy, but it deliberately
// keeps the Scorer contract: no concurrent mutation, movable across workers.
type TableScorer struct {
	hypotheses []Hypothesis
	rows       map[string]map[LabelKey]float64
	fallback   float64

	mu    sync.Mutex
	calls int
}

// NewTableScorer builds a TableScorer over the given hypothesis set.
func NewTableScorer(hypotheses []Hypothesis) *TableScorer {
	return &TableScorer{
		hypotheses: hypotheses,
		rows:       make(map[string]map[LabelKey]float64),
	}
}

// Set registers the raw scores returned for an exact input text. Labels not
// present in scores report the fallback value.
func (s *TableScorer) Set(text string, scores map[LabelKey]float64) *TableScorer {
	row := make(map[LabelKey]float64, len(scores))
	for k, v := range scores {
		row[k] = v
	}
	s.rows[text] = row
	return s
}

// SetFallback sets the raw score reported for labels with no table entry.
func (s *TableScorer) SetFallback(v float64) *TableScorer {
	s.fallback = v
	return s
}

// Calls reports how many Score invocations the table has served.
func (s *TableScorer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Score implements Scorer.
func (s *TableScorer) Score(ctx context.Context, text string) (map[LabelKey]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	row := s.rows[text]
	out := make(map[LabelKey]float64, len(s.hypotheses))
	for _, h := range s.hypotheses {
		if v, ok := row[h.Key]; ok {
			out[h.Key] = v
			continue
		}
		out[h.Key] = s.fallback
	}
	return out, nil
}

// ScoreBatch implements BatchScorer, preserving input order.
func (s *TableScorer) ScoreBatch(ctx context.Context, texts []string) ([]map[LabelKey]float64, error) {
	out := make([]map[LabelKey]float64, 0, len(texts))
	for _, text := range texts {
		scores, err := s.Score(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, scores)
	}
	return out, nil
}

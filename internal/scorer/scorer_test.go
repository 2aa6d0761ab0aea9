package scorer

import (
	"context"
	"errors"
	"testing"
)

func TestParseLabelKey(t *testing.T) {
	key, err := ParseLabelKey("Task.task")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if key.Category != "Task" || key.Name != "task" {
		t.Fatalf("unexpected key: %+v", key)
	}
	if key.String() != "Task.task" {
		t.Fatalf("round trip changed key: %s", key)
	}

	for _, bad := range []string{"", "Task", ".task", "Task."} {
		if _, err := ParseLabelKey(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func testHypotheses() []Hypothesis {
	return []Hypothesis{
		{Key: LabelKey{Category: "Task", Name: "task"}, Text: "This text describes a task, todo item, or reminder."},
		{Key: LabelKey{Category: "Context", Name: "fact"}, Text: "This text states a factual piece of information."},
	}
}

func TestTableScorerReturnsEveryLabel(t *testing.T) {
	s := NewTableScorer(testHypotheses()).
		Set("buy milk", map[LabelKey]float64{{Category: "Task", Name: "task"}: 0.9})

	scores, err := s.Score(context.Background(), "buy milk")
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected a score for every hypothesis, got %d", len(scores))
	}
	if scores[LabelKey{Category: "Task", Name: "task"}] != 0.9 {
		t.Fatalf("unexpected table score: %v", scores)
	}
	if scores[LabelKey{Category: "Context", Name: "fact"}] != 0 {
		t.Fatalf("expected fallback 0 for unset label")
	}
}

func TestTableScorerEmptyInput(t *testing.T) {
	s := NewTableScorer(testHypotheses())
	if _, err := s.Score(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestTableScorerHonorsCancellation(t *testing.T) {
	s := NewTableScorer(testHypotheses())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Score(ctx, "anything"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTableScorerBatchPreservesOrder(t *testing.T) {
	task := LabelKey{Category: "Task", Name: "task"}
	s := NewTableScorer(testHypotheses()).
		Set("one", map[LabelKey]float64{task: 0.1}).
		Set("two", map[LabelKey]float64{task: 0.2})

	batch, err := s.ScoreBatch(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if batch[0][task] != 0.1 || batch[1][task] != 0.2 {
		t.Fatalf("batch order not preserved: %v", batch)
	}
}

func TestKeywordScorerDeterministicAndBounded(t *testing.T) {
	s := NewKeywordScorer(testHypotheses())

	first, err := s.Score(context.Background(), "add a reminder: renew the passport, that is a todo item")
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	second, _ := s.Score(context.Background(), "add a reminder: renew the passport, that is a todo item")

	task := LabelKey{Category: "Task", Name: "task"}
	if first[task] != second[task] {
		t.Fatalf("keyword scorer not deterministic")
	}
	if first[task] <= 0 {
		t.Fatalf("expected positive overlap for task-like text, got %v", first[task])
	}
	for key, v := range first {
		if v < 0 || v > 1 {
			t.Fatalf("score for %s out of [0,1]: %v", key, v)
		}
	}
}

func TestKeywordScorerEmptyInput(t *testing.T) {
	s := NewKeywordScorer(testHypotheses())
	if _, err := s.Score(context.Background(), ""); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

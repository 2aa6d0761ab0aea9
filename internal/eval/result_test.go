package eval

import (
	"math"
	"testing"
)

func resultWith(id string, correct bool, tallies map[string]LabelTally) *EvalResult {
	r := NewResult()
	r.Total = 1
	if correct {
		r.Correct = 1
	}
	for label, lt := range tallies {
		copied := lt
		r.PerLabel[label] = &copied
	}
	r.Samples = append(r.Samples, SampleResult{ID: id, Correct: correct})
	return r
}

func TestMergeAccumulatesTallies(t *testing.T) {
	a := resultWith("s1", true, map[string]LabelTally{"Task.task": {TP: 1}})
	b := resultWith("s2", false, map[string]LabelTally{"Task.task": {FP: 1}, "Context.fact": {FN: 1}})

	merged := a.Merge(b)
	if merged.Total != 2 || merged.Correct != 1 {
		t.Fatalf("unexpected totals: %+v", merged)
	}
	if lt := merged.PerLabel["Task.task"]; lt.TP != 1 || lt.FP != 1 {
		t.Fatalf("unexpected Task.task tally: %+v", lt)
	}
	if len(merged.Samples) != 2 {
		t.Fatalf("expected 2 sample results, got %d", len(merged.Samples))
	}
}

func TestMergeTalliesCommutative(t *testing.T) {
	mk := func() (*EvalResult, *EvalResult) {
		a := resultWith("s1", true, map[string]LabelTally{"Task.task": {TP: 2, FN: 1}})
		b := resultWith("s2", false, map[string]LabelTally{"Task.task": {FP: 3, TN: 4}})
		return a, b
	}

	a1, b1 := mk()
	ab := a1.Merge(b1)
	a2, b2 := mk()
	ba := b2.Merge(a2)

	if *ab.PerLabel["Task.task"] != *ba.PerLabel["Task.task"] {
		t.Fatalf("tally merge is not commutative: %+v vs %+v",
			ab.PerLabel["Task.task"], ba.PerLabel["Task.task"])
	}
	if ab.Total != ba.Total || ab.Correct != ba.Correct {
		t.Fatalf("totals differ between merge orders")
	}
}

func TestMergeTalliesAssociative(t *testing.T) {
	mk := func() (*EvalResult, *EvalResult, *EvalResult) {
		a := resultWith("s1", true, map[string]LabelTally{"L": {TP: 1}})
		b := resultWith("s2", true, map[string]LabelTally{"L": {FP: 1}})
		c := resultWith("s3", false, map[string]LabelTally{"L": {FN: 1}})
		return a, b, c
	}

	a1, b1, c1 := mk()
	left := a1.Merge(b1).Merge(c1)
	a2, b2, c2 := mk()
	right := a2.Merge(b2.Merge(c2))

	if *left.PerLabel["L"] != *right.PerLabel["L"] || left.Total != right.Total {
		t.Fatalf("tally merge is not associative")
	}
}

func TestMetricsComputation(t *testing.T) {
	r := NewResult()
	r.Total = 10
	r.Correct = 8
	r.PerLabel["Task.task"] = &LabelTally{TP: 6, FP: 2, FN: 4}
	r.PerCategory["Task"] = &CategoryTally{Total: 5, Correct: 4}

	m := r.Metrics()
	if math.Abs(m.Accuracy-0.8) > 1e-9 {
		t.Fatalf("expected accuracy 0.8, got %v", m.Accuracy)
	}
	lm := m.PerLabel["Task.task"]
	if math.Abs(lm.Precision-0.75) > 1e-9 {
		t.Fatalf("expected precision 0.75, got %v", lm.Precision)
	}
	if math.Abs(lm.Recall-0.6) > 1e-9 {
		t.Fatalf("expected recall 0.6, got %v", lm.Recall)
	}
	if math.Abs(lm.F1-2*0.75*0.6/(0.75+0.6)) > 1e-9 {
		t.Fatalf("unexpected f1 %v", lm.F1)
	}
	if math.Abs(m.PerCategory["Task"].Accuracy-0.8) > 1e-9 {
		t.Fatalf("expected category accuracy 0.8, got %v", m.PerCategory["Task"].Accuracy)
	}
}

func TestMetricsExcludesInactiveLabelsFromMacro(t *testing.T) {
	r := NewResult()
	r.Total = 2
	r.Correct = 2
	r.PerLabel["active"] = &LabelTally{TP: 2}
	r.PerLabel["silent"] = &LabelTally{TN: 2}

	m := r.Metrics()
	if m.Precision != 1 || m.Recall != 1 {
		t.Fatalf("silent labels must not dilute macro averages: %+v", m)
	}
}

func TestAddCountsFailures(t *testing.T) {
	r := NewResult()
	sample := &Sample{ID: "s1", Text: "x", PrimaryCategory: "Task"}
	r.Add(sample, &SampleResult{ID: "s1", Err: "model exploded"}, []string{"Task.task"})

	if r.Failed != 1 || r.Correct != 0 || r.Total != 1 {
		t.Fatalf("unexpected tallies after failure: %+v", r)
	}
	if ct := r.PerCategory["Task"]; ct.Total != 1 || ct.Correct != 0 {
		t.Fatalf("failed sample must not count correct: %+v", ct)
	}
}

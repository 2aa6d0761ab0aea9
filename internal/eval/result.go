package eval

// LabelTally is the confusion count for one label across a run.
type LabelTally struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// CategoryTally counts decision correctness for samples whose primary
// category matches.
type CategoryTally struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// SampleResult is the per-sample outcome: what the gate decided and detected
// against what the sample expected. Err is set when evaluation itself failed;
// such samples count toward Failed, not Correct.
type SampleResult struct {
	ID               string   `json:"id"`
	ExpectedDecision Decision `json:"expected_decision"`
	ActualDecision   Decision `json:"actual_decision"`
	Correct          bool     `json:"correct"`
	Overall          float64  `json:"overall"`
	ExpectedLabels   []string `json:"expected_labels"`
	DetectedLabels   []string `json:"detected_labels"`
	ElapsedMS        int64    `json:"elapsed_ms,omitempty"`
	Err              string   `json:"error,omitempty"`
}

// EvalResult aggregates tallies over many samples. Accumulation is mergeable:
// tally merge is associative and commutative, and per-sample results
// concatenate in arrival order.
type EvalResult struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
	Failed  int `json:"failed"`

	PerCategory map[string]*CategoryTally `json:"per_category"`
	PerLabel    map[string]*LabelTally    `json:"per_label"`

	Samples []SampleResult `json:"samples"`

	ElapsedMS  int64   `json:"elapsed_ms"`
	Throughput float64 `json:"throughput"`
}

// NewResult creates an empty result.
func NewResult() *EvalResult {
	return &EvalResult{
		PerCategory: make(map[string]*CategoryTally),
		PerLabel:    make(map[string]*LabelTally),
	}
}

// Add accumulates one sample's outcome. labelUniverse is the full set of
// configured "Category.Name" keys; labels in the universe that are neither
// expected nor detected count as true negatives.
func (r *EvalResult) Add(sample *Sample, sr *SampleResult, labelUniverse []string) {
	r.Total++
	if sr.Err != "" {
		r.Failed++
	} else if sr.Correct {
		r.Correct++
	}

	if sample.PrimaryCategory != "" {
		ct := r.PerCategory[sample.PrimaryCategory]
		if ct == nil {
			ct = &CategoryTally{}
			r.PerCategory[sample.PrimaryCategory] = ct
		}
		ct.Total++
		if sr.Err == "" && sr.Correct {
			ct.Correct++
		}
	}

	expected := make(map[string]bool, len(sr.ExpectedLabels))
	for _, l := range sr.ExpectedLabels {
		expected[l] = true
	}
	detected := make(map[string]bool, len(sr.DetectedLabels))
	for _, l := range sr.DetectedLabels {
		detected[l] = true
	}

	for _, label := range labelUniverse {
		lt := r.PerLabel[label]
		if lt == nil {
			lt = &LabelTally{}
			r.PerLabel[label] = lt
		}
		switch {
		case expected[label] && detected[label]:
			lt.TP++
		case !expected[label] && detected[label]:
			lt.FP++
		case expected[label] && !detected[label]:
			lt.FN++
		default:
			lt.TN++
		}
	}

	r.Samples = append(r.Samples, *sr)
}

// Merge folds another result into this one and returns the receiver. Tally
// merge is order-independent; sample sequences concatenate.
func (r *EvalResult) Merge(other *EvalResult) *EvalResult {
	r.Total += other.Total
	r.Correct += other.Correct
	r.Failed += other.Failed
	r.ElapsedMS += other.ElapsedMS

	for name, ct := range other.PerCategory {
		dst := r.PerCategory[name]
		if dst == nil {
			dst = &CategoryTally{}
			r.PerCategory[name] = dst
		}
		dst.Total += ct.Total
		dst.Correct += ct.Correct
	}
	for name, lt := range other.PerLabel {
		dst := r.PerLabel[name]
		if dst == nil {
			dst = &LabelTally{}
			r.PerLabel[name] = dst
		}
		dst.TP += lt.TP
		dst.FP += lt.FP
		dst.TN += lt.TN
		dst.FN += lt.FN
	}

	r.Samples = append(r.Samples, other.Samples...)
	return r
}

// LabelMetrics are the derived quality numbers for one label.
type LabelMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// CategoryMetrics holds per-category decision accuracy.
type CategoryMetrics struct {
	Accuracy float64 `json:"accuracy"`
}

// Metrics are the derived run-level numbers: decision accuracy plus
// macro-averaged and per-label precision/recall/F1.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	PerCategory map[string]CategoryMetrics `json:"per_category"`
	PerLabel    map[string]LabelMetrics    `json:"per_label"`
}

// Metrics computes the derived numbers from the collected tallies. Labels
// that never occur (TP+FP+FN all zero) are excluded from the macro averages.
func (r *EvalResult) Metrics() Metrics {
	m := Metrics{
		PerCategory: make(map[string]CategoryMetrics, len(r.PerCategory)),
		PerLabel:    make(map[string]LabelMetrics, len(r.PerLabel)),
	}

	if r.Total > 0 {
		m.Accuracy = float64(r.Correct) / float64(r.Total)
	}
	for name, ct := range r.PerCategory {
		cm := CategoryMetrics{}
		if ct.Total > 0 {
			cm.Accuracy = float64(ct.Correct) / float64(ct.Total)
		}
		m.PerCategory[name] = cm
	}

	var sumP, sumR float64
	active := 0
	for name, lt := range r.PerLabel {
		lm := LabelMetrics{}
		if tpfp := lt.TP + lt.FP; tpfp > 0 {
			lm.Precision = float64(lt.TP) / float64(tpfp)
		}
		if tpfn := lt.TP + lt.FN; tpfn > 0 {
			lm.Recall = float64(lt.TP) / float64(tpfn)
		}
		if s := lm.Precision + lm.Recall; s > 0 {
			lm.F1 = 2 * lm.Precision * lm.Recall / s
		}
		m.PerLabel[name] = lm

		if lt.TP+lt.FP+lt.FN > 0 {
			sumP += lm.Precision
			sumR += lm.Recall
			active++
		}
	}
	if active > 0 {
		m.Precision = sumP / float64(active)
		m.Recall = sumR / float64(active)
		if s := m.Precision + m.Recall; s > 0 {
			m.F1 = 2 * m.Precision * m.Recall / s
		}
	}
	return m
}

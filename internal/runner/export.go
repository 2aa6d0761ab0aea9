package runner

import (
	"context"

	"github.com/haasonsaas/sift/internal/eval"
)

// SampleScores is one sample's uncalibrated per-label confidences, keyed by
// "Category.Name".
type SampleScores struct {
	ID             string             `json:"id"`
	Text           string             `json:"text"`
	Scores         map[string]float64 `json:"scores"`
	ExpectedLabels []string           `json:"expected_labels"`
}

// RawExport carries every sample's raw scores, the input for fitting Platt
// calibration parameters offline.
type RawExport struct {
	Samples []SampleScores `json:"samples"`
}

// Export collects raw (uncalibrated) scores for every sample, sequentially
// under the exclusive guard. Samples that fail to score are skipped; the
// export is a training artifact, not a benchmark.
func (r *Runner) Export(ctx context.Context, dataset *eval.SampleDataset, onProgress func(Progress)) (*RawExport, error) {
	total := len(dataset.Samples)
	export := &RawExport{Samples: make([]SampleScores, 0, total)}

	for i := range dataset.Samples {
		if err := ctx.Err(); err != nil {
			return export, err
		}
		sample := &dataset.Samples[i]

		r.mu.Lock()
		raw, err := r.eval.Raw(ctx, sample.Text)
		r.mu.Unlock()

		if onProgress != nil {
			onProgress(Progress{Current: i + 1, Total: total, SampleID: sample.ID, Correct: err == nil})
		}
		if err != nil {
			if r.log != nil {
				r.log.Warn(ctx, "raw export skipped sample", "sample_id", sample.ID, "error", err)
			}
			continue
		}

		scores := make(map[string]float64, len(raw))
		for key, v := range raw {
			scores[key.String()] = v
		}
		export.Samples = append(export.Samples, SampleScores{
			ID:             sample.ID,
			Text:           sample.Text,
			Scores:         scores,
			ExpectedLabels: sample.ExpectedLabels,
		})
	}
	return export, nil
}

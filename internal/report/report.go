// Package report serializes run results to disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/sift/internal/eval"
	"github.com/haasonsaas/sift/internal/runner"
)

// Codec selects the on-disk format. The output file extension follows it.
type Codec string

const (
	CodecJSON Codec = "json"
	CodecYAML Codec = "yaml"
)

// Report is the persisted artifact of one run: the aggregated result, the
// derived metrics, and run identity.
type Report struct {
	RunID      string           `json:"run_id" yaml:"run_id"`
	Dataset    string           `json:"dataset" yaml:"dataset"`
	StartedAt  time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time        `json:"finished_at" yaml:"finished_at"`
	Result     *eval.EvalResult `json:"result" yaml:"result"`
	Metrics    eval.Metrics     `json:"metrics" yaml:"metrics"`
}

// WriteResults serializes a report to <dir>/<dataset stem>.results.<ext> and
// returns the written path.
func WriteResults(dir, datasetPath string, rep *Report, codec Codec) (string, error) {
	if codec == "" {
		codec = CodecJSON
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, stem(datasetPath)+".results."+string(codec))
	data, err := marshal(rep, codec)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write results: %w", err)
	}
	return path, nil
}

// WriteRawExport serializes a raw-score export to
// <dir>/<dataset stem>.raw_scores.json and returns the written path.
func WriteRawExport(dir, datasetPath string, export *runner.RawExport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, stem(datasetPath)+".raw_scores.json")
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode raw export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write raw export: %w", err)
	}
	return path, nil
}

// ReadResults decodes a previously written report, inferring the codec from
// the file extension.
func ReadResults(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	var rep Report
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		if err := yaml.Unmarshal(data, &rep); err != nil {
			return nil, fmt.Errorf("failed to decode results: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &rep); err != nil {
			return nil, fmt.Errorf("failed to decode results: %w", err)
		}
	}
	return &rep, nil
}

func marshal(rep *Report, codec Codec) ([]byte, error) {
	switch codec {
	case CodecYAML:
		data, err := yaml.Marshal(rep)
		if err != nil {
			return nil, fmt.Errorf("failed to encode results: %w", err)
		}
		return data, nil
	case CodecJSON:
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode results: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported results codec %q", codec)
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

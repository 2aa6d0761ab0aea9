package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix mapping environment variables onto config paths.
const EnvPrefix = "SIFT_"

// ApplyEnvOverrides overlays matching environment variables onto the raw
// config map. A single underscore descends one hierarchy level; a doubled
// underscore escapes a literal underscore inside a key:
//
//	SIFT_CONCURRENCY=8                             -> concurrency
//	SIFT_LAYERS_EVAL_MODIFIER_BASE__THRESHOLD=0.8  -> layers.eval.modifier.base_threshold
//
// Values are parsed as YAML scalars so numbers and booleans keep their type.
func ApplyEnvOverrides(raw map[string]any, prefix string) {
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		path := splitEnvPath(strings.TrimPrefix(key, prefix))
		if len(path) == 0 {
			continue
		}
		setPath(raw, path, parseScalar(value))
	}
}

// splitEnvPath splits on single underscores while treating doubled
// underscores as escaped literals, lowercasing each segment.
func splitEnvPath(s string) []string {
	const sentinel = "\x00"
	escaped := strings.ReplaceAll(s, "__", sentinel)
	parts := strings.Split(escaped, "_")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.ReplaceAll(p, sentinel, "_"))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func setPath(raw map[string]any, path []string, value any) {
	cur := raw
	for _, step := range path[:len(path)-1] {
		next, ok := cur[step].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[step] = next
		}
		cur = next
	}
	cur[path[len(path)-1]] = value
}

func parseScalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	// A multi-document or structured value is not an override scalar; keep
	// the raw string in that case.
	switch v.(type) {
	case map[string]any, []any:
		return s
	}
	return v
}

// Package minify decides whether a JavaScript file's declared identifiers
// look machine-generated, the signature of minified or deliberately
// obfuscated code shipped without sources.
package minify

import "bytes"

// Identifier is one named declaration reported by the analysis walk.
type Identifier struct {
	Name string
	Kind string
}

// Config bounds the short-identifier verdict.
type Config struct {
	// MaxAvgLength is the average identifier length at or below which a file
	// is flagged. One- and two-character names dominate minifier output.
	MaxAvgLength float64
	// MinCount is the minimum number of declarations required before the
	// average is meaningful.
	MinCount int
}

// DefaultConfig matches the common minifier fingerprint.
func DefaultConfig() Config {
	return Config{MaxAvgLength: 1.5, MinCount: 5}
}

// Detect reports whether the declared identifiers of a source of srcLen bytes
// indicate minified code.
func Detect(ids []Identifier, srcLen int, cfg Config) (avg float64, verdict bool) {
	if cfg.MaxAvgLength <= 0 {
		cfg = DefaultConfig()
	}
	if len(ids) < cfg.MinCount || srcLen == 0 {
		return 0, false
	}
	total := 0
	for _, id := range ids {
		total += len(id.Name)
	}
	avg = float64(total) / float64(len(ids))
	return avg, avg <= cfg.MaxAvgLength
}

// sourceMappingURL markers and very long lines both indicate generated
// bundles rather than hand-written sources.
var sourceMapMarker = []byte("sourceMappingURL=")

// IsMinifiedContent checks raw source texture independently of identifiers.
func IsMinifiedContent(source []byte) bool {
	if len(source) < 500 {
		return false
	}
	if bytes.Contains(source, sourceMapMarker) {
		return true
	}
	lines := bytes.Split(source, []byte("\n"))
	total := 0
	for _, line := range lines {
		total += len(line)
	}
	return total/len(lines) > 500
}

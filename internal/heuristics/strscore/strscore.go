// Package strscore scores string literals for obfuscation likelihood.
//
// The score is the Shannon entropy of the literal in bits per byte. Short
// strings score zero: legitimate identifiers and module names dominate that
// range and entropy over a handful of bytes is meaningless.
package strscore

import "math"

// Defaults tuned against packed/encoded payloads: base64 and hex blobs sit
// above 3.9 bits per byte once they are long enough to matter.
const (
	DefaultThreshold = 3.9
	DefaultMinLength = 24
)

// Scorer evaluates individual string literals.
type Scorer struct {
	// Threshold is the per-literal score at which a string is reported
	// suspicious.
	Threshold float64
	// MinLength is the minimum literal length considered at all.
	MinLength int
}

// New returns a scorer with the given threshold, applying defaults for
// non-positive values.
func New(threshold float64, minLength int) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Scorer{Threshold: threshold, MinLength: minLength}
}

// Score returns the literal's score and whether it crosses the threshold.
func (s *Scorer) Score(text string) (float64, bool) {
	if len(text) < s.MinLength {
		return 0, false
	}
	entropy := shannonEntropy([]byte(text))
	return entropy, entropy >= s.Threshold
}

// shannonEntropy computes the Shannon entropy of data in bits per byte.
func shannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	total := float64(len(data))
	entropy := 0.0
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

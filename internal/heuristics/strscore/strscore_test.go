package strscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreShortStringsAreZero(t *testing.T) {
	s := New(0, 0)
	score, crossed := s.Score("left-pad")
	assert.Zero(t, score)
	assert.False(t, crossed)
}

func TestScoreUniformStringIsZeroEntropy(t *testing.T) {
	s := New(0, 0)
	score, crossed := s.Score("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Zero(t, score)
	assert.False(t, crossed)
}

func TestScoreHighEntropyCrossesThreshold(t *testing.T) {
	s := New(0, 0)
	score, crossed := s.Score("dBoLWouldntYouLikeToKnow0x1F4A9zQ3vX8pR2mK9jW5tY7u")
	assert.Greater(t, score, DefaultThreshold)
	assert.True(t, crossed)
}

func TestScoreEnglishProseStaysUnder(t *testing.T) {
	s := New(0, 0)
	score, crossed := s.Score("this is an ordinary sentence about nothing at all")
	assert.Greater(t, score, 0.0)
	assert.False(t, crossed)
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(0, 0)
	assert.Equal(t, DefaultThreshold, s.Threshold)
	assert.Equal(t, DefaultMinLength, s.MinLength)

	s = New(2.5, 10)
	assert.Equal(t, 2.5, s.Threshold)
	assert.Equal(t, 10, s.MinLength)
}

func TestShannonEntropyBounds(t *testing.T) {
	assert.Zero(t, shannonEntropy(nil))
	assert.Zero(t, shannonEntropy([]byte("bbbb")))

	// Two symbols, evenly split: exactly one bit per byte.
	assert.InDelta(t, 1.0, shannonEntropy([]byte("abababab")), 0.0001)
}

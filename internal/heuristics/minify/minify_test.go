package minify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func idents(names ...string) []Identifier {
	out := make([]Identifier, 0, len(names))
	for _, name := range names {
		out = append(out, Identifier{Name: name, Kind: "variableDeclarator"})
	}
	return out
}

func TestDetectFlagsShortNames(t *testing.T) {
	avg, verdict := Detect(idents("a", "b", "c", "d", "e"), 200, DefaultConfig())
	assert.Equal(t, 1.0, avg)
	assert.True(t, verdict)
}

func TestDetectIgnoresDescriptiveNames(t *testing.T) {
	avg, verdict := Detect(idents("request", "response", "handler", "payload", "counter"), 200, DefaultConfig())
	assert.Greater(t, avg, 1.5)
	assert.False(t, verdict)
}

func TestDetectNeedsEnoughIdentifiers(t *testing.T) {
	_, verdict := Detect(idents("a", "b"), 200, DefaultConfig())
	assert.False(t, verdict)

	_, verdict = Detect(nil, 200, DefaultConfig())
	assert.False(t, verdict)
}

func TestDetectZeroConfigUsesDefaults(t *testing.T) {
	_, verdict := Detect(idents("a", "b", "c", "d", "e"), 200, Config{})
	assert.True(t, verdict)
}

func TestIsMinifiedContentSourceMap(t *testing.T) {
	source := append(bytes.Repeat([]byte("var x = 1;\n"), 50), []byte("//# sourceMappingURL=bundle.js.map\n")...)
	assert.True(t, IsMinifiedContent(source))
}

func TestIsMinifiedContentLongLines(t *testing.T) {
	line := strings.Repeat("var a=1;", 100)
	assert.True(t, IsMinifiedContent([]byte(line)))
}

func TestIsMinifiedContentPlainSource(t *testing.T) {
	source := bytes.Repeat([]byte("const value = compute(input);\n"), 30)
	assert.False(t, IsMinifiedContent(source))

	// Tiny files are never classified.
	assert.False(t, IsMinifiedContent([]byte("var x = 1;")))
}

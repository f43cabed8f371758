// -- internal/reporting/reporter_test.go --
package reporting

import (
	"bytes"
	stdjson "encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lancetsec/lancet/internal/analysis/js"
	"github.com/lancetsec/lancet/internal/reporting/sarif"
)

// closableBuffer lets the tests satisfy io.WriteCloser with an in-memory buffer.
type closableBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closableBuffer) Close() error {
	b.closed = true
	return nil
}

func sampleReport() *js.Report {
	return &js.Report{
		File: "payload.js",
		Dependencies: []js.DependencyRecord{
			{Specifier: "http", Builtin: true},
			{Specifier: "evil-pkg", Unsafe: true, InTry: true},
		},
		Warnings: []js.Warning{
			{
				Kind:     js.WarnUnsafeStmt,
				Location: js.Location{File: "payload.js", Line: 3, Column: 4},
				Value:    "eval",
			},
			{
				Kind:     js.WarnSuspiciousLiteral,
				Location: js.Location{File: "payload.js", Line: 9, Column: 12},
				Value:    "dBoLWouldntYouLike...",
				Score:    4.2,
			},
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("rejects unknown formats", func(t *testing.T) {
		_, err := New("html", "", "1.0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})

	t.Run("creates output files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		r, err := New("json", path, "1.0")
		require.NoError(t, err)
		require.NoError(t, r.Close())
	})
}

func TestJSONReporter(t *testing.T) {
	buf := &closableBuffer{}
	r := NewJSONReporter(buf, "1.2.3")

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())
	assert.True(t, buf.closed, "Close must close the writer")

	var envelope struct {
		Tool    string       `json:"tool"`
		Version string       `json:"version"`
		Files   []*js.Report `json:"files"`
	}
	require.NoError(t, stdjson.Unmarshal(buf.Bytes(), &envelope))

	assert.Equal(t, ToolName, envelope.Tool)
	assert.Equal(t, "1.2.3", envelope.Version)
	require.Len(t, envelope.Files, 1)
	assert.Equal(t, "payload.js", envelope.Files[0].File)
	require.Len(t, envelope.Files[0].Dependencies, 2)
	assert.True(t, envelope.Files[0].Dependencies[1].Unsafe)
}

func TestSARIFReporter(t *testing.T) {
	buf := &closableBuffer{}
	r := NewSARIFReporter(buf, "1.2.3")

	require.NoError(t, r.Write(sampleReport()))
	// A second file reusing a warning kind must not duplicate the rule.
	require.NoError(t, r.Write(&js.Report{
		File: "other.js",
		Warnings: []js.Warning{
			{Kind: js.WarnUnsafeStmt, Location: js.Location{Line: 1}, Value: "Function"},
		},
	}))
	require.NoError(t, r.Close())

	var log sarif.Log
	require.NoError(t, stdjson.Unmarshal(buf.Bytes(), &log))

	require.Len(t, log.Runs, 1)
	run := log.Runs[0]
	assert.Equal(t, ToolName, run.Tool.Driver.Name)

	// Three results, two distinct rules.
	require.Len(t, run.Results, 3)
	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "LANCET-UNSAFE-STMT", run.Results[0].RuleID)
	assert.Equal(t, sarif.LevelWarning, run.Results[0].Level)
	assert.Equal(t, sarif.LevelNote, run.Results[1].Level)

	// Locations carry 1-based columns.
	region := run.Results[0].Locations[0].PhysicalLocation.Region
	require.NotNil(t, region)
	assert.Equal(t, 3, region.StartLine)
	assert.Equal(t, 5, region.StartColumn)
}

func TestCheckstyleReporter(t *testing.T) {
	buf := &closableBuffer{}
	r := NewCheckstyleReporter(buf)

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"), "output must start with an XML declaration")
	assert.Contains(t, out, `<checkstyle version="4.3">`)
	assert.Contains(t, out, `name="payload.js"`)
	assert.Contains(t, out, `source="lancet.unsafe-stmt"`)
	assert.Contains(t, out, `severity="warning"`)
	assert.Contains(t, out, `severity="info"`)
	assert.Contains(t, out, `line="3"`)
	assert.Contains(t, out, `column="5"`)
}

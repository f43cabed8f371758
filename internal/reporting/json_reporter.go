// -- internal/reporting/json_reporter.go --
package reporting

import (
	"fmt"
	"io"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/analysis/js"
	"github.com/lancetsec/lancet/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonEnvelope is the top-level document emitted by the JSON reporter.
type jsonEnvelope struct {
	Tool      string       `json:"tool"`
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	Files     []*js.Report `json:"files"`
}

// JSONReporter buffers per-file reports and writes a single JSON document on
// Close. It is thread safe.
type JSONReporter struct {
	writer  io.WriteCloser
	logger  *zap.Logger
	version string

	mu    sync.Mutex
	files []*js.Report
}

// NewJSONReporter creates a reporter that encodes the full run as one JSON
// document. It takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser, toolVersion string) *JSONReporter {
	return &JSONReporter{
		writer:  writer,
		logger:  observability.GetLogger().Named("json_reporter"),
		version: toolVersion,
		files:   []*js.Report{},
	}
}

// Write buffers a single per-file report.
func (r *JSONReporter) Write(report *js.Report) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, report)
	return nil
}

// Close encodes the buffered reports and closes the underlying writer.
func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	envelope := jsonEnvelope{
		Tool:      ToolName,
		Version:   r.version,
		CreatedAt: time.Now().UTC(),
		Files:     r.files,
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(envelope)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode JSON report", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode JSON output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Debug("Wrote JSON report", zap.Int("files", len(envelope.Files)))
	return nil
}

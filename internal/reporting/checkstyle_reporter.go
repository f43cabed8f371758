// -- internal/reporting/checkstyle_reporter.go --
package reporting

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/analysis/js"
	"github.com/lancetsec/lancet/internal/observability"
	"github.com/lancetsec/lancet/internal/reporting/sarif"
)

// CheckstyleReporter buffers per-file reports and emits a checkstyle XML
// document on Close, which most CI annotators can ingest directly.
// It is thread safe.
type CheckstyleReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu    sync.Mutex
	files []*js.Report
}

// NewCheckstyleReporter creates a reporter producing checkstyle XML.
// It takes ownership of the writer.
func NewCheckstyleReporter(writer io.WriteCloser) *CheckstyleReporter {
	return &CheckstyleReporter{
		writer: writer,
		logger: observability.GetLogger().Named("checkstyle_reporter"),
		files:  []*js.Report{},
	}
}

// Write buffers a single per-file report.
func (r *CheckstyleReporter) Write(report *js.Report) error {
	if report == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, report)
	return nil
}

// Close renders the XML document and closes the underlying writer.
func (r *CheckstyleReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("checkstyle")
	root.CreateAttr("version", "4.3")

	for _, report := range r.files {
		fileEl := root.CreateElement("file")
		fileEl.CreateAttr("name", report.File)
		for i := range report.Warnings {
			warning := &report.Warnings[i]
			errEl := fileEl.CreateElement("error")
			if warning.Location.Line > 0 {
				errEl.CreateAttr("line", strconv.Itoa(warning.Location.Line))
				errEl.CreateAttr("column", strconv.Itoa(warning.Location.Column+1))
			}
			errEl.CreateAttr("severity", checkstyleSeverity(warning.Kind))
			errEl.CreateAttr("message", resultMessage(warning))
			errEl.CreateAttr("source", "lancet."+string(warning.Kind))
		}
	}

	doc.Indent(2)
	_, encodeErr := doc.WriteTo(r.writer)
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to write checkstyle report", zap.Error(encodeErr))
		return fmt.Errorf("failed to write checkstyle output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

// checkstyleSeverity reuses the SARIF level mapping: notes become "info",
// everything else "warning".
func checkstyleSeverity(kind js.WarningKind) string {
	if info, ok := ruleCatalog[kind]; ok && info.level == sarif.LevelNote {
		return "info"
	}
	return "warning"
}

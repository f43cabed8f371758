// internal/reporting/sarif_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/analysis/js"
	"github.com/lancetsec/lancet/internal/observability"
	"github.com/lancetsec/lancet/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "lancet"
	ToolInfoURI  = "https://github.com/lancetsec/lancet"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// ruleInfo carries the static SARIF metadata for one warning kind.
type ruleInfo struct {
	level sarif.Level
	short string
	help  string
}

// ruleCatalog maps every warning kind the analyzer can emit to its SARIF
// rule definition. An unknown kind falls back to a generic warning rule.
var ruleCatalog = map[js.WarningKind]ruleInfo{
	js.WarnUnsafeImport: {
		level: sarif.LevelWarning,
		short: "A dependency was required in a way that hides its name.",
		help:  "The argument to require (or the import source) could not be resolved to a plain string, or decoded to one only through an obfuscation scheme. Rewrite the import with a literal module name.",
	},
	js.WarnUnsafeStmt: {
		level: sarif.LevelWarning,
		short: "Dynamic code evaluation detected.",
		help:  "eval or the Function constructor was invoked, possibly through an alias. Dynamically evaluated code cannot be analyzed statically and is a common malware loader.",
	},
	js.WarnUnsafeAssign: {
		level: sarif.LevelWarning,
		short: "A sensitive global was assigned to another name.",
		help:  "require, eval, Function, process or a derived capability was bound to a new identifier. Aliasing sensitive globals is the standard first step of require-chain obfuscation.",
	},
	js.WarnUnsafeRegex: {
		level: sarif.LevelWarning,
		short: "A regular expression is vulnerable to catastrophic backtracking.",
		help:  "The pattern contains nested quantifiers or an excessive repetition count and can be driven to exponential matching time (ReDoS) by crafted input.",
	},
	js.WarnEncodedLiteral: {
		level: sarif.LevelNote,
		short: "A string literal decodes to hidden text.",
		help:  "The literal is a hex-encoded payload that decodes to printable text. Legitimate code rarely ships meaningful strings in hex.",
	},
	js.WarnSuspiciousLiteral: {
		level: sarif.LevelNote,
		short: "A string literal has unusually high entropy.",
		help:  "The literal's Shannon entropy exceeds the configured threshold, which is typical of packed or encrypted payloads.",
	},
	js.WarnShortIdentifiers: {
		level: sarif.LevelNote,
		short: "Identifier names suggest minified or obfuscated code.",
		help:  "The average identifier length across the file is below the configured bound. Minified third-party bundles are expected; hand-written sources are not.",
	},
}

// SARIFReporter implements the Reporter interface for the SARIF 2.1.0 format.
// It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	log    *sarif.Log
	// mu protects the log structure and the rule registry.
	mu sync.Mutex
	// registeredRules tracks which warning kinds already have a rule
	// definition in the driver.
	registeredRules map[string]bool
}

// NewSARIFReporter creates a new reporter that writes SARIF output.
// It takes ownership of the writer.
func NewSARIFReporter(writer io.WriteCloser, toolVersion string) *SARIFReporter {
	logger := observability.GetLogger().Named("sarif_reporter")
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						Version:        pString(toolVersion),
						InformationURI: pString(ToolInfoURI),
						// Initialize empty slices (not nil) for proper JSON marshalling
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer:          writer,
		logger:          logger,
		log:             log,
		registeredRules: make(map[string]bool),
	}
}

// Write converts a per-file report into SARIF results and adds them to the log.
func (r *SARIFReporter) Write(report *js.Report) error {
	if report == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	for i := range report.Warnings {
		warning := &report.Warnings[i]
		info, ok := ruleCatalog[warning.Kind]
		if !ok {
			info = ruleInfo{level: sarif.LevelWarning, short: "Suspicious construct detected."}
		}
		ruleID := r.ensureRule(warning.Kind, info)

		result := &sarif.Result{
			RuleID:    ruleID,
			Message:   &sarif.Message{Text: pString(resultMessage(warning))},
			Level:     info.level,
			Locations: []*sarif.Location{warningLocation(report.File, warning)},
		}
		run.Results = append(run.Results, result)
	}

	if len(report.Warnings) > 0 {
		r.logger.Debug("Wrote warnings to SARIF buffer",
			zap.String("file", report.File),
			zap.Int("warnings", len(report.Warnings)),
		)
	}
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	r.logger.Debug("Finalizing SARIF report",
		zap.Int("total_results", len(run.Results)),
		zap.Int("total_rules", len(run.Tool.Driver.Rules)),
	)

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ") // Pretty print

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		r.logger.Error("Failed to encode SARIF log to JSON", zap.Error(encodeErr))
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}
	return nil
}

// ruleID derives the SARIF rule identifier for a warning kind,
// e.g. "unsafe-import" -> "LANCET-UNSAFE-IMPORT".
func ruleID(kind js.WarningKind) string {
	return "LANCET-" + strings.ToUpper(string(kind))
}

// ensureRule registers the rule definition for a warning kind on first use
// and returns its ID. Must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(kind js.WarningKind, info ruleInfo) string {
	id := ruleID(kind)
	if r.registeredRules[id] {
		return id
	}
	r.registeredRules[id] = true

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               id,
		Name:             pString(string(kind)),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(info.short)},
		Help:             &sarif.MultiformatMessageString{Text: pString(info.help)},
	})
	return id
}

// resultMessage renders the human-readable message for one warning.
func resultMessage(warning *js.Warning) string {
	if warning.Value == "" {
		return string(warning.Kind)
	}
	return fmt.Sprintf("%s: %s", warning.Kind, warning.Value)
}

// warningLocation maps a warning position onto a SARIF physical location.
func warningLocation(file string, warning *js.Warning) *sarif.Location {
	physical := &sarif.PhysicalLocation{
		ArtifactLocation: &sarif.ArtifactLocation{URI: pString(file)},
	}
	if warning.Location.Line > 0 {
		physical.Region = &sarif.Region{
			StartLine: warning.Location.Line,
			// Tree positions are 0-based columns, SARIF wants 1-based.
			StartColumn: warning.Location.Column + 1,
		}
	}
	return &sarif.Location{PhysicalLocation: physical}
}

// pString returns a pointer to the given string.
func pString(s string) *string {
	return &s
}

package js

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/heuristics/minify"
	"github.com/lancetsec/lancet/internal/heuristics/regexcheck"
	"github.com/lancetsec/lancet/internal/heuristics/strscore"
	"github.com/lancetsec/lancet/internal/jsast"
	"github.com/lancetsec/lancet/internal/jsparser"
)

// Options configures one analyzer instance.
type Options struct {
	// Module selects ECMAScript-module interpretation of the source.
	Module bool
	// MaxFileSize bounds accepted sources in bytes (0 = parser default).
	MaxFileSize int
	// SuspiciousThreshold is the per-literal score triggering
	// suspicious-literal (0 = scorer default).
	SuspiciousThreshold float64
	// MinLiteralLength is the shortest literal the scorer considers
	// (0 = scorer default).
	MinLiteralLength int
	// Minify bounds the short-identifiers verdict; zero values take the
	// heuristic defaults.
	Minify minify.Config
}

// Report is the immutable result of one analysis run.
type Report struct {
	File             string             `json:"file"`
	Dependencies     []DependencyRecord `json:"dependencies"`
	Warnings         []Warning          `json:"warnings"`
	IsOneLineRequire bool               `json:"isOneLineRequire"`
	IDTypes          map[string]int     `json:"idtypes"`
	Identifiers      []IdentifierEntry  `json:"identifiersName"`
	StringScore      float64            `json:"stringScore"`
}

// Analyzer runs the single-pass analysis. An instance holds no per-run
// state: Analyze creates a fresh State and Environment every call, so one
// analyzer may serve concurrent runs, and independent instances never share
// anything.
type Analyzer struct {
	logger *zap.Logger
	opts   Options
	scorer *strscore.Scorer
	probes []Probe
}

// New creates an analyzer with the built-in probe set.
func New(logger *zap.Logger, opts Options) *Analyzer {
	return &Analyzer{
		logger: logger.Named("js_analyzer"),
		opts:   opts,
		scorer: strscore.New(opts.SuspiciousThreshold, opts.MinLiteralLength),
		probes: defaultProbes(),
	}
}

// RegisterProbe appends a detection rule to the dispatch order. Probes added
// after construction run last, which keeps the built-in break-on-match
// semantics intact.
func (a *Analyzer) RegisterProbe(p Probe) {
	a.probes = append(a.probes, p)
}

// Analyze parses source and walks the tree once, returning the accumulated
// report. The only error is a parse failure; every analysis obstacle inside
// a parseable tree degrades to a warning in the report.
func (a *Analyzer) Analyze(ctx context.Context, filename string, source []byte) (*Report, error) {
	program, err := jsparser.Parse(ctx, source, jsparser.Options{
		Module:      a.opts.Module,
		MaxFileSize: a.opts.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", filename, err)
	}

	state := newState(filename)
	env := NewEnvironment()

	w := &walker{
		probes: a.probes,
		ctx: &ProbeContext{
			State:    state,
			Env:      env,
			Analyzer: a,
			Logger:   a.logger,
		},
	}
	for _, stmt := range program.Body {
		w.walk(stmt)
	}

	state.isOneLineRequire = detectOneLineRequire(program)
	a.checkShortIdentifiers(state, program, source)

	report := &Report{
		File:             filename,
		Dependencies:     state.Dependencies(),
		Warnings:         state.warnings,
		IsOneLineRequire: state.isOneLineRequire,
		IDTypes:          state.idTypes,
		Identifiers:      state.identifiers,
		StringScore:      state.stringScore,
	}

	a.logger.Debug("analysis complete",
		zap.String("file", filename),
		zap.Int("dependencies", len(report.Dependencies)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// checkShortIdentifiers runs the minification heuristic over the identifier
// list accumulated during the walk. Sources whose raw texture already marks
// them as generated bundles (source-map pointer, bundle-length lines) are not
// flagged: a build artifact with short names is expected, not suspicious.
func (a *Analyzer) checkShortIdentifiers(state *State, program *jsast.Program, source []byte) {
	if minify.IsMinifiedContent(source) {
		return
	}
	ids := make([]minify.Identifier, 0, len(state.identifiers))
	for _, entry := range state.identifiers {
		ids = append(ids, minify.Identifier{Name: entry.Name, Kind: entry.Kind})
	}
	if avg, verdict := minify.Detect(ids, len(source), a.opts.Minify); verdict {
		state.WarnScore(WarnShortIdentifiers, program, "", avg)
	}
}

// scoreString delegates to the suspicious-literal scorer.
func (a *Analyzer) scoreString(text string) (float64, bool) {
	return a.scorer.Score(text)
}

// checkRegex delegates to the regex-safety checker.
func (a *Analyzer) checkRegex(pattern string) regexcheck.Verdict {
	return regexcheck.Check(pattern)
}

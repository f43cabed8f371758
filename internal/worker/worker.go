package worker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lancetsec/lancet/internal/analysis/js"
	"github.com/lancetsec/lancet/internal/config"
	"github.com/lancetsec/lancet/internal/heuristics/minify"
)

// skipDirs are directory names never descended into during collection.
// Vendored dependency trees are scanned deliberately, one package at a time,
// not as a side effect of scanning an application.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// FileResult pairs a scanned path with its analysis outcome. Exactly one of
// Report and Err is set.
type FileResult struct {
	Path   string
	Report *js.Report
	Err    error
}

// Pool fans file analysis out over a bounded set of goroutines.
// The analyzer itself is stateless across runs, so a single instance is
// shared by all workers.
type Pool struct {
	cfg      *config.Config
	logger   *zap.Logger
	analyzer *js.Analyzer
}

// Option is a function that configures a Pool.
type Option func(*Pool)

// WithAnalyzer injects a custom analyzer, primarily for testing.
func WithAnalyzer(analyzer *js.Analyzer) Option {
	return func(p *Pool) {
		p.analyzer = analyzer
	}
}

// NewPool initializes a worker pool from the resolved configuration.
func NewPool(cfg *config.Config, logger *zap.Logger, opts ...Option) *Pool {
	p := &Pool{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "worker")),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.analyzer == nil {
		p.analyzer = js.New(logger, js.Options{
			Module:              cfg.Analysis.Module,
			MaxFileSize:         int(cfg.Analysis.MaxFileSize),
			SuspiciousThreshold: cfg.Analysis.SuspiciousThreshold,
			MinLiteralLength:    cfg.Analysis.MinLiteralLength,
			Minify: minify.Config{
				MaxAvgLength: cfg.Analysis.Minify.MaxAvgIdentifierLength,
				MinCount:     cfg.Analysis.Minify.MinIdentifierCount,
			},
		})
	}
	return p
}

// Run collects the JavaScript sources under paths and analyzes each one.
// Results come back in deterministic (sorted path) order regardless of
// completion order. Per-file failures are recorded in the corresponding
// FileResult; Run itself fails only on collection errors or context
// cancellation.
func (p *Pool) Run(ctx context.Context, paths []string) ([]FileResult, error) {
	files, err := p.Collect(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no JavaScript sources found under %v", paths)
	}

	p.logger.Info("Starting analysis run",
		zap.Int("files", len(files)),
		zap.Int("concurrency", p.cfg.Engine.WorkerConcurrency),
	)

	results := make([]FileResult, len(files))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Engine.WorkerConcurrency)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = p.analyzeFile(groupCtx, file)
			// Propagate only cancellation; per-file errors stay in the slot.
			return groupCtx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis run aborted: %w", err)
	}
	return results, nil
}

// analyzeFile reads and analyzes a single source under the per-task timeout.
func (p *Pool) analyzeFile(ctx context.Context, path string) FileResult {
	if timeout := p.cfg.Engine.DefaultTaskTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	source, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("Failed to read source file", zap.String("path", path), zap.Error(err))
		return FileResult{Path: path, Err: err}
	}

	report, err := p.analyzer.Analyze(ctx, path, source)
	if err != nil {
		p.logger.Warn("Analysis failed", zap.String("path", path), zap.Error(err))
		return FileResult{Path: path, Err: err}
	}
	return FileResult{Path: path, Report: report}
}

// Collect expands the given paths into the sorted list of JavaScript source
// files to analyze. Files are accepted as-is; directories are walked
// recursively, filtered by the configured extensions.
func (p *Pool) Collect(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if p.matchesExtension(entry) {
				add(entry)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// matchesExtension reports whether path carries one of the configured
// JavaScript extensions.
func (p *Pool) matchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range p.cfg.Analysis.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

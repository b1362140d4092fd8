// Package ingest turns raw downloads (GO ontology, BioMart export, BioGRID
// release) into the processed tables the comparison service loads.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/worker"
)

// ErrInputMissing marks a stage skipped because its raw file is absent
var ErrInputMissing = errors.New("input file missing")

// Options configures a Builder
type Options struct {
	RawDir       string
	ProcessedDir string
	BioGRIDFile  string // explicit BioGRID file; found by glob in RawDir when empty
	Workers      int
	Logger       *slog.Logger
}

// Builder runs the ingest stages
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a Builder
func NewBuilder(opts Options) *Builder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	return &Builder{opts: opts, logger: logger}
}

// StageResult reports what one stage did
type StageResult struct {
	Stage    string        `json:"stage"`
	Input    string        `json:"input,omitempty"`
	Outputs  []string      `json:"outputs,omitempty"`
	RowsIn   int           `json:"rows_in"`
	RowsOut  int           `json:"rows_out"`
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

// GetError implements worker.Result. Skipped stages are not errors.
func (r *StageResult) GetError() error {
	return r.Err
}

// Report is the outcome of a build
type Report struct {
	Stages []*StageResult `json:"stages"`
}

// Failed lists stages that errored
func (r Report) Failed() []*StageResult {
	var out []*StageResult
	for _, s := range r.Stages {
		if s.Err != nil {
			out = append(out, s)
		}
	}
	return out
}

type stage struct {
	name  string
	input func() (string, error)
	run   func(ctx context.Context, input string, res *StageResult) error
}

// Build runs every stage concurrently. Stages whose input is missing are
// skipped with a warning; an error is returned when any stage failed.
func (b *Builder) Build(ctx context.Context) (Report, error) {
	if err := os.MkdirAll(b.opts.ProcessedDir, 0o755); err != nil {
		return Report{}, errors.Wrap(err, "create processed dir")
	}

	stages := []stage{
		{name: "go_terms", input: b.fixedInput(model.RawGOOntology), run: b.runGOTerms},
		{name: "mart_export", input: b.fixedInput(model.RawMartExport), run: b.runMartExport},
		{name: "biogrid", input: b.biogridInput, run: b.runBioGRID},
	}

	jobs := make([]worker.Job, len(stages))
	for i, s := range stages {
		jobs[i] = worker.JobFunc(func(ctx context.Context) worker.Result {
			return b.runStage(ctx, s)
		})
	}

	var report Report
	for i, r := range worker.Run(ctx, b.opts.Workers, jobs) {
		res, ok := r.(*StageResult)
		if !ok || res == nil {
			cause := ctx.Err()
			if cause == nil {
				cause = errors.New("stage did not report")
			}
			res = &StageResult{Stage: stages[i].name, Err: errors.Wrap(cause, "not run")}
			res.Error = res.Err.Error()
		}
		report.Stages = append(report.Stages, res)
	}

	if failed := report.Failed(); len(failed) > 0 {
		errs := make([]error, 0, len(failed))
		for _, f := range failed {
			errs = append(errs, errors.Wrap(f.Err, f.Stage))
		}
		return report, errors.Join(errs...)
	}
	return report, nil
}

func (b *Builder) runStage(ctx context.Context, s stage) *StageResult {
	res := &StageResult{Stage: s.name}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	input, err := s.input()
	if errors.Is(err, ErrInputMissing) {
		res.Skipped = true
		res.Error = err.Error()
		b.logger.WarnContext(ctx, "skipping stage, input not found", "stage", s.name, "error", err.Error())
		return res
	}
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	res.Input = input

	b.logger.InfoContext(ctx, "running stage", "stage", s.name, "input", input)
	if err := s.run(ctx, input, res); err != nil {
		res.Err = err
		res.Error = err.Error()
		b.logger.ErrorContext(ctx, "stage failed", "stage", s.name, "error", err.Error())
		return res
	}
	b.logger.InfoContext(ctx, "stage complete", "stage", s.name, "rows_in", res.RowsIn, "rows_out", res.RowsOut)
	return res
}

func (b *Builder) fixedInput(name string) func() (string, error) {
	return func() (string, error) {
		return statInput(filepath.Join(b.opts.RawDir, name))
	}
}

// biogridInput prefers the configured file, otherwise the lexically last
// BIOGRID-*.tab3.txt in the raw directory, which is the newest release.
func (b *Builder) biogridInput() (string, error) {
	if path := b.opts.BioGRIDFile; path != "" {
		if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
			path = filepath.Join(b.opts.RawDir, path)
		}
		return statInput(path)
	}

	pattern := filepath.Join(b.opts.RawDir, model.RawBioGRIDGlob)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", errors.Wrap(err, "glob biogrid files")
	}
	if len(matches) == 0 {
		return "", errors.Wrapf(ErrInputMissing, "%s", pattern)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func statInput(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrInputMissing, "%s", path)
		}
		return "", errors.Wrapf(err, "stat %s", path)
	}
	return path, nil
}

func (b *Builder) output(name string) string {
	return filepath.Join(b.opts.ProcessedDir, name)
}

// Package generate runs the shader store pipeline: scan the input tree into
// a FileIndex, derive and check names, render every header and both stores in
// memory, then write them through a Sink.
package generate

import (
	"context"
	"fmt"
	"time"

	"shaderstore/internal/config"
	"shaderstore/internal/logging"
	"shaderstore/internal/naming"
	"shaderstore/internal/shader"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces the shader headers and stores described by a Config.
type Generator struct {
	cfg     *config.Config
	deriver *naming.Deriver
	emitter *shader.Emitter
	logger  *zap.Logger
	sink    Sink
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSink replaces the default FileSink.
func WithSink(s Sink) Option {
	return func(g *Generator) { g.sink = s }
}

// New creates a Generator. cfg is not copied and must not change while the
// generator is in use.
func New(cfg *config.Config, opts ...Option) *Generator {
	g := &Generator{
		cfg:     cfg,
		deriver: naming.NewDeriver(NamingOptions(cfg)),
		emitter: shader.NewEmitter(EmitOptions(cfg)),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.sink == nil {
		g.sink = &FileSink{BOM: cfg.Output.WriteBOM}
	}
	return g
}

// EmitOptions converts the emit section of cfg.
func EmitOptions(cfg *config.Config) shader.Options {
	return shader.Options{
		Namespace: cfg.Emit.Namespace,
		Precision: shader.PrecisionRule{
			Statement:   cfg.Emit.Precision.Statement,
			GuardSymbol: cfg.Emit.Precision.GuardSymbol,
		},
		Escape: shader.EscapeOptions{
			TabWidth:      cfg.Emit.TabWidth,
			CompactIndent: cfg.Emit.CompactIndent,
		},
	}
}

// FileResult is the outcome for one output file.
type FileResult struct {
	Path   string
	Kind   FileKind
	Status WriteStatus
}

// Result summarizes a run.
type Result struct {
	RunID    string
	Shaders  int // per-file headers of the shader set
	Includes int // per-file headers of the include set
	Modules  int // per-file headers of extension modules
	Files    []FileResult
	Skipped  []string
	Duration time.Duration
}

// Count returns the number of files with the given status.
func (r *Result) Count(status WriteStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Validate checks the input and output directories. It is called by Run and
// Check before anything else so that bad paths never produce partial output.
func (g *Generator) Validate() error {
	if !isDir(g.cfg.Input.ShaderDir) {
		return fmt.Errorf("%w: %s does not exist or is not a directory", ErrInvalidInputDirectory, g.cfg.Input.ShaderDir)
	}
	if !isDir(g.cfg.Output.Root) {
		return fmt.Errorf("%w: %s does not exist or is not a directory", ErrInvalidOutputDirectory, g.cfg.Output.Root)
	}
	storeDir := g.cfg.OutputPath(g.cfg.Output.StoreSourceDir)
	if !isDir(storeDir) {
		return fmt.Errorf("%w: %s is missing the store directory %s", ErrInvalidOutputDirectory, g.cfg.Output.Root, g.cfg.Output.StoreSourceDir)
	}
	return nil
}

// Plan validates, scans and renders without writing.
func (g *Generator) Plan(ctx context.Context) (*FileIndex, *Plan, error) {
	return g.plan(ctx, g.logger)
}

// plan is Plan with a run-scoped logger. The generator itself is never
// mutated, so concurrent runs on one Generator are safe.
func (g *Generator) plan(ctx context.Context, logger *zap.Logger) (*FileIndex, *Plan, error) {
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	idx, err := Scan(g.cfg, logging.For(logger, logging.CategoryWalk))
	if err != nil {
		return nil, nil, err
	}
	plan, err := g.buildPlan(ctx, idx, logger)
	if err != nil {
		return idx, nil, err
	}
	return idx, plan, nil
}

// Run executes the full pipeline. Writes are not transactional: an I/O error
// part-way through leaves the files written so far in place, and a clean
// re-run is the recovery path. Name collisions are detected before any write.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := g.logger.With(zap.String("run_id", runID))
	emitLog := logging.For(logger, logging.CategoryEmit)

	_, plan, err := g.plan(ctx, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{RunID: runID, Skipped: plan.Skipped}
	for _, f := range plan.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		status, err := g.sink.Write(f.Path, f.Content)
		if err != nil {
			return res, err
		}
		res.Files = append(res.Files, FileResult{Path: f.Path, Kind: f.Kind, Status: status})
		if f.Kind == KindHeader {
			switch f.Set {
			case SetShaders:
				res.Shaders++
			case SetIncludes:
				res.Includes++
			default:
				res.Modules++
			}
		}
		emitLog.Debug("Processed output", zap.String("path", f.Path), zap.Stringer("status", status))
	}
	res.Duration = time.Since(start)

	logger.Info("Generation complete",
		zap.Int("shaders", res.Shaders),
		zap.Int("includes", res.Includes),
		zap.Int("modules", res.Modules),
		zap.Int("written", res.Count(StatusWritten)),
		zap.Int("unchanged", res.Count(StatusUnchanged)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// Names scans the inputs and derives every name without reading shader
// contents. Collisions are returned alongside the full row list.
func (g *Generator) Names(ctx context.Context) ([]NameRow, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	idx, err := Scan(g.cfg, logging.For(g.logger, logging.CategoryWalk))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.deriveAll(idx, nil)
}

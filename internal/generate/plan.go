package generate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"shaderstore/internal/logging"
	"shaderstore/internal/naming"
	"shaderstore/internal/registry"
	"shaderstore/internal/shader"

	"go.uber.org/zap"
)

// FileKind tells what a planned file is.
type FileKind string

const (
	KindHeader      FileKind = "header"
	KindStoreHeader FileKind = "store-header"
	KindStoreSource FileKind = "store-source"
)

// PlannedFile is one rendered output, not yet written.
type PlannedFile struct {
	Path    string
	Kind    FileKind
	Set     string
	Source  string // input shader path, empty for store files
	Symbol  string // registry key / C++ symbol, empty for store files
	Content []byte
}

// Plan is the complete rendered output of a run. Per-file headers come
// first in index order, followed by the store pairs.
type Plan struct {
	Files   []PlannedFile
	Skipped []string // malformed inputs skipped under tolerate_malformed
}

// Headers returns the number of per-file headers in the plan.
func (p *Plan) Headers() int {
	n := 0
	for _, f := range p.Files {
		if f.Kind == KindHeader {
			n++
		}
	}
	return n
}

// NameRow describes the names derived for one input.
type NameRow struct {
	Set      string
	Basename string
	Symbol   string
	Header   string
}

// deriveAll derives names for every input and claims them in the shared
// symbol and header-path key spaces. All collisions are reported together.
func (g *Generator) deriveAll(idx *FileIndex, skip map[string]bool) ([]NameRow, error) {
	symbols := naming.NewIndex("symbol")
	paths := naming.NewIndex("header path")

	var rows []NameRow
	var errs []error
	for _, set := range idx.Sets {
		for _, f := range set.Files {
			if skip[f.Path] {
				continue
			}
			d := g.deriver.Derive(f.Basename, set.Kind, set.GuardPrefix, set.NameAliases...)
			header := filepath.Join(set.HeaderDir, d.OutputFile)
			if err := symbols.Claim(d.Variable, f.Path); err != nil {
				errs = append(errs, err)
			}
			if err := paths.Claim(header, f.Path); err != nil {
				errs = append(errs, err)
			}
			rows = append(rows, NameRow{Set: set.Name, Basename: f.Basename, Symbol: d.Variable, Header: header})
		}
	}
	return rows, errors.Join(errs...)
}

// buildPlan reads every input and renders all outputs in memory. Nothing is
// written; a collision or fatal read error leaves the disk untouched.
func (g *Generator) buildPlan(ctx context.Context, idx *FileIndex, logger *zap.Logger) (*Plan, error) {
	walkLog := logging.For(logger, logging.CategoryWalk)
	emitLog := logging.For(logger, logging.CategoryEmit)
	regLog := logging.For(logger, logging.CategoryRegistry)

	plan := &Plan{}
	sources := make(map[string]*shader.SourceFile, idx.Count())
	skip := make(map[string]bool)

	for _, set := range idx.Sets {
		for _, f := range set.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			src, err := shader.Read(f.Path)
			if err != nil {
				if errors.Is(err, shader.ErrMalformedShader) && g.cfg.TolerateMalformed {
					walkLog.Warn("Skipping malformed shader", zap.String("path", f.Path), zap.Error(err))
					skip[f.Path] = true
					plan.Skipped = append(plan.Skipped, f.Path)
					continue
				}
				return nil, err
			}
			sources[f.Path] = src
		}
	}

	if _, err := g.deriveAll(idx, skip); err != nil {
		return nil, err
	}

	for _, set := range idx.Sets {
		var entries []registry.Entry
		for _, f := range set.Files {
			if skip[f.Path] {
				continue
			}
			src := sources[f.Path]
			d := g.deriver.Derive(f.Basename, set.Kind, set.GuardPrefix, set.NameAliases...)
			content, err := g.emitter.Render(shader.Unit{Guard: d.Guard, Variable: d.Variable, Lines: src.Lines})
			if err != nil {
				return nil, fmt.Errorf("failed to render %s: %w", f.Path, err)
			}
			plan.Files = append(plan.Files, PlannedFile{
				Path:    filepath.Join(set.HeaderDir, d.OutputFile),
				Kind:    KindHeader,
				Set:     set.Name,
				Source:  f.Path,
				Symbol:  d.Variable,
				Content: content,
			})
			emitLog.Debug("Rendered shader header",
				zap.String("set", set.Name),
				zap.String("file", f.Basename),
				zap.String("symbol", d.Variable),
				zap.Int("lines", len(src.Lines)),
				zap.Bool("bom", src.HasBOM))

			if set.Store != nil {
				entries = append(entries, registry.Entry{
					Key:     d.Variable,
					Symbol:  d.Variable,
					Include: includePath(set.IncludePrefix, d.OutputFile),
				})
			}
		}

		if set.Store == nil {
			continue
		}
		source, err := registry.RenderSource(*set.Store, entries)
		if err != nil {
			return nil, err
		}
		plan.Files = append(plan.Files,
			PlannedFile{
				Path:    filepath.Join(set.StoreHeaderDir, set.Store.HeaderFilename()),
				Kind:    KindStoreHeader,
				Set:     set.Name,
				Content: registry.RenderHeader(*set.Store),
			},
			PlannedFile{
				Path:    filepath.Join(set.StoreSourceDir, set.Store.SourceFilename()),
				Kind:    KindStoreSource,
				Set:     set.Name,
				Content: source,
			},
		)
		regLog.Debug("Rendered store", zap.String("class", set.Store.ClassName), zap.Int("entries", len(entries)))
	}

	return plan, nil
}

func includePath(prefix, file string) string {
	if prefix == "" {
		return file
	}
	return path.Join(prefix, file)
}

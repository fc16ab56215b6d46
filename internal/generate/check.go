package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"shaderstore/internal/logging"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckStatus classifies one expected output against the disk.
type CheckStatus string

const (
	CheckUpToDate CheckStatus = "up-to-date"
	CheckStale    CheckStatus = "stale"
	CheckMissing  CheckStatus = "missing"
)

// CheckResult is the comparison for one file. Diff is empty unless Stale.
type CheckResult struct {
	Path   string
	Status CheckStatus
	Diff   string
}

// CheckReport is the outcome of Check.
type CheckReport struct {
	RunID   string
	Results []CheckResult
}

// OK reports whether every expected file is up to date.
func (r *CheckReport) OK() bool {
	for _, res := range r.Results {
		if res.Status != CheckUpToDate {
			return false
		}
	}
	return true
}

// Stale returns the results that are not up to date.
func (r *CheckReport) Stale() []CheckResult {
	var out []CheckResult
	for _, res := range r.Results {
		if res.Status != CheckUpToDate {
			out = append(out, res)
		}
	}
	return out
}

// Check renders the plan and compares it against what is on disk without
// writing anything.
func (g *Generator) Check(ctx context.Context) (*CheckReport, error) {
	runID := uuid.New().String()
	logger := g.logger.With(zap.String("run_id", runID))
	checkLog := logging.For(logger, logging.CategoryCheck)

	_, plan, err := g.plan(ctx, logger)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{RunID: runID}
	for _, f := range plan.Files {
		res, err := g.checkFile(f)
		if err != nil {
			return nil, err
		}
		if res.Status != CheckUpToDate {
			checkLog.Info("Output out of date", zap.String("path", res.Path), zap.String("status", string(res.Status)))
		}
		report.Results = append(report.Results, res)
	}
	checkLog.Info("Check complete", zap.Int("files", len(report.Results)), zap.Int("stale", len(report.Stale())))
	return report, nil
}

func (g *Generator) checkFile(f PlannedFile) (CheckResult, error) {
	res := CheckResult{Path: f.Path, Status: CheckUpToDate}

	want, err := Encode(f.Content, g.cfg.Output.WriteBOM)
	if err != nil {
		return res, fmt.Errorf("failed to encode %s: %w", f.Path, err)
	}
	got, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		res.Status = CheckMissing
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	if bytes.Equal(got, want) {
		return res, nil
	}

	res.Status = CheckStale
	gotText, err := Decode(got)
	if err != nil {
		gotText = got
	}
	if bytes.Equal(gotText, f.Content) {
		res.Diff = "byte-order mark differs"
		return res, nil
	}
	res.Diff = cmp.Diff(strings.Split(string(gotText), "\n"), strings.Split(string(f.Content), "\n"))
	return res, nil
}

// Package core orchestrates per-hazard RRL runs: discovery, ingestion,
// aggregation and the merge into the exposure collection.
package core

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mres-project/mres/core/geo"
	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/discovery"
	"github.com/mres-project/mres/internal/metrics"
	"github.com/mres-project/mres/internal/outwriter"
	"github.com/mres-project/mres/schema"
)

// ErrHazardsFailed is returned after reporting when at least one hazard failed.
var ErrHazardsFailed = errors.New("one or more hazards failed")

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteMerge merges every selected hazard into the exposure file and prints the run summary.
func ExecuteMerge(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	out, err := GetMergeResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	writeMetrics(cfg, out)
	if err := outwriter.NewOutWriter().WriteRun(out, cfg); err != nil {
		return err
	}
	return failedError(out)
}

// ExecuteScores computes scores without touching the exposure file and prints them per building.
func ExecuteScores(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	out, err := GetScoreResults(ctx, cfg)
	if err != nil {
		return err
	}
	writeMetrics(cfg, out)
	out = LimitScores(out, cfg.ResultLimit)
	if err := outwriter.NewOutWriter().WriteScores(out.AllScores(), cfg, out.Duration); err != nil {
		return err
	}
	return failedError(out)
}

// ExecuteValidate ingests every selected table and reports the outcome per hazard.
func ExecuteValidate(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	out, err := GetValidateResults(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteRun(out, cfg); err != nil {
		return err
	}
	return failedError(out)
}

// ExecuteFields prints the indicator schema of the selected hazards.
func ExecuteFields(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	var defs []schema.FieldDefinition
	for _, def := range rrl.Definitions() {
		if slices.Contains(cfg.Hazards, def.Hazard) {
			defs = append(defs, def)
		}
	}
	return outwriter.NewOutWriter().WriteFields(defs, cfg)
}

// GetMergeResults runs the merge pass for every selected hazard and writes the
// updated collection unless the run is dry. The run is recorded in the history
// store when one is configured, and only once the collection has been saved.
func GetMergeResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.RunOutput, error) {
	out := newRunOutput(cfg)

	exposurePath, err := discovery.FindExposure(cfg.Dir)
	if err != nil {
		return out, err
	}
	exp, err := geo.LoadExposure(exposurePath)
	if err != nil {
		return out, err
	}
	out.ExposureFile = exposurePath
	out.Features = len(exp.Features)
	out.OutputFile = exposurePath
	if cfg.ExposureOutput != "" {
		out.OutputFile = cfg.ExposureOutput
	}

	var rec *historyRun
	if !cfg.DryRun {
		rec = beginRun(mgr, cfg, out.StartTime)
	}

	if err := mergeAndSave(ctx, cfg, exp, &out); err != nil {
		rec.abort()
		out.Duration = clock.Since(out.StartTime)
		return out, err
	}
	rec.finish(out.Hazards)
	out.Duration = clock.Since(out.StartTime)
	return out, nil
}

func mergeAndSave(ctx context.Context, cfg *contract.Config, exp *geo.Exposure, out *schema.RunOutput) error {
	var err error
	out.Hazards, err = runHazards(ctx, cfg, exp, mergePass)
	if err != nil {
		return err
	}
	if err := allSkipped(cfg, *out); err != nil {
		return err
	}
	if cfg.DryRun || !anyMerged(out.Hazards) {
		return nil
	}
	return geo.SaveExposure(out.OutputFile, exp)
}

// GetScoreResults computes the scores of every selected hazard, highest RRL
// first. Every building is kept; see LimitScores.
func GetScoreResults(ctx context.Context, cfg *contract.Config) (schema.RunOutput, error) {
	out := newRunOutput(cfg)
	hazards, err := runHazards(ctx, cfg, nil, scorePass)
	out.Hazards = hazards
	out.Duration = clock.Since(out.StartTime)
	if err != nil {
		return out, err
	}
	return out, allSkipped(cfg, out)
}

// GetValidateResults ingests every selected table. The exposure document is
// checked when present; a missing one is not a problem for validation.
func GetValidateResults(ctx context.Context, cfg *contract.Config) (schema.RunOutput, error) {
	out := newRunOutput(cfg)

	exposurePath, err := discovery.FindExposure(cfg.Dir)
	switch {
	case err == nil:
		exp, err := geo.LoadExposure(exposurePath)
		if err != nil {
			return out, err
		}
		out.ExposureFile = exposurePath
		out.Features = len(exp.Features)
	case !discovery.IsNotFound(err):
		return out, err
	}

	hazards, err := runHazards(ctx, cfg, nil, validatePass)
	out.Hazards = hazards
	out.Duration = clock.Since(out.StartTime)
	if err != nil {
		return out, err
	}
	return out, allSkipped(cfg, out)
}

// LimitScores keeps at most limit scores per hazard. Scores are ordered highest
// RRL first with ties broken by building id, so the result is the top limit
// buildings of each hazard. A limit of zero keeps every score.
func LimitScores(out schema.RunOutput, limit int) schema.RunOutput {
	if limit <= 0 {
		return out
	}
	hazards := make([]schema.HazardResult, len(out.Hazards))
	for i, r := range out.Hazards {
		if len(r.Scores) > limit {
			r.Scores = r.Scores[:limit]
		}
		hazards[i] = r
	}
	out.Hazards = hazards
	return out
}

func newRunOutput(cfg *contract.Config) schema.RunOutput {
	return schema.RunOutput{
		Dir:       cfg.Dir,
		DryRun:    cfg.DryRun,
		StartTime: clock.Now(),
	}
}

// allSkipped fails a run in which no selected hazard had an indicator table.
func allSkipped(cfg *contract.Config, out schema.RunOutput) error {
	for _, r := range out.Hazards {
		if r.Status != schema.SkippedStatus {
			return nil
		}
	}
	return fmt.Errorf("no indicator tables found in %s", cfg.Dir)
}

func anyMerged(results []schema.HazardResult) bool {
	for _, r := range results {
		if r.Status == schema.MergedStatus {
			return true
		}
	}
	return false
}

func failedError(out schema.RunOutput) error {
	failed := out.FailedHazards()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrHazardsFailed, failed)
}

// writeMetrics exports the run metrics when a metrics file is configured.
func writeMetrics(cfg *contract.Config, out schema.RunOutput) {
	if cfg.MetricsFile == "" {
		return
	}
	m := metrics.NewMetrics()
	m.ObserveRun(out)
	if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
		contract.LogWarn("metrics export", err)
	}
}

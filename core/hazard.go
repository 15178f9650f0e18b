package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mres-project/mres/core/agg"
	"github.com/mres-project/mres/core/geo"
	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/core/tabular"
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/discovery"
	"github.com/mres-project/mres/schema"
)

// passMode selects how far a hazard pass goes after aggregation.
type passMode int

const (
	validatePass passMode = iota // ingest and aggregate only
	scorePass                    // keep the scores for output
	mergePass                    // write scores into the exposure collection
)

// runHazards processes hazards sequentially against one collection.
// The context is checked before each pass; once it is done the remaining
// hazards are marked cancelled and the context error is returned.
func runHazards(ctx context.Context, cfg *contract.Config, exp *geo.Exposure, mode passMode) ([]schema.HazardResult, error) {
	results := make([]schema.HazardResult, 0, len(cfg.Hazards))
	for i, h := range cfg.Hazards {
		if err := ctx.Err(); err != nil {
			for _, rest := range cfg.Hazards[i:] {
				results = append(results, schema.HazardResult{Hazard: rest, Status: schema.CancelledStatus, Error: err.Error()})
			}
			return results, fmt.Errorf("run cancelled before %s: %w", h, err)
		}
		res := runHazard(cfg, h, exp, mode)
		logHazard(ctx, res)
		results = append(results, res)
	}
	return results, nil
}

// runHazard runs discovery, ingestion, aggregation and (for merges) the merge of one hazard.
func runHazard(cfg *contract.Config, h schema.Hazard, exp *geo.Exposure, mode passMode) schema.HazardResult {
	start := clock.Now()
	res := schema.HazardResult{Hazard: h}
	finish := func(status schema.HazardStatus, err error) schema.HazardResult {
		res.Status = status
		if err != nil {
			res.Error = err.Error()
		}
		res.Duration = clock.Since(start)
		return res
	}

	path, err := discovery.FindIndicators(cfg.Dir, h)
	if err != nil {
		if discovery.IsNotFound(err) {
			return finish(schema.SkippedStatus, err)
		}
		return finish(schema.FailedStatus, err)
	}
	res.Table = path

	records, err := tabular.ReadIndicatorsFile(h, path)
	if err != nil {
		return finish(schema.FailedStatus, err)
	}
	res.Rows = len(records)

	aggregate := agg.Aggregate
	if cfg.StrictIDs {
		aggregate = agg.AggregateStrict
	}
	result, err := aggregate(records)
	if err != nil {
		return finish(schema.FailedStatus, err)
	}
	res.Buildings = len(result.Scores)
	res.DuplicateIDs = result.Duplicates
	res.Summary = result.Scores.Summary()

	switch mode {
	case mergePass:
		res.Scores = result.Scores.Sorted(h)
		res.Modified = geo.Merge(exp, h, result.Scores)
		return finish(schema.MergedStatus, nil)
	case scorePass:
		res.Scores = result.Scores.Sorted(h)
		return finish(schema.ScoredStatus, nil)
	default:
		if cfg.ExportDir != "" {
			if err := exportTable(cfg.ExportDir, h, records); err != nil {
				return finish(schema.FailedStatus, err)
			}
		}
		return finish(schema.ValidStatus, nil)
	}
}

// exportTable writes the parsed rows of one hazard in canonical column order.
func exportTable(dir string, h schema.Hazard, records []rrl.Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, h.IndicatorsFile())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := tabular.WriteIndicators(f, h, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// logHazard prints one progress line per hazard to stderr.
func logHazard(ctx context.Context, res schema.HazardResult) {
	if shouldSuppressProgress(ctx) {
		return
	}
	switch res.Status {
	case schema.MergedStatus:
		fmt.Fprintf(os.Stderr, "Added %s RRLs to %d buildings.\n", res.Hazard, res.Modified)
	case schema.ScoredStatus, schema.ValidStatus:
		fmt.Fprintf(os.Stderr, "Read %d %s indicator rows for %d buildings.\n", res.Rows, res.Hazard, res.Buildings)
	case schema.SkippedStatus:
		fmt.Fprintf(os.Stderr, "Skipped %s: %s\n", res.Hazard, res.Error)
	case schema.FailedStatus:
		fmt.Fprintf(os.Stderr, "Failed %s: %s\n", res.Hazard, res.Error)
	}
	if len(res.DuplicateIDs) > 0 {
		contract.LogWarn(fmt.Sprintf("%s indicators", res.Hazard), fmt.Errorf("duplicate ids, last row wins: %v", res.DuplicateIDs))
	}
}

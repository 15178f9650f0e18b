package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mres-project/mres/core/geo"
	"github.com/mres-project/mres/core/tabular"
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/discovery"
	"github.com/mres-project/mres/schema"
)

// templateTarget is one indicator table to be written.
type templateTarget struct {
	hazard schema.Hazard
	path   string
}

// ExecuteTemplate writes header-only indicator tables for the selected hazards.
// With FromExposure every table gets one row per exposure feature id. Existing
// tables are only replaced with Force, and nothing is written when any of them
// would be refused.
func ExecuteTemplate(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	targets, err := templateTargets(cfg)
	if err != nil {
		return err
	}

	var ids []string
	if cfg.FromExposure {
		exposurePath, err := discovery.FindExposure(cfg.Dir)
		if err != nil {
			return err
		}
		exp, err := geo.LoadExposure(exposurePath)
		if err != nil {
			return err
		}
		ids = geo.FeatureIDs(exp)
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("template cancelled: %w", err)
		}
		if cfg.DryRun {
			fmt.Printf("Would write %s (%d rows)\n", t.path, len(ids))
			continue
		}
		if err := writeTemplateFile(t, ids); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d rows)\n", t.path, len(ids))
	}
	return nil
}

// templateTargets resolves the output path of every hazard, reusing the name
// of an existing table so a differently cased file is replaced, not shadowed.
func templateTargets(cfg *contract.Config) ([]templateTarget, error) {
	targets := make([]templateTarget, 0, len(cfg.Hazards))
	for _, h := range cfg.Hazards {
		existing, err := discovery.FindIndicators(cfg.Dir, h)
		switch {
		case err == nil:
			if !cfg.Force {
				return nil, fmt.Errorf("%s already exists (use --force to overwrite)", existing)
			}
			targets = append(targets, templateTarget{hazard: h, path: existing})
		case discovery.IsNotFound(err):
			targets = append(targets, templateTarget{hazard: h, path: filepath.Join(cfg.Dir, h.IndicatorsFile())})
		default:
			return nil, err
		}
	}
	return targets, nil
}

func writeTemplateFile(t templateTarget, ids []string) error {
	f, err := os.Create(t.path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", t.path, err)
	}
	if err := tabular.WriteTemplate(f, t.hazard, ids); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", t.path, err)
	}
	return f.Close()
}

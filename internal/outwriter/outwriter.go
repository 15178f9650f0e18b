// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRun prints the per-hazard summary of a merge or validate run.
func (ow *OutWriter) WriteRun(out schema.RunOutput, cfg *contract.Config) error {
	return WriteRunResults(out, cfg)
}

// WriteScores prints per-building scores using the configured output format.
func (ow *OutWriter) WriteScores(scores []schema.BuildingScore, cfg *contract.Config, duration time.Duration) error {
	return WriteScoreResults(scores, cfg, duration)
}

// WriteFields prints the indicator schema of the selected hazards.
func (ow *OutWriter) WriteFields(defs []schema.FieldDefinition, cfg *contract.Config) error {
	return WriteFieldDefinitions(defs, cfg)
}

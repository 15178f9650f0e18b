// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/mres-project/mres/schema"
)

// StoreManager defines the interface for accessing the run history store.
// This allows the history layer to be mocked for testing.
type StoreManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking merge runs and the scores they produced.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// RecordScores stores the building scores of one hazard for a run
	RecordScores(runID int64, scores []schema.BuildingScore) error

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalBuildings int) error

	// AbortRun removes a run that did not complete, together with any scores recorded for it
	AbortRun(runID int64) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllBuildingScores returns every recorded building score ordered by run, hazard and building
	GetAllBuildingScores() ([]schema.BuildingScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}

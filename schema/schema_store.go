package schema

import "time"

// RunRecord represents a row from the mres_runs table.
type RunRecord struct {
	RunID          int64
	StartTime      time.Time
	EndTime        *time.Time
	RunDurationMs  *int32
	TotalBuildings int32
	ConfigParams   *string
}

// BuildingScoreRecord represents a row from the mres_building_scores table.
type BuildingScoreRecord struct {
	RunID      int64
	Hazard     string
	BuildingID string
	Score      float64
	Label      string
}

// Package schema has models and global variables shared by all parts of mres.
package schema

import "time"

// BuildingScore is the RRL computed for a single building and hazard.
type BuildingScore struct {
	Hazard     Hazard  `json:"hazard"`
	BuildingID string  `json:"building_id"`
	Score      float64 `json:"score"`
}

// ScoreSummary holds descriptive statistics for a set of scores.
type ScoreSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// HazardResult describes what happened to one hazard during a run.
type HazardResult struct {
	Hazard       Hazard          `json:"hazard"`
	Status       HazardStatus    `json:"status"`
	Table        string          `json:"table,omitempty"`
	Rows         int             `json:"rows"`
	Buildings    int             `json:"buildings"`
	Modified     int             `json:"modified"`
	DuplicateIDs []string        `json:"duplicate_ids,omitempty"`
	Summary      ScoreSummary    `json:"summary"`
	Scores       []BuildingScore `json:"-"`
	Error        string          `json:"error,omitempty"`
	Duration     time.Duration   `json:"duration_ns"`
}

// Failed reports whether the hazard ended in a hard failure.
func (r HazardResult) Failed() bool {
	return r.Status == FailedStatus
}

// RunOutput is the outcome of a merge, score or validate run across hazards.
type RunOutput struct {
	Dir          string         `json:"dir"`
	ExposureFile string         `json:"exposure_file,omitempty"`
	OutputFile   string         `json:"output_file,omitempty"`
	Features     int            `json:"features"`
	Hazards      []HazardResult `json:"hazards"`
	DryRun       bool           `json:"dry_run"`
	StartTime    time.Time      `json:"start_time"`
	Duration     time.Duration  `json:"duration_ns"`
}

// FailedHazards returns the hazards that ended in a hard failure.
func (o RunOutput) FailedHazards() []Hazard {
	var failed []Hazard
	for _, r := range o.Hazards {
		if r.Failed() {
			failed = append(failed, r.Hazard)
		}
	}
	return failed
}

// AllScores flattens every hazard's building scores in hazard order.
func (o RunOutput) AllScores() []BuildingScore {
	var scores []BuildingScore
	for _, r := range o.Hazards {
		scores = append(scores, r.Scores...)
	}
	return scores
}

// FieldDefinition documents the indicator schema and formula of one hazard.
type FieldDefinition struct {
	Hazard  Hazard            `json:"hazard"`
	Fields  []string          `json:"fields"`
	Bounds  map[string]string `json:"bounds"`
	Formula string            `json:"formula"`
}

// Package parquet provides data structures and functions for exporting mres
// scores and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mres-project/mres/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single merge run with metadata.
// This struct maps to the mres_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalBuildings is the number of building scores recorded in this run
	TotalBuildings int32 `parquet:"total_buildings,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// BuildingScore is one building score, either from history or from a scores run.
// RunID is zero for scores that were never recorded.
type BuildingScore struct {
	RunID      int64   `parquet:"run_id,snappy"`
	Hazard     string  `parquet:"hazard,dict,snappy"`
	BuildingID string  `parquet:"building_id,snappy"`
	Score      float64 `parquet:"score,snappy"`
	Label      string  `parquet:"label,dict,snappy"`
}

// writeRows writes rows of T to w with a schema inferred from the struct tags.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeFile creates outputPath and writes rows of T to it.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeRows(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteBuildingScoresParquet writes a slice of BuildingScore structs to a Parquet file.
func WriteBuildingScoresParquet(data []BuildingScore, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteBuildingScores writes building scores as Parquet to an open writer.
func WriteBuildingScores(w io.Writer, data []BuildingScore) error {
	return writeRows(w, data)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:          record.RunID,
			StartTime:      record.StartTime,
			EndTime:        record.EndTime,
			RunDurationMs:  record.RunDurationMs,
			TotalBuildings: record.TotalBuildings,
			ConfigParams:   record.ConfigParams,
		}
	}
	return result
}

// ConvertBuildingScoreRecords converts schema.BuildingScoreRecord to BuildingScore for Parquet export.
func ConvertBuildingScoreRecords(records []schema.BuildingScoreRecord) []BuildingScore {
	result := make([]BuildingScore, len(records))
	for i, record := range records {
		result[i] = BuildingScore{
			RunID:      record.RunID,
			Hazard:     record.Hazard,
			BuildingID: record.BuildingID,
			Score:      record.Score,
			Label:      record.Label,
		}
	}
	return result
}

// ConvertBuildingScores converts freshly computed scores for Parquet output.
func ConvertBuildingScores(scores []schema.BuildingScore) []BuildingScore {
	result := make([]BuildingScore, len(scores))
	for i, s := range scores {
		result[i] = BuildingScore{
			Hazard:     string(s.Hazard),
			BuildingID: s.BuildingID,
			Score:      s.Score,
			Label:      schema.GetPlainLabel(s.Score),
		}
	}
	return result
}

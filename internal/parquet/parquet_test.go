package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mres-project/mres/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRuns() []Run {
	now := time.Now()
	start1 := now.Add(-2 * time.Hour)
	end1 := now.Add(-1*time.Hour - 30*time.Minute)
	duration1 := int32(end1.Sub(start1).Milliseconds())
	params1 := `{"hazards":["heat","flood"],"dry_run":false}`

	return []Run{
		{RunID: 1, StartTime: start1, EndTime: &end1, RunDurationMs: &duration1, TotalBuildings: 120, ConfigParams: &params1},
		{RunID: 2, StartTime: now.Add(-10 * time.Minute)}, // still running
	}
}

func readAll[T any](t *testing.T, r io.ReaderAt, size int64) []T {
	t.Helper()
	reader := parquet.NewGenericReader[T](io.NewSectionReader(r, 0, size))
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"run", new(Run), []string{"run_id", "start_time", "end_time", "run_duration_ms", "total_buildings", "config_params"}},
		{"building score", new(BuildingScore), []string{"run_id", "hazard", "building_id", "score", "label"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			for _, col := range tt.columns {
				_, ok := s.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()

	require.NoError(t, WriteRunsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()
	info, err := file.Stat()
	require.NoError(t, err)

	got := readAll[Run](t, file, info.Size())
	require.Len(t, got, len(data))

	assert.Equal(t, int64(1), got[0].RunID)
	assert.Equal(t, int32(120), got[0].TotalBuildings)
	require.NotNil(t, got[0].EndTime)
	assert.WithinDuration(t, *data[0].EndTime, *got[0].EndTime, time.Microsecond)
	require.NotNil(t, got[0].ConfigParams)
	assert.Equal(t, *data[0].ConfigParams, *got[0].ConfigParams)

	assert.Nil(t, got[1].EndTime)
	assert.Nil(t, got[1].RunDurationMs)
	assert.Nil(t, got[1].ConfigParams)
}

func TestWriteBuildingScores(t *testing.T) {
	scores := []schema.BuildingScore{
		{Hazard: schema.HeatHazard, BuildingID: "1", Score: 0.2},
		{Hazard: schema.FloodHazard, BuildingID: "42", Score: 0.85},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBuildingScores(&buf, ConvertBuildingScores(scores)))

	got := readAll[BuildingScore](t, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.Len(t, got, 2)
	assert.Equal(t, "heat", got[0].Hazard)
	assert.Equal(t, "1", got[0].BuildingID)
	assert.InDelta(t, 0.2, got[0].Score, 1e-12)
	assert.Equal(t, schema.LowValue, got[0].Label)
	assert.Equal(t, schema.CriticalValue, got[1].Label)
	assert.Zero(t, got[1].RunID)
}

func TestWriteEmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteBuildingScoresParquet(nil, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "file should hold the parquet footer")
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteRunsParquet(sampleRuns(), filepath.Join(t.TempDir(), "missing", "runs.parquet"))
	assert.ErrorContains(t, err, "failed to create output file")
}

func TestConvertRecords(t *testing.T) {
	params := `{"dir":"."}`
	runs := ConvertRunRecords([]schema.RunRecord{{RunID: 7, TotalBuildings: 3, ConfigParams: &params}})
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].RunID)
	assert.Equal(t, int32(3), runs[0].TotalBuildings)
	assert.Equal(t, &params, runs[0].ConfigParams)

	scores := ConvertBuildingScoreRecords([]schema.BuildingScoreRecord{
		{RunID: 7, Hazard: "wind", BuildingID: "9", Score: 0.5, Label: schema.ModerateValue},
	})
	assert.Equal(t, BuildingScore{RunID: 7, Hazard: "wind", BuildingID: "9", Score: 0.5, Label: schema.ModerateValue}, scores[0])
}

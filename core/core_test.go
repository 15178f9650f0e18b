package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mres-project/mres/core/geo"
	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/runstore"
	"github.com/mres-project/mres/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const exposureDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 1, "geometry": {"type": "Point", "coordinates": [7.1, 46.2]}, "properties": {"name": "school"}},
    {"type": "Feature", "id": "2", "geometry": {"type": "Point", "coordinates": [7.2, 46.3]}, "properties": {}}
  ]
}`

const heatTable = `id,res_1,res_2,res_3,rec_1,e_f,m_1,m_2
1,1,1,1,0.5,1,0.6,0.4
2,1,1,1,1,1,1,1
3,0.5,0.5,0.5,0.5,0.5,0.5,0.5
`

const badHeatTable = `id,res_1,res_2,res_3,rec_1,e_f,m_1,m_2
1,1.5,1,1,0.5,1,0.6,0.4
`

var fixedStart = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func floatProperty(t *testing.T, f *geo.Feature, key string) float64 {
	t.Helper()
	n, ok := f.Properties[key].(json.Number)
	require.True(t, ok, "%s is %T", key, f.Properties[key])
	v, err := n.Float64()
	require.NoError(t, err)
	return v
}

func fakeClock(t *testing.T) *clockwork.FakeClock {
	t.Helper()
	fc := clockwork.NewFakeClockAt(fixedStart)
	SetClock(fc)
	t.Cleanup(func() { SetClock(nil) })
	return fc
}

func quietCtx() context.Context {
	return WithSuppressProgress(context.Background())
}

func newConfig(dir string) *contract.Config {
	return &contract.Config{
		Dir:       dir,
		Hazards:   schema.AllHazards,
		Precision: contract.DefaultPrecision,
		Output:    schema.JSONOut,
	}
}

func statusOf(t *testing.T, out schema.RunOutput, h schema.Hazard) schema.HazardResult {
	t.Helper()
	for _, r := range out.Hazards {
		if r.Hazard == h {
			return r
		}
	}
	t.Fatalf("hazard %s missing from run output", h)
	return schema.HazardResult{}
}

func TestGetMergeResults(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	exposure := writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	out, err := GetMergeResults(quietCtx(), newConfig(dir), nil)
	require.NoError(t, err)

	assert.Equal(t, exposure, out.ExposureFile)
	assert.Equal(t, exposure, out.OutputFile)
	assert.Equal(t, 2, out.Features)
	assert.Equal(t, fixedStart, out.StartTime)
	require.Len(t, out.Hazards, len(schema.AllHazards))

	heat := statusOf(t, out, schema.HeatHazard)
	assert.Equal(t, schema.MergedStatus, heat.Status)
	assert.Equal(t, 3, heat.Rows)
	assert.Equal(t, 3, heat.Buildings)
	assert.Equal(t, 2, heat.Modified)
	assert.Len(t, heat.Scores, 3)
	assert.Equal(t, schema.SkippedStatus, statusOf(t, out, schema.FloodHazard).Status)

	exp, err := geo.LoadExposure(exposure)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, floatProperty(t, exp.Features[0], "heat_rrl"), 1e-12)
	assert.Equal(t, "school", exp.Features[0].Properties["name"])
	assert.InDelta(t, 0.0, floatProperty(t, exp.Features[1], "heat_rrl"), 1e-12)
	assert.NotContains(t, exp.Features[0].Properties, "flood_rrl")
}

func TestGetMergeResultsDryRun(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	exposure := writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	mgr := &runstore.MockStoreManager{}
	cfg := newConfig(dir)
	cfg.DryRun = true

	out, err := GetMergeResults(quietCtx(), cfg, mgr)
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 2, statusOf(t, out, schema.HeatHazard).Modified)

	data, err := os.ReadFile(exposure)
	require.NoError(t, err)
	assert.Equal(t, exposureDoc, string(data))
	mgr.AssertNotCalled(t, "GetRunStore")
}

func TestGetMergeResultsExposureOutput(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	exposure := writeFile(t, dir, "exposure.geojson", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	cfg := newConfig(dir)
	cfg.ExposureOutput = filepath.Join(t.TempDir(), "scored.geojson")

	out, err := GetMergeResults(quietCtx(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg.ExposureOutput, out.OutputFile)

	exp, err := geo.LoadExposure(cfg.ExposureOutput)
	require.NoError(t, err)
	assert.Contains(t, exp.Features[0].Properties, "heat_rrl")

	data, err := os.ReadFile(exposure)
	require.NoError(t, err)
	assert.Equal(t, exposureDoc, string(data))
}

func TestGetMergeResultsRecordsHistory(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	store := &runstore.MockRunStore{}
	store.On("BeginRun", fixedStart, mock.Anything).Return(int64(5), nil)
	store.On("RecordScores", int64(5), mock.MatchedBy(func(scores []schema.BuildingScore) bool {
		return len(scores) == 3 && scores[0].Hazard == schema.HeatHazard
	})).Return(nil)
	store.On("EndRun", int64(5), fixedStart, 3).Return(nil)

	mgr := &runstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	_, err := GetMergeResults(quietCtx(), newConfig(dir), mgr)
	require.NoError(t, err)

	store.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

func TestGetMergeResultsHistoryFailureIsNotFatal(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	store := &runstore.MockRunStore{}
	store.On("BeginRun", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	mgr := &runstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	out, err := GetMergeResults(quietCtx(), newConfig(dir), mgr)
	require.NoError(t, err)
	assert.Equal(t, schema.MergedStatus, statusOf(t, out, schema.HeatHazard).Status)
	store.AssertNotCalled(t, "RecordScores", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMergeResultsFailedSaveAbortsHistory(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	store := &runstore.MockRunStore{}
	store.On("BeginRun", fixedStart, mock.Anything).Return(int64(8), nil)
	store.On("AbortRun", int64(8)).Return(nil)

	mgr := &runstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	cfg := newConfig(dir)
	cfg.ExposureOutput = filepath.Join(dir, "missing", "scored.geojson")

	_, err := GetMergeResults(quietCtx(), cfg, mgr)
	require.ErrorContains(t, err, "failed to create temporary file")

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "RecordScores", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMergeResultsNoTablesAbortsHistory(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	writeFile(t, dir, "exposure.json", exposureDoc)

	store := &runstore.MockRunStore{}
	store.On("BeginRun", fixedStart, mock.Anything).Return(int64(9), nil)
	store.On("AbortRun", int64(9)).Return(nil)

	mgr := &runstore.MockStoreManager{}
	mgr.On("GetRunStore").Return(store)

	_, err := GetMergeResults(quietCtx(), newConfig(dir), mgr)
	require.ErrorContains(t, err, "no indicator tables found")

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetMergeResultsErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{"no exposure", map[string]string{"heat_indicators.csv": heatTable}, "exposure file not found"},
		{"ambiguous exposure", map[string]string{"exposure.json": exposureDoc, "exposure.geojson": exposureDoc}, "exposure"},
		{"no tables", map[string]string{"exposure.json": exposureDoc}, "no indicator tables found"},
		{"empty exposure", map[string]string{"exposure.json": `{"type":"FeatureCollection","features":[]}`}, "exposure has no features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, err := GetMergeResults(quietCtx(), newConfig(dir), nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGetMergeResultsCancelled(t *testing.T) {
	dir := t.TempDir()
	exposure := writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	ctx, cancel := context.WithCancel(quietCtx())
	cancel()

	out, err := GetMergeResults(ctx, newConfig(dir), nil)
	require.ErrorIs(t, err, context.Canceled)
	for _, r := range out.Hazards {
		assert.Equal(t, schema.CancelledStatus, r.Status)
	}

	data, err := os.ReadFile(exposure)
	require.NoError(t, err)
	assert.Equal(t, exposureDoc, string(data))
}

func TestExecuteMergeReportsFailedHazard(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	exposure := writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", badHeatTable)
	writeFile(t, dir, "seismic_indicators.csv", "id,res_1\n1,0.5\n")

	cfg := newConfig(dir)
	cfg.OutputFile = filepath.Join(t.TempDir(), "run.json")
	cfg.MetricsFile = filepath.Join(t.TempDir(), "mres.prom")

	err := ExecuteMerge(quietCtx(), cfg, nil)
	require.ErrorIs(t, err, ErrHazardsFailed)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var out schema.RunOutput
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, []schema.Hazard{schema.HeatHazard, schema.SeismicHazard}, out.FailedHazards())

	unchanged, err := os.ReadFile(exposure)
	require.NoError(t, err)
	assert.Equal(t, exposureDoc, string(unchanged))

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `mres_hazard_outcomes_total{hazard="heat",status="failed"} 1`)
}

func TestExecuteMergeStrictIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "exposure.json", exposureDoc)
	writeFile(t, dir, "heat_indicators.csv", heatTable+"1,1,1,1,1,1,1,1\n")

	cfg := newConfig(dir)
	cfg.Hazards = []schema.Hazard{schema.HeatHazard}
	out, err := GetMergeResults(quietCtx(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, out.Hazards[0].DuplicateIDs)
	assert.Equal(t, 4, out.Hazards[0].Rows)
	assert.Equal(t, 3, out.Hazards[0].Buildings)

	cfg.StrictIDs = true
	out, err = GetMergeResults(quietCtx(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.FailedStatus, out.Hazards[0].Status)
	assert.Contains(t, out.Hazards[0].Error, "duplicate ids 1")
}

func TestGetScoreResults(t *testing.T) {
	fakeClock(t)
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	out, err := GetScoreResults(quietCtx(), newConfig(dir))
	require.NoError(t, err)

	heat := statusOf(t, out, schema.HeatHazard)
	assert.Equal(t, schema.ScoredStatus, heat.Status)
	assert.Equal(t, 3, heat.Buildings)
	require.Len(t, heat.Scores, 3)
	assert.Equal(t, 3, heat.Summary.Count)

	limited := LimitScores(out, 2)
	top := statusOf(t, limited, schema.HeatHazard)
	require.Len(t, top.Scores, 2)
	assert.Equal(t, "3", top.Scores[0].BuildingID)
	assert.InDelta(t, 0.34375, top.Scores[0].Score, 1e-12)
	assert.Equal(t, "1", top.Scores[1].BuildingID)
	assert.InDelta(t, 0.2, top.Scores[1].Score, 1e-12)
	assert.Len(t, limited.AllScores(), 2)
	assert.Len(t, out.AllScores(), 3, "limiting copies the hazard results")
	assert.Equal(t, out, LimitScores(out, 0))
}

func TestExecuteScoresMetricsSeeEveryBuilding(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	cfg := newConfig(dir)
	cfg.Hazards = []schema.Hazard{schema.HeatHazard}
	cfg.ResultLimit = 1
	cfg.OutputFile = filepath.Join(t.TempDir(), "scores.json")
	cfg.MetricsFile = filepath.Join(t.TempDir(), "mres.prom")
	require.NoError(t, ExecuteScores(quietCtx(), cfg, nil))

	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `mres_rrl_score_count{hazard="heat"} 3`)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"building_id": "3"`)
	assert.NotContains(t, string(data), `"building_id": "1"`)
}

func TestExecuteScoresJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", heatTable)

	cfg := newConfig(dir)
	cfg.OutputFile = filepath.Join(t.TempDir(), "scores.json")
	require.NoError(t, ExecuteScores(quietCtx(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"building_id": "1"`)
}

func TestGetValidateResults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", heatTable)
	writeFile(t, dir, "flood_indicators.csv", "id,res_1\n")

	out, err := GetValidateResults(quietCtx(), newConfig(dir))
	require.NoError(t, err)
	assert.Empty(t, out.ExposureFile)
	assert.Equal(t, schema.ValidStatus, statusOf(t, out, schema.HeatHazard).Status)
	assert.Empty(t, statusOf(t, out, schema.HeatHazard).Scores)

	flood := statusOf(t, out, schema.FloodHazard)
	assert.Equal(t, schema.FailedStatus, flood.Status)
	assert.NotEmpty(t, flood.Error)
}

func TestGetValidateResultsExportsTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", "m_2,m_1,e_f,rec_1,res_3,res_2,res_1,id,notes\n0.4,0.6,1,0.5,1,1,1,7,corner\n")
	writeFile(t, dir, "flood_indicators.csv", "id,res_1\n")

	cfg := newConfig(dir)
	cfg.ExportDir = filepath.Join(t.TempDir(), "normalized")

	out, err := GetValidateResults(quietCtx(), cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.ValidStatus, statusOf(t, out, schema.HeatHazard).Status)

	data, err := os.ReadFile(filepath.Join(cfg.ExportDir, "heat_indicators.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,res_1,res_2,res_3,rec_1,e_f,m_1,m_2\n7,1,1,1,0.5,1,0.6,0.4\n", string(data))

	assert.NoFileExists(t, filepath.Join(cfg.ExportDir, "flood_indicators.csv"))
}

func TestGetValidateResultsChecksExposure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", heatTable)
	writeFile(t, dir, "exposure.json", exposureDoc)

	out, err := GetValidateResults(quietCtx(), newConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, 2, out.Features)

	writeFile(t, dir, "exposure.geojson", exposureDoc)
	_, err = GetValidateResults(quietCtx(), newConfig(dir))
	assert.Error(t, err)
}

func TestExecuteValidateFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "heat_indicators.csv", badHeatTable)

	cfg := newConfig(dir)
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "validate.csv")

	err := ExecuteValidate(quietCtx(), cfg, nil)
	assert.ErrorIs(t, err, ErrHazardsFailed)
}

func TestExecuteFields(t *testing.T) {
	cfg := newConfig(t.TempDir())
	cfg.Hazards = []schema.Hazard{schema.WindHazard}
	cfg.OutputFile = filepath.Join(t.TempDir(), "fields.json")

	require.NoError(t, ExecuteFields(context.Background(), cfg, nil))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var defs []schema.FieldDefinition
	require.NoError(t, json.Unmarshal(data, &defs))
	require.Len(t, defs, 1)
	assert.Equal(t, schema.WindHazard, defs[0].Hazard)
}

func TestSuppressProgress(t *testing.T) {
	assert.False(t, shouldSuppressProgress(context.Background()))
	assert.True(t, shouldSuppressProgress(WithSuppressProgress(context.Background())))
}

func TestSetClockNilResets(t *testing.T) {
	fake := fakeClock(t)
	assert.Equal(t, fixedStart, clock.Now())
	fake.Advance(time.Minute)
	assert.Equal(t, fixedStart.Add(time.Minute), clock.Now())

	SetClock(nil)
	assert.NotEqual(t, fixedStart.Add(time.Minute), clock.Now())
}

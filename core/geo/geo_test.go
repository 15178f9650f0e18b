package geo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mres-project/mres/core/agg"
	"github.com/mres-project/mres/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoFeatures = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 1, "geometry": {"type": "Point", "coordinates": [7.1, 46.2]}, "properties": {}},
    {"type": "Feature", "id": 2, "geometry": {"type": "Point", "coordinates": [7.2, 46.3]}, "properties": {}}
  ]
}`

func parse(t *testing.T, doc string) *Exposure {
	t.Helper()
	exp, err := ParseExposure([]byte(doc))
	require.NoError(t, err)
	return exp
}

func TestMergeExample(t *testing.T) {
	fc := parse(t, twoFeatures)

	modified := Merge(fc, schema.HeatHazard, agg.ScoreMap{"1": 0.42})

	assert.Equal(t, 1, modified)
	assert.Equal(t, 0.42, fc.Features[0].Properties["heat_rrl"])
	assert.Empty(t, fc.Features[1].Properties)
}

func TestMergeZeroScoreIsWritten(t *testing.T) {
	fc := parse(t, twoFeatures)

	modified := Merge(fc, schema.FloodHazard, agg.ScoreMap{"2": 0})

	assert.Equal(t, 1, modified)
	value, ok := fc.Features[1].Properties["flood_rrl"]
	require.True(t, ok)
	assert.Equal(t, 0.0, value)
}

func TestMergeOverwritesAndPreserves(t *testing.T) {
	fc := parse(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"7","geometry":{"type":"Point","coordinates":[0,0]},"properties":{"name":"hall","wind_rrl":0.9}}
	]}`)

	modified := Merge(fc, schema.WindHazard, agg.ScoreMap{"7": 0.1})

	assert.Equal(t, 1, modified)
	assert.Equal(t, 0.1, fc.Features[0].Properties["wind_rrl"])
	assert.Equal(t, "hall", fc.Features[0].Properties["name"])
}

func TestMergeHazardsIndependent(t *testing.T) {
	fc := parse(t, twoFeatures)

	Merge(fc, schema.HeatHazard, agg.ScoreMap{"1": 0.2, "2": 0.3})
	Merge(fc, schema.SeismicHazard, agg.ScoreMap{"1": 0.5})

	assert.Equal(t, 0.2, fc.Features[0].Properties["heat_rrl"])
	assert.Equal(t, 0.5, fc.Features[0].Properties["seismic_rrl"])
	assert.NotContains(t, fc.Features[1].Properties, "seismic_rrl")
}

func TestMergeNilProperties(t *testing.T) {
	fc := parse(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":3,"geometry":null,"properties":null},
		{"type":"Feature","id":4,"geometry":null}
	]}`)

	assert.Equal(t, 1, Merge(fc, schema.HeatHazard, agg.ScoreMap{"3": 0.7}))
	assert.Equal(t, 0.7, fc.Features[0].Properties["heat_rrl"])
	assert.Nil(t, fc.Features[1].Properties)
	assert.Equal(t, 0, Merge(nil, schema.HeatHazard, agg.ScoreMap{"3": 0.7}))

	data, err := fc.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"properties":{"heat_rrl":0.7}`)
	assert.Contains(t, string(data), `"id":4,"properties":null`)
}

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{1.0, "1", true},
		{float64(1234567), "1234567", true},
		{-3.0, "-3", true},
		{1.5, "", false},
		{"42", "42", true},
		{" 042 ", "42", true},
		{"bldg-7", "bldg-7", true},
		{"  ", "", false},
		{nil, "", false},
		{int64(9), "9", true},
		{7, "7", true},
		{true, "", false},
	}

	for _, tt := range tests {
		got, ok := CanonicalID(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestFeatureIDs(t *testing.T) {
	fc := parse(t, `{"type":"FeatureCollection","features":[
		{"type":"Feature","id":5,"geometry":{"type":"Point","coordinates":[0,0]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}},
		{"type":"Feature","id":"x1","geometry":{"type":"Point","coordinates":[0,0]},"properties":{}}
	]}`)
	assert.Equal(t, []string{"5", "x1"}, FeatureIDs(fc))
}

func TestLoadAndSaveExposure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exposure.geojson")
	require.NoError(t, os.WriteFile(path, []byte(twoFeatures), 0o644))

	fc, err := LoadExposure(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	Merge(fc, schema.HeatHazard, agg.ScoreMap{"1": 0.42})
	require.NoError(t, SaveExposure(path, fc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc struct {
		Features []struct {
			ID         float64        `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Features, 2)
	assert.Equal(t, 0.42, doc.Features[0].Properties["heat_rrl"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is renamed away")
}

func TestSaveExposurePreservesUntouchedMembers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exposure.geojson")
	doc := `{"type":"FeatureCollection","name":"district 4","features":[
		{"type":"Feature","id":1,"source":"osm",
		 "geometry":{"type":"Point","coordinates":[7.1,46.2,512.5]},
		 "properties":{"osm_id":9007199254740993,"levels":{"above":3}}},
		{"type":"Feature","id":2,
		 "geometry":{"type":"Point","coordinates":[7.2,46.3,498.25]},
		 "properties":{"osm_id":9007199254740995}}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	fc, err := LoadExposure(path)
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), fc.Features[0].Properties["osm_id"])

	require.Equal(t, 1, Merge(fc, schema.HeatHazard, agg.ScoreMap{"1": 0.5}))
	require.NoError(t, SaveExposure(path, fc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	saved := string(data)
	assert.Contains(t, saved, `"name":"district 4"`)
	assert.Contains(t, saved, `"source":"osm"`)
	assert.Contains(t, saved, `"coordinates":[7.1,46.2,512.5]`)
	assert.Contains(t, saved, `"coordinates":[7.2,46.3,498.25]`)
	assert.Contains(t, saved, `"heat_rrl":0.5`)
	assert.Contains(t, saved, `"osm_id":9007199254740993`)
	assert.Contains(t, saved, `"osm_id":9007199254740995`)
	assert.Contains(t, saved, `"levels":{"above":3}`)

	again, err := LoadExposure(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, FeatureIDs(again))
}

func TestLoadExposureErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadExposure(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	_, err = LoadExposure(empty)
	assert.ErrorIs(t, err, ErrNoFeatures)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"type":`), 0o644))
	_, err = LoadExposure(broken)
	assert.Error(t, err)
}

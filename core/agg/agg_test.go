package agg

import (
	"testing"

	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heat(id int, rec float64) rrl.Record {
	return &rrl.Heat{ID: id, Res1: 1, Res2: 1, Res3: 1, Rec1: rec, EF: 1, M1: 0.6, M2: 0.4}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		records    []rrl.Record
		want       ScoreMap
		duplicates []string
	}{
		{
			name:    "empty",
			records: nil,
			want:    ScoreMap{},
		},
		{
			name:    "one entry per record",
			records: []rrl.Record{heat(1, 0.5), heat(2, 1), heat(3, 0)},
			want:    ScoreMap{"1": 0.2, "2": 0, "3": 0.4},
		},
		{
			name:       "last write wins",
			records:    []rrl.Record{heat(1, 0.5), heat(2, 1), heat(1, 0)},
			want:       ScoreMap{"1": 0.4, "2": 0},
			duplicates: []string{"1"},
		},
		{
			name:       "duplicates sorted numerically",
			records:    []rrl.Record{heat(10, 1), heat(9, 1), heat(10, 1), heat(9, 1)},
			want:       ScoreMap{"9": 0, "10": 0},
			duplicates: []string{"9", "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Aggregate(tt.records)
			require.NoError(t, err)
			require.Len(t, result.Scores, len(tt.want))
			for id, score := range tt.want {
				assert.InDelta(t, score, result.Scores[id], 1e-12, id)
			}
			assert.Equal(t, tt.duplicates, result.Duplicates)
		})
	}
}

func TestAggregateMixedHazards(t *testing.T) {
	seismic := &rrl.Seismic{ID: 2, M1: 0.5, M2: 0.5}
	_, err := Aggregate([]rrl.Record{heat(1, 0.5), seismic})
	assert.ErrorIs(t, err, ErrMixedHazards)
}

func TestAggregateStrict(t *testing.T) {
	result, err := AggregateStrict([]rrl.Record{heat(1, 0.5), heat(2, 0.5)})
	require.NoError(t, err)
	assert.Equal(t, schema.HeatHazard, result.Hazard)
	assert.Len(t, result.Scores, 2)

	_, err = AggregateStrict([]rrl.Record{heat(5, 0.5), heat(5, 0.2)})
	var dupErr *DuplicateIDError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, []string{"5"}, dupErr.IDs)
	assert.Contains(t, err.Error(), "duplicate ids 5")
}

func TestScoreMapSummary(t *testing.T) {
	assert.Equal(t, schema.ScoreSummary{}, ScoreMap{}.Summary())

	summary := ScoreMap{"1": 0.2, "2": 0.4, "3": 0.9}.Summary()
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 0.2, summary.Min, 1e-12)
	assert.InDelta(t, 0.9, summary.Max, 1e-12)
	assert.InDelta(t, 0.5, summary.Mean, 1e-12)
}

func TestScoreMapSorted(t *testing.T) {
	scores := ScoreMap{"b": 0.5, "2": 0.5, "10": 0.5, "7": 0.9}.Sorted(schema.WindHazard)
	require.Len(t, scores, 4)

	var ids []string
	for _, s := range scores {
		ids = append(ids, s.BuildingID)
		assert.Equal(t, schema.WindHazard, s.Hazard)
	}
	assert.Equal(t, []string{"7", "2", "10", "b"}, ids)
}

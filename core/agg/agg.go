// Package agg computes indicator records into per-building score maps.
package agg

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mres-project/mres/core/rrl"
	"github.com/mres-project/mres/schema"
)

// ErrMixedHazards is returned when one aggregation receives records of several hazards.
var ErrMixedHazards = errors.New("records belong to more than one hazard")

// ScoreMap maps a stringified building id to its RRL.
type ScoreMap map[string]float64

// Result is the outcome of one aggregation.
type Result struct {
	Hazard     schema.Hazard
	Scores     ScoreMap
	Duplicates []string // ids seen more than once, sorted
}

// DuplicateIDError reports ids that occur more than once in strict mode.
type DuplicateIDError struct {
	Hazard schema.Hazard
	IDs    []string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s indicators: duplicate ids %s", e.Hazard, strings.Join(e.IDs, ", "))
}

// Aggregate computes every record. When two records share an id the later one wins
// and the id is listed in Result.Duplicates.
func Aggregate(records []rrl.Record) (Result, error) {
	result := Result{Scores: make(ScoreMap, len(records))}
	seen := make(map[string]int, len(records))

	for _, r := range records {
		if result.Hazard == "" {
			result.Hazard = r.Hazard()
		} else if r.Hazard() != result.Hazard {
			return Result{}, fmt.Errorf("%w: %s and %s", ErrMixedHazards, result.Hazard, r.Hazard())
		}

		id := strconv.Itoa(r.BuildingID())
		seen[id]++
		result.Scores[id] = r.Compute()
	}

	for id, count := range seen {
		if count > 1 {
			result.Duplicates = append(result.Duplicates, id)
		}
	}
	sortIDs(result.Duplicates)
	return result, nil
}

// AggregateStrict is Aggregate but fails with *DuplicateIDError when any id repeats.
func AggregateStrict(records []rrl.Record) (Result, error) {
	result, err := Aggregate(records)
	if err != nil {
		return Result{}, err
	}
	if len(result.Duplicates) > 0 {
		return Result{}, &DuplicateIDError{Hazard: result.Hazard, IDs: result.Duplicates}
	}
	return result, nil
}

// Summary returns count, min, max and mean of the scores.
func (m ScoreMap) Summary() schema.ScoreSummary {
	if len(m) == 0 {
		return schema.ScoreSummary{}
	}
	summary := schema.ScoreSummary{Count: len(m), Min: math.Inf(1), Max: math.Inf(-1)}
	var total float64
	for _, score := range m {
		total += score
		summary.Min = math.Min(summary.Min, score)
		summary.Max = math.Max(summary.Max, score)
	}
	summary.Mean = total / float64(len(m))
	return summary
}

// Sorted returns the scores of a hazard ordered by descending score, then by id.
func (m ScoreMap) Sorted(h schema.Hazard) []schema.BuildingScore {
	scores := make([]schema.BuildingScore, 0, len(m))
	for id, score := range m {
		scores = append(scores, schema.BuildingScore{Hazard: h, BuildingID: id, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return lessID(scores[i].BuildingID, scores[j].BuildingID)
	})
	return scores
}

func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
}

// lessID orders numeric ids numerically and everything else lexically after them.
func lessID(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

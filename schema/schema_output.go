package schema

// Score label constants.
const (
	CriticalValue = "Critical"
	HighValue     = "High"
	ModerateValue = "Moderate"
	LowValue      = "Low"
)

// EnrichedBuildingScore adds presentation data to a BuildingScore.
type EnrichedBuildingScore struct {
	Label string `json:"label"`
	BuildingScore
}

// GetPlainLabel returns a plain text label for an RRL score.
// Lower scores are more resilient.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.8:
		return CriticalValue
	case score >= 0.6:
		return HighValue
	case score >= 0.4:
		return ModerateValue
	default:
		return LowValue
	}
}

// EnrichScores adds labels to a list of building scores.
func EnrichScores(scores []BuildingScore) []EnrichedBuildingScore {
	output := make([]EnrichedBuildingScore, len(scores))
	for i, s := range scores {
		output[i] = EnrichedBuildingScore{
			Label:         GetPlainLabel(s.Score),
			BuildingScore: s,
		}
	}
	return output
}

package schema

// Custom string types for type safety.
type (
	// Hazard represents a natural-hazard type that has its own indicator schema.
	Hazard string

	// OutputMode represents the format of the output.
	OutputMode string

	// HazardStatus represents the outcome of processing one hazard.
	HazardStatus string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string
)

// All hazards supported.
const (
	HeatHazard    Hazard = "heat"
	SeismicHazard Hazard = "seismic"
	WindHazard    Hazard = "wind"
	FloodHazard   Hazard = "flood"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All hazard statuses supported.
const (
	MergedStatus    HazardStatus = "merged"
	ScoredStatus    HazardStatus = "scored"
	ValidStatus     HazardStatus = "valid"
	SkippedStatus   HazardStatus = "skipped"
	FailedStatus    HazardStatus = "failed"
	CancelledStatus HazardStatus = "cancelled"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllHazards lists every hazard in processing order.
var AllHazards = []Hazard{HeatHazard, SeismicHazard, WindHazard, FloodHazard}

// ValidHazards lists all valid hazards.
var ValidHazards = map[Hazard]struct{}{
	HeatHazard:    {},
	SeismicHazard: {},
	WindHazard:    {},
	FloodHazard:   {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// PropertyKey returns the feature property that holds the RRL for this hazard.
func (h Hazard) PropertyKey() string {
	return string(h) + "_rrl"
}

// IndicatorsFile returns the indicator table file name for this hazard.
func (h Hazard) IndicatorsFile() string {
	return string(h) + "_indicators.csv"
}

package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mres-project/mres/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 3
	MaxPrecision     = 6
	DefaultLimit     = 0 // no limit
	MaxResultLimit   = 1_000_000
)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for a run.
// This struct remains the "final, validated" config.
type Config struct {
	Dir            string // absolute working directory
	Hazards        []schema.Hazard
	Precision      int
	Output         schema.OutputMode
	OutputFile     string
	ResultLimit    int // 0 means every building
	Width          int // Terminal width override (0 = auto-detect)
	DryRun         bool
	StrictIDs      bool
	ExposureOutput string
	MetricsFile    string
	ExportDir      string // validate writes normalized tables here when set

	Force        bool
	FromExposure bool

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	DirStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Hazards          string `mapstructure:"hazards"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from mergeCmd.Flags() ---
	DryRun         bool   `mapstructure:"dry-run"`
	StrictIDs      bool   `mapstructure:"strict-ids"`
	ExposureOutput string `mapstructure:"exposure-output"`
	MetricsFile    string `mapstructure:"metrics-file"`

	// --- Fields from scoresCmd.Flags() ---
	Limit int `mapstructure:"limit"`

	// --- Fields from validateCmd.Flags() ---
	ExportDir string `mapstructure:"export-dir"`

	// --- Fields from templateCmd.Flags() ---
	Force        bool `mapstructure:"force"`
	FromExposure bool `mapstructure:"from-exposure"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Hazards != nil {
		clone.Hazards = slices.Clone(c.Hazards)
	}
	return &clone
}

// Params returns the configuration recorded with each history run.
func (c *Config) Params() map[string]any {
	hazards := make([]string, len(c.Hazards))
	for i, h := range c.Hazards {
		hazards[i] = string(h)
	}
	return map[string]any{
		"dir":             c.Dir,
		"hazards":         hazards,
		"dry_run":         c.DryRun,
		"strict_ids":      c.StrictIDs,
		"exposure_output": c.ExposureOutput,
	}
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := resolveWorkingDir(cfg, input); err != nil {
		return err
	}
	return nil
}

// ParseHazards parses a comma separated hazard list. An empty list selects every hazard.
// Duplicates are dropped and the canonical processing order is kept.
func ParseHazards(s string) ([]schema.Hazard, error) {
	if strings.TrimSpace(s) == "" {
		return slices.Clone(schema.AllHazards), nil
	}

	selected := make(map[schema.Hazard]struct{})
	for part := range strings.SplitSeq(s, ",") {
		h := schema.Hazard(strings.ToLower(strings.TrimSpace(part)))
		if h == "" {
			continue
		}
		if _, ok := schema.ValidHazards[h]; !ok {
			return nil, fmt.Errorf("invalid hazard '%s'. must be heat, seismic, wind, flood", part)
		}
		selected[h] = struct{}{}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no hazards selected in '%s'", s)
	}

	hazards := make([]schema.Hazard, 0, len(selected))
	for _, h := range schema.AllHazards {
		if _, ok := selected[h]; ok {
			hazards = append(hazards, h)
		}
	}
	return hazards, nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the history backend configuration.
// An empty backend disables run history.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(input.HistoryBackend)))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.DryRun = input.DryRun
	cfg.StrictIDs = input.StrictIDs
	cfg.ExposureOutput = strings.TrimSpace(input.ExposureOutput)
	cfg.MetricsFile = strings.TrimSpace(input.MetricsFile)
	cfg.ExportDir = strings.TrimSpace(input.ExportDir)
	cfg.Force = input.Force
	cfg.FromExposure = input.FromExposure

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Hazards ---
	hazards, err := ParseHazards(input.Hazards)
	if err != nil {
		return err
	}
	cfg.Hazards = hazards

	// --- 2. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit cannot be negative or exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	return nil
}

// resolveWorkingDir resolves the positional directory argument to an absolute directory.
func resolveWorkingDir(cfg *Config, input *ConfigRawInput) error {
	dir := input.DirStr
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absDir = filepath.Clean(absDir)

	info, err := os.Stat(absDir)
	if err != nil {
		return fmt.Errorf("working directory %s: %w", absDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory %s is not a directory", absDir)
	}
	cfg.Dir = absDir

	if cfg.ExposureOutput != "" && !filepath.IsAbs(cfg.ExposureOutput) {
		cfg.ExposureOutput = filepath.Join(absDir, cfg.ExposureOutput)
	}
	if cfg.ExportDir != "" {
		if !filepath.IsAbs(cfg.ExportDir) {
			cfg.ExportDir = filepath.Join(absDir, cfg.ExportDir)
		}
		cfg.ExportDir = filepath.Clean(cfg.ExportDir)
		if cfg.ExportDir == absDir {
			return fmt.Errorf("--export-dir must differ from the working directory %s", absDir)
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
}

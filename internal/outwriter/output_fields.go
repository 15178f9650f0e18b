package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/schema"
)

// getDisplayNameForHazard returns the display name with emoji for a hazard.
func getDisplayNameForHazard(h schema.Hazard) string {
	switch h {
	case schema.HeatHazard:
		return "🌡️  HEAT"
	case schema.SeismicHazard:
		return "🌋 SEISMIC"
	case schema.WindHazard:
		return "🌪️  WIND"
	case schema.FloodHazard:
		return "🌊 FLOOD"
	default:
		return strings.ToUpper(string(h))
	}
}

// WriteFieldDefinitions displays the indicator schema and formula of each hazard.
// This is a static display that reads no input files.
func WriteFieldDefinitions(defs []schema.FieldDefinition, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, defs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFieldsCSV(w, defs)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFieldsText(w, defs)
		}, "Wrote text")
	}
}

func writeFieldsText(w io.Writer, defs []schema.FieldDefinition) error {
	if _, err := fmt.Fprintf(w, "Resilience Readiness Levels\n===========================\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Lower RRL means more resilient. Tables are named <hazard>_indicators.csv.\n\n"); err != nil {
		return err
	}

	for _, def := range defs {
		if _, err := fmt.Fprintf(w, "%s\n", getDisplayNameForHazard(def.Hazard)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Formula: RRL = %s\n", def.Formula); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Columns: %s\n", strings.Join(def.Fields, ", ")); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "   Ranges:  %s\n\n", formatBounds(def)); err != nil {
			return err
		}
	}
	return nil
}

// formatBounds groups consecutive fields sharing a range, e.g. "res_1..rec_1 (0,1]".
func formatBounds(def schema.FieldDefinition) string {
	var parts []string
	var first, last, bound string
	flush := func() {
		if first == "" {
			return
		}
		name := first
		if last != first {
			name = first + ".." + last
		}
		parts = append(parts, name+" "+bound)
	}
	for _, f := range def.Fields {
		b, ok := def.Bounds[f]
		if !ok {
			continue
		}
		if b == bound && first != "" {
			last = f
			continue
		}
		flush()
		first, last, bound = f, f, b
	}
	flush()
	return strings.Join(parts, ", ")
}

func writeFieldsCSV(w io.Writer, defs []schema.FieldDefinition) error {
	return writeCSVWithHeader(w, []string{"hazard", "field", "range", "formula"}, func(cw *csv.Writer) error {
		for _, def := range defs {
			for _, f := range def.Fields {
				if err := cw.Write([]string{string(def.Hazard), f, def.Bounds[f], def.Formula}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

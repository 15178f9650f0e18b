package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/parquet"
	"github.com/mres-project/mres/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunResults outputs the per-hazard summary of a run, dispatching on the output format.
func WriteRunResults(out schema.RunOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, out)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunCSV(w, out, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		// The summary has no columnar form; export the scores behind it instead
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteBuildingScores(w, parquet.ConvertBuildingScores(out.AllScores()))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunTable(w, out, cfg, fmtFloat)
		}, "Wrote table")
	}
}

// writeRunTable renders one row per hazard.
func writeRunTable(w io.Writer, out schema.RunOutput, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Hazard", "Table", "Rows", "Buildings", "Modified", "Min", "Mean", "Max", "Status"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range out.Hazards {
		tableName := "-"
		if r.Table != "" {
			tableName = filepath.Base(r.Table)
		}
		row := []string{
			string(r.Hazard),
			tableName,
			strconv.Itoa(r.Rows),
			strconv.Itoa(r.Buildings),
			strconv.Itoa(r.Modified),
		}
		if r.Summary.Count > 0 {
			row = append(row, fmtFloat(r.Summary.Min), fmtFloat(r.Summary.Mean), fmtFloat(r.Summary.Max))
		} else {
			row = append(row, "-", "-", "-")
		}
		row = append(row, statusText(r))
		data = append(data, row)
	}
	if len(out.Hazards) == 0 {
		data = append(data, []string{"-", "-", "0", "0", "0", "-", "-", "-", "-"})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, r := range out.Hazards {
		if r.Error != "" {
			if _, err := fmt.Fprintf(w, "%s: %s\n", r.Hazard, r.Error); err != nil {
				return err
			}
		}
		if len(r.DuplicateIDs) > 0 {
			if _, err := fmt.Fprintf(w, "%s: duplicate ids (last row wins): %s\n", r.Hazard, strings.Join(r.DuplicateIDs, ", ")); err != nil {
				return err
			}
		}
	}

	target := out.ExposureFile
	if out.OutputFile != "" {
		target = out.OutputFile
	}
	if target != "" {
		verb := "Updated"
		switch {
		case !merged(out):
			verb = "Checked"
		case out.DryRun:
			verb = "Dry run, not written:"
		}
		if _, err := fmt.Fprintf(w, "%s %s (%d features)\n", verb, target, out.Features); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Run completed in %v. History backend: %s\n", out.Duration, historyLabel(cfg)); err != nil {
		return err
	}
	return nil
}

// merged reports whether any hazard of the run was merged into the collection.
func merged(out schema.RunOutput) bool {
	for _, r := range out.Hazards {
		if r.Status == schema.MergedStatus {
			return true
		}
	}
	return false
}

// writeRunCSV writes one record per hazard.
func writeRunCSV(w io.Writer, out schema.RunOutput, fmtFloat func(float64) string) error {
	header := []string{"hazard", "status", "table", "rows", "buildings", "modified", "duplicates", "min", "mean", "max", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range out.Hazards {
			rec := []string{
				string(r.Hazard),
				string(r.Status),
				r.Table,
				strconv.Itoa(r.Rows),
				strconv.Itoa(r.Buildings),
				strconv.Itoa(r.Modified),
				strings.Join(r.DuplicateIDs, "|"),
				fmtFloat(r.Summary.Min),
				fmtFloat(r.Summary.Mean),
				fmtFloat(r.Summary.Max),
				r.Error,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// statusText colors failures so they stand out in the table.
func statusText(r schema.HazardResult) string {
	switch r.Status {
	case schema.FailedStatus:
		return contract.CriticalColor.Sprint(string(r.Status))
	case schema.SkippedStatus, schema.CancelledStatus:
		return contract.ModerateColor.Sprint(string(r.Status))
	default:
		return string(r.Status)
	}
}

func historyLabel(cfg *contract.Config) string {
	if cfg.HistoryBackend == "" {
		return "disabled"
	}
	return string(cfg.HistoryBackend)
}

package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mres-project/mres/internal/contract"
	"github.com/mres-project/mres/internal/parquet"
	"github.com/mres-project/mres/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// rankedScore is a building score with its rank inside its hazard.
type rankedScore struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	schema.BuildingScore
}

// rankScores numbers scores from 1, restarting whenever the hazard changes.
func rankScores(scores []schema.BuildingScore) []rankedScore {
	output := make([]rankedScore, len(scores))
	rank := 0
	for i, s := range scores {
		if i == 0 || s.Hazard != scores[i-1].Hazard {
			rank = 0
		}
		rank++
		output[i] = rankedScore{Rank: rank, Label: schema.GetPlainLabel(s.Score), BuildingScore: s}
	}
	return output
}

// WriteScoreResults outputs per-building scores, dispatching on the output format.
func WriteScoreResults(scores []schema.BuildingScore, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)
	ranked := rankScores(scores)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, ranked)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresCSV(w, ranked, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteBuildingScores(w, parquet.ConvertBuildingScores(scores))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeScoresTable(w, ranked, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeScoresTable generates and writes the human-readable table.
func writeScoresTable(w io.Writer, ranked []rankedScore, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Hazard", "Building", "Score", "Label"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	idWidth := GetMaxTableIDWidth(cfg)
	var data [][]string
	for _, s := range ranked {
		label := s.Label
		if cfg.UseColors {
			label = contract.GetColorLabel(s.Score)
		}
		data = append(data, []string{
			strconv.Itoa(s.Rank),
			string(s.Hazard),
			contract.TruncateID(s.BuildingID, idWidth),
			fmtFloat(s.Score),
			label,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Showing %d building scores\n", len(ranked)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Scoring completed in %v\n", duration); err != nil {
		return err
	}
	return nil
}

// writeScoresCSV writes one record per building score.
func writeScoresCSV(w io.Writer, ranked []rankedScore, fmtFloat func(float64) string) error {
	header := []string{"rank", "hazard", "building_id", "score", "label"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range ranked {
			rec := []string{
				strconv.Itoa(s.Rank),
				string(s.Hazard),
				s.BuildingID,
				fmtFloat(s.Score),
				s.Label,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

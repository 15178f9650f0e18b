package runstore

import (
	"errors"
	"fmt"

	"github.com/mres-project/mres/internal/parquet"
)

// ExecuteHistoryExport exports run history to Parquet files next to outputFile.
func ExecuteHistoryExport(outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetRunStore()
	if store == nil {
		return errors.New("run history is disabled; set --history-backend to export")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total building scores: %d\n", status.TableSizes[buildingScoresTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	scores, err := store.GetAllBuildingScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve building scores: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetScores := parquet.ConvertBuildingScoreRecords(scores)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	scoresFile := outputFile + ".building_scores.parquet"
	if err := parquet.WriteBuildingScoresParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write building scores: %w", err)
	}
	fmt.Printf("Exported %d building scores to: %s\n", len(parquetScores), scoresFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}

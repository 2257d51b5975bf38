package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/GlasgowC3lab/ichnos/internal/footprint"
	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

// WriteAll writes the summary, merged task trace and ranking reports for a
// run into the output folder, creating it if needed. The trace file holds
// whole-task records merged from slices.
func WriteAll(folder, name string, info RunInfo, result *footprint.Result) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create output folder %s: %w", folder, err)
	}

	summary := Summary(info, result)
	summaryPath := filepath.Join(folder, name+"-summary.txt")
	if err := os.WriteFile(summaryPath, []byte(summary), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	merged := MergeByID(result.Records)

	tracePath := filepath.Join(folder, name+"-trace.csv")
	traceFile, err := os.Create(tracePath)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	defer traceFile.Close()
	if err := trace.WriteFootprints(traceFile, merged); err != nil {
		return err
	}

	ranking := Ranking(merged, 10)
	rankPath := filepath.Join(folder, name+"-detailed-summary.txt")
	content := fmt.Sprintf("Detailed Report for %s\n\n%s", name, ranking)
	if err := os.WriteFile(rankPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write detailed report: %w", err)
	}

	return nil
}

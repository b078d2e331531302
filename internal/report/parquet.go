package report

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/vizpulse/vizpulse/internal/store"
)

// WriteRunsParquet exports tracked report runs to a Parquet file. The
// schema is inferred from the RunRecord struct tags.
func WriteRunsParquet(runs []store.RunRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[store.RunRecord](file)
	if _, err := writer.Write(runs); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

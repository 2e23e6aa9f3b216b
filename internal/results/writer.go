package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
)

func WriteSummaries(fileName string, schema Schema, summaries []model.RunSummary) error {
	records := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		record := []string{common.Timestamp(summary.Timestamp)}
		record = append(record, dimensionValues(schema, summary.Combination)...)
		if schema.IncludeNumRounds {
			record = append(record, fmt.Sprintf("%d", summary.NumRounds))
		}
		record = append(record, summary.Status, common.FormatOptionalFloat(summary.FinalAccuracy),
			common.FormatOptionalFloat(summary.FinalLoss), common.FormatOptionalString(summary.Error))
		records = append(records, record)
	}
	return writeCsv(fileName, schema.SummaryHeader(), records)
}

func WriteRounds(fileName string, schema Schema, rounds []model.RoundResult) error {
	records := make([][]string, 0, len(rounds))
	for _, round := range rounds {
		record := dimensionValues(schema, round.Combination)
		record = append(record, fmt.Sprintf("%d", round.Round), common.FormatOptionalFloat(round.Accuracy),
			common.FormatOptionalFloat(round.Loss))
		records = append(records, record)
	}
	return writeCsv(fileName, schema.RoundsHeader(), records)
}

func WriteClasses(fileName string, schema Schema, classes []model.ClientClasses) error {
	records := make([][]string, 0, len(classes))
	for _, c := range classes {
		record := dimensionValues(schema, c.Combination)
		record = append(record, fmt.Sprintf("%d", c.ClientId), c.Classes, c.Counts)
		records = append(records, record)
	}
	return writeCsv(fileName, schema.ClassesHeader(), records)
}

func dimensionValues(schema Schema, combination model.Combination) []string {
	values := make([]string, 0, len(schema.Dimensions))
	for _, dimension := range schema.Dimensions {
		values = append(values, combination.Value(dimension))
	}
	return values
}

func writeCsv(fileName string, header []string, records [][]string) error {
	if err := common.EnsureDir(filepath.Dir(fileName)); err != nil {
		return err
	}

	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", fileName, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", fileName, err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write records to %s: %w", fileName, err)
	}

	return file.Close()
}

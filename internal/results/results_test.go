package results

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestSchema_Headers(t *testing.T) {
	participation := Schema{Dimensions: []string{"num_clients", "fraction_fit", "seed"}}
	assert.Equal(t, []string{"timestamp", "num_clients", "fraction_fit", "seed", "status", "final_accuracy", "final_loss", "error"},
		participation.SummaryHeader())
	assert.Equal(t, []string{"num_clients", "fraction_fit", "seed", "round", "accuracy", "loss"}, participation.RoundsHeader())

	seeds := Schema{Dimensions: []string{"num_clients", "seed"}, IncludeNumRounds: true}
	assert.Equal(t, []string{"timestamp", "num_clients", "seed", "num_rounds", "status", "final_accuracy", "final_loss", "error"},
		seeds.SummaryHeader())
	assert.Equal(t, []string{"num_clients", "seed", "client_id", "classes", "counts"}, seeds.ClassesHeader())
}

func TestWriteSummaries_FormatsNullsAndFloats(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "nested", "summary.csv")
	schema := Schema{Dimensions: []string{"num_clients", "fraction_fit", "seed"}}
	at := time.Date(2025, 10, 30, 0, 35, 43, 123456000, time.Local)

	err := WriteSummaries(fileName, schema, []model.RunSummary{
		{
			Timestamp:     at,
			Combination:   model.Combination{NumClients: 5, FractionFit: ptr(1.0), Seed: ptr(0)},
			Status:        "ok",
			FinalAccuracy: ptr(0.6175),
			FinalLoss:     ptr(1.52),
		},
		{
			Timestamp:   at,
			Combination: model.Combination{NumClients: 10, FractionFit: ptr(0.2), Seed: ptr(4)},
			Status:      "failed",
			Error:       ptr("line one\nline, two"),
		},
	})
	require.NoError(t, err)

	content, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,num_clients,fraction_fit,seed,status,final_accuracy,final_loss,error\n"+
		"2025-10-30T00:35:43.123456,5,1.0,0,ok,0.6175,1.52,\n"+
		"2025-10-30T00:35:43.123456,10,0.2,4,failed,,,\"line one\nline, two\"\n", string(content))
}

func TestWriteAndReadRounds(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "rounds.csv")
	schema := Schema{Dimensions: []string{"num_clients", "seed"}}

	err := WriteRounds(fileName, schema, []model.RoundResult{
		{Combination: model.Combination{NumClients: 2, Seed: ptr(1)}, Round: 1, Accuracy: ptr(0.4), Loss: ptr(2.0)},
		{Combination: model.Combination{NumClients: 2, Seed: ptr(1)}, Round: 2, Loss: ptr(1.5)},
	})
	require.NoError(t, err)

	table, err := ReadTable(fileName)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	accuracies, err := table.Floats("accuracy")
	require.NoError(t, err)
	assert.Equal(t, 0.4, accuracies[0])
	assert.True(t, math.IsNaN(accuracies[1]))

	loss, err := table.Float(0, "loss")
	require.NoError(t, err)
	assert.Equal(t, 2.0, loss)

	_, err = table.Floats("fraction_fit")
	assert.ErrorContains(t, err, "missing column")
}

func TestTable_FilterWithColumnConcat(t *testing.T) {
	a := NewTable([]string{"num_clients", "round", "accuracy"}, [][]string{{"2", "1", "0.5"}, {"5", "1", "0.4"}})
	b := NewTable([]string{"num_clients", "round", "accuracy", "loss"}, [][]string{{"2", "1", "0.6", "1.1"}})

	filtered := a.Filter(func(row int) bool {
		v, _ := a.Float(row, "num_clients")
		return v == 2
	})
	assert.Equal(t, 1, filtered.Len())

	combined := Concat(a.WithColumn("alpha", "0.1"), b.WithColumn("alpha", "10.0"))
	assert.Equal(t, []string{"num_clients", "round", "accuracy", "alpha", "loss"}, combined.Header)
	require.Equal(t, 3, combined.Len())
	alpha, _ := combined.String(2, "alpha")
	assert.Equal(t, "10.0", alpha)
	loss, _ := combined.String(0, "loss")
	assert.Equal(t, "", loss)
}

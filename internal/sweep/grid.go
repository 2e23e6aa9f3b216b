package sweep

import (
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
)

// Grid expands a sweep into its combinations: client counts vary slowest, then
// fraction_fit, alpha, and seeds fastest. Dimensions the sweep leaves empty stay nil.
func Grid(sweep config.SweepConfig) []model.Combination {
	fractions := optionalSlots(sweep.FractionFit)
	alphas := optionalSlots(sweep.Alphas)
	seeds := optionalSlots(sweep.Seeds)

	combinations := []model.Combination{}
	for _, numClients := range sweep.ClientCounts {
		for _, fraction := range fractions {
			for _, alpha := range alphas {
				for _, seed := range seeds {
					combinations = append(combinations, model.Combination{
						NumClients:  numClients,
						FractionFit: fraction,
						Alpha:       alpha,
						Seed:        seed,
					})
				}
			}
		}
	}
	return combinations
}

// Dimensions lists the CSV dimension columns of a sweep.
func Dimensions(sweep config.SweepConfig) []string {
	if len(sweep.ClientCounts) == 0 {
		return nil
	}
	return Grid(sweep)[0].Dimensions()
}

func optionalSlots[T any](values []T) []*T {
	if len(values) == 0 {
		return []*T{nil}
	}
	slots := make([]*T, len(values))
	for i := range values {
		value := values[i]
		slots[i] = &value
	}
	return slots
}

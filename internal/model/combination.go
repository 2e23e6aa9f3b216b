package model

import (
	"fmt"
	"strings"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
)

// Combination is one point of a sweep grid. Optional dimensions are nil when the
// sweep does not vary them.
type Combination struct {
	NumClients  int
	FractionFit *float64
	Alpha       *float64
	Seed        *int
}

// Dimensions lists the dimension names present in the combination, in column order.
func (c Combination) Dimensions() []string {
	dims := []string{common.DIM_NUM_CLIENTS}
	if c.FractionFit != nil {
		dims = append(dims, common.DIM_FRACTION_FIT)
	}
	if c.Alpha != nil {
		dims = append(dims, common.DIM_ALPHA)
	}
	if c.Seed != nil {
		dims = append(dims, common.DIM_SEED)
	}
	return dims
}

// Value returns the CSV cell of a dimension column.
func (c Combination) Value(dimension string) string {
	switch dimension {
	case common.DIM_NUM_CLIENTS:
		return fmt.Sprint(c.NumClients)
	case common.DIM_FRACTION_FIT:
		return common.FormatOptionalFloat(c.FractionFit)
	case common.DIM_ALPHA:
		return common.FormatOptionalFloat(c.Alpha)
	case common.DIM_SEED:
		if c.Seed == nil {
			return ""
		}
		return fmt.Sprint(*c.Seed)
	}
	return ""
}

func (c Combination) String() string {
	parts := []string{fmt.Sprintf("%d clients", c.NumClients)}
	if c.FractionFit != nil {
		parts = append(parts, fmt.Sprintf("fraction_fit=%s", common.FormatFloat(*c.FractionFit)))
	}
	if c.Alpha != nil {
		parts = append(parts, fmt.Sprintf("alpha=%s", common.FormatFloat(*c.Alpha)))
	}
	if c.Seed != nil {
		parts = append(parts, fmt.Sprintf("seed=%d", *c.Seed))
	}
	return strings.Join(parts, " | ")
}

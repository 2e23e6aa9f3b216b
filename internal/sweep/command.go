package sweep

import (
	"fmt"
	"strings"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/model"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
)

func FederationConfig(federation string, numClients int) string {
	return fmt.Sprintf(`{"federation": "%s", "%s": %d}`, federation, common.FEDERATION_CONFIG_NUM_SUPERNODES, numClients)
}

// RunConfig renders the run config of a combination; the key order is fixed.
func RunConfig(numServerRounds int32, alphaKey string, combination model.Combination) string {
	entries := []string{fmt.Sprintf(`"%s": %d`, common.RUN_CONFIG_NUM_SERVER_ROUNDS, numServerRounds)}
	if combination.Seed != nil {
		entries = append(entries, fmt.Sprintf(`"%s": %d`, common.RUN_CONFIG_SEED, *combination.Seed))
	}
	if combination.FractionFit != nil {
		entries = append(entries, fmt.Sprintf(`"%s": %s`, common.RUN_CONFIG_FRACTION_FIT, common.FormatFloat(*combination.FractionFit)))
	}
	if combination.Alpha != nil {
		entries = append(entries, fmt.Sprintf(`"%s": %s`, alphaKey, common.FormatFloat(*combination.Alpha)))
	}
	return "{" + strings.Join(entries, ", ") + "}"
}

func BuildInvocation(flwr config.FlwrConfig, sweep config.SweepConfig, combination model.Combination, logName string) runner.Invocation {
	return runner.Invocation{
		Executable: flwr.Executable,
		Args: []string{
			common.FLWR_RUN_COMMAND, flwr.AppDir,
			"--federation-config", FederationConfig(flwr.Federation, combination.NumClients),
			"--run-config", RunConfig(sweep.NumServerRounds, sweep.AlphaKey, combination),
		},
		Timeout: sweep.Timeout,
		LogName: logName,
	}
}

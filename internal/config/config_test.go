package config_test

import (
	"testing"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYaml = `
flwr:
  executable: /opt/venv/bin/flwr
  app_dir: ./quickstart
log:
  level: INFO
output_dir: out
server:
  port: 9090
  schedules:
    - sweep: seeds
      spec: "0 0 2 * * *"
sweeps:
  participation:
    client_counts: [4, 8]
    timeout: 10m
  dirichlet:
    client_counts: [10]
    seeds: [0, 1]
    alphas: [0.1, 1.0, 10.0]
    alpha_key: dirichlet-alpha
    num_server_rounds: 5
    include_num_rounds: true
    summary_file: "summary_{{.Timestamp}}.csv"
    rounds_file: "rounds_{{.Timestamp}}.csv"
    log_file: "run_{{.NumClients}}_{{.Alpha}}_{{.Seed}}.log"
`

func TestConfigLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := config.LoadFromProvider(nil)
	require.NoError(t, err)

	assert.Equal(t, "flwr", cfg.Flwr.Executable)
	assert.Equal(t, "local-simulation", cfg.Flwr.Federation)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"clients", "labelgroups", "participation", "seeds"}, cfg.SweepNames())

	participation, err := cfg.Sweep("participation")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 10, 20}, participation.ClientCounts)
	assert.Equal(t, []float64{0.2, 0.5, 1.0}, participation.FractionFit)
	assert.Equal(t, 30*time.Minute, participation.Timeout)
	assert.Equal(t, 300, participation.ErrorLimit)

	labelgroups, err := cfg.Sweep("labelgroups")
	require.NoError(t, err)
	assert.True(t, labelgroups.ExtendedParsing)
	assert.False(t, labelgroups.TrimError)
	assert.Equal(t, time.Duration(0), labelgroups.Timeout)
}

func TestConfigLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := config.LoadFromProvider(rawbytes.Provider([]byte(testYaml)))
	require.NoError(t, err)

	assert.Equal(t, "/opt/venv/bin/flwr", cfg.Flwr.Executable)
	assert.Equal(t, "./quickstart", cfg.Flwr.AppDir)
	assert.Equal(t, "local-simulation", cfg.Flwr.Federation)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 9090, cfg.Server.Port)
	require.Len(t, cfg.Server.Schedules, 1)
	assert.Equal(t, "seeds", cfg.Server.Schedules[0].Sweep)

	participation, err := cfg.Sweep("participation")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8}, participation.ClientCounts)
	assert.Equal(t, 10*time.Minute, participation.Timeout)
	// untouched keys keep their defaults
	assert.Equal(t, []float64{0.2, 0.5, 1.0}, participation.FractionFit)

	dirichlet, err := cfg.Sweep("dirichlet")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 1.0, 10.0}, dirichlet.Alphas)
	assert.Equal(t, int32(5), dirichlet.NumServerRounds)
}

func TestConfigLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FLSWEEP_FLWR__EXECUTABLE", "flower")
	t.Setenv("FLSWEEP_OUTPUT_DIR", "/tmp/results")

	cfg, err := config.LoadFromProvider(rawbytes.Provider([]byte(testYaml)))
	require.NoError(t, err)

	assert.Equal(t, "flower", cfg.Flwr.Executable)
	assert.Equal(t, "/tmp/results", cfg.OutputDir)
}

func TestSweep_UnknownAndInvalid(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := cfg.Sweep("missing")
	assert.ErrorContains(t, err, "unknown sweep")

	broken := cfg.Sweeps["clients"]
	broken.ClientCounts = nil
	cfg.Sweeps["broken"] = broken
	_, err = cfg.Sweep("broken")
	assert.ErrorContains(t, err, "client_counts")

	alpha := cfg.Sweeps["seeds"]
	alpha.Alphas = []float64{0.5}
	cfg.Sweeps["alpha"] = alpha
	_, err = cfg.Sweep("alpha")
	assert.ErrorContains(t, err, "alpha_key")
}

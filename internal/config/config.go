package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
)

type Config struct {
	Flwr      FlwrConfig             `koanf:"flwr"`
	Log       LogConfig              `koanf:"log"`
	OutputDir string                 `koanf:"output_dir"`
	Server    ServerConfig           `koanf:"server"`
	Sweeps    map[string]SweepConfig `koanf:"sweeps"`
}

type FlwrConfig struct {
	Executable  string `koanf:"executable"`
	AppDir      string `koanf:"app_dir"`
	Federation  string `koanf:"federation"`
	ResultsJson string `koanf:"results_json"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

type ServerConfig struct {
	Port      int              `koanf:"port"`
	Schedules []ScheduleConfig `koanf:"schedules"`
}

type ScheduleConfig struct {
	Sweep string `koanf:"sweep"`
	Spec  string `koanf:"spec"`
}

// SweepConfig describes one experiment grid and how its output is parsed and stored.
// File names are text/template patterns over the combination (see sweep.FileNames).
type SweepConfig struct {
	ClientCounts     []int         `koanf:"client_counts"`
	FractionFit      []float64     `koanf:"fraction_fit"`
	Seeds            []int         `koanf:"seeds"`
	Alphas           []float64     `koanf:"alphas"`
	AlphaKey         string        `koanf:"alpha_key"`
	NumServerRounds  int32         `koanf:"num_server_rounds"`
	Timeout          time.Duration `koanf:"timeout"`
	ErrorLimit       int           `koanf:"error_limit"`
	TrimError        bool          `koanf:"trim_error"`
	ParseClasses     bool          `koanf:"parse_classes"`
	ExtendedParsing  bool          `koanf:"extended_parsing"`
	IncludeNumRounds bool          `koanf:"include_num_rounds"`
	SummaryFile      string        `koanf:"summary_file"`
	RoundsFile       string        `koanf:"rounds_file"`
	ClassesFile      string        `koanf:"classes_file"`
	LogFile          string        `koanf:"log_file"`
}

func (c *Config) Sweep(name string) (SweepConfig, error) {
	sweep, found := c.Sweeps[name]
	if !found {
		return SweepConfig{}, fmt.Errorf("unknown sweep: %s", name)
	}
	if err := sweep.Validate(); err != nil {
		return SweepConfig{}, fmt.Errorf("invalid sweep %s: %w", name, err)
	}
	return sweep, nil
}

func (c *Config) SweepNames() []string {
	names := make([]string, 0, len(c.Sweeps))
	for name := range c.Sweeps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s SweepConfig) Validate() error {
	if len(s.ClientCounts) == 0 {
		return fmt.Errorf("client_counts must not be empty")
	}
	for _, n := range s.ClientCounts {
		if n <= 0 {
			return fmt.Errorf("client count must be positive, got %d", n)
		}
	}
	for _, f := range s.FractionFit {
		if f <= 0 || f > 1 {
			return fmt.Errorf("fraction_fit must be in (0, 1], got %v", f)
		}
	}
	if s.NumServerRounds <= 0 {
		return fmt.Errorf("num_server_rounds must be positive, got %d", s.NumServerRounds)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if len(s.Alphas) > 0 && s.AlphaKey == "" {
		return fmt.Errorf("alpha_key is required when alphas are set")
	}
	if s.SummaryFile == "" || s.RoundsFile == "" || s.LogFile == "" {
		return fmt.Errorf("summary_file, rounds_file and log_file are required")
	}
	if s.ParseClasses && s.ClassesFile == "" {
		return fmt.Errorf("classes_file is required when parse_classes is set")
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Flwr: FlwrConfig{
			Executable:  common.FLWR_EXECUTABLE,
			AppDir:      common.FLWR_DEFAULT_APP_DIR,
			Federation:  common.FLWR_DEFAULT_FEDERATION,
			ResultsJson: common.FLWR_RESULTS_JSON,
		},
		Log: LogConfig{
			Level: "DEBUG",
			File:  "log/run.log",
		},
		OutputDir: ".",
		Server: ServerConfig{
			Port: 8080,
		},
		Sweeps: DefaultSweeps(),
	}
}

// DefaultSweeps are the experiment families the tool ships with.
func DefaultSweeps() map[string]SweepConfig {
	seeds := []int{0, 1, 2, 3, 4}
	return map[string]SweepConfig{
		"clients": {
			ClientCounts:     []int{2, 5, 10, 20},
			NumServerRounds:  10,
			Timeout:          30 * time.Minute,
			ErrorLimit:       500,
			TrimError:        true,
			IncludeNumRounds: true,
			SummaryFile:      "results_clients.csv",
			RoundsFile:       "results_rounds.csv",
			LogFile:          "flwr_run_{{.NumClients}}.log",
		},
		"participation": {
			ClientCounts:    []int{5, 10, 20},
			FractionFit:     []float64{0.2, 0.5, 1.0},
			Seeds:           seeds,
			NumServerRounds: 10,
			Timeout:         30 * time.Minute,
			ErrorLimit:      300,
			TrimError:       true,
			SummaryFile:     "results_clients_participation_summary_{{.Timestamp}}.csv",
			RoundsFile:      "results_clients_participation_rounds_{{.Timestamp}}.csv",
			LogFile:         "flwr_run_{{.NumClients}}c_{{.FractionFit}}frac_seed{{.Seed}}.log",
		},
		"seeds": {
			ClientCounts:     []int{2, 5, 10, 20},
			Seeds:            seeds,
			NumServerRounds:  10,
			ErrorLimit:       500,
			TrimError:        true,
			ParseClasses:     true,
			IncludeNumRounds: true,
			SummaryFile:      "results_clients_seeds_summary_NonIID.csv",
			RoundsFile:       "results_clients_seeds_rounds_NonIID.csv",
			ClassesFile:      "results_clients_classes_NonIID.csv",
			LogFile:          "flwr_run_{{.NumClients}}_clients_seed_{{.Seed}}.log",
		},
		"labelgroups": {
			ClientCounts:     []int{4},
			Seeds:            seeds,
			NumServerRounds:  10,
			ErrorLimit:       800,
			TrimError:        false,
			ParseClasses:     true,
			ExtendedParsing:  true,
			IncludeNumRounds: true,
			SummaryFile:      "results_noniid_labelgroups_summary_debug.csv",
			RoundsFile:       "results_noniid_labelgroups_rounds_debug.csv",
			ClassesFile:      "results_noniid_labelgroups_classes_debug.csv",
			LogFile:          "flwr_noniid_labelgroups_seed_{{.Seed}}.log",
		},
	}
}

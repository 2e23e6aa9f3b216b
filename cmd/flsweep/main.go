package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	outputDir  string

	cfg     *config.Config
	logger  hclog.Logger
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:           "flsweep",
	Short:         "Run Flower experiment sweeps and plot their results",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}
		return setupLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			if err := logFile.Close(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for logs and result files")
}

func setupLogger() error {
	output := io.Writer(os.Stdout)
	if cfg.Log.File != "" {
		if err := common.EnsureDir(filepath.Dir(cfg.Log.File)); err != nil {
			return err
		}
		var err error
		logFile, err = os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		output = io.MultiWriter(os.Stdout, logFile)
	}

	logger = hclog.New(&hclog.LoggerOptions{
		Name:   "fl-sweep",
		Level:  hclog.LevelFromString(cfg.Log.Level),
		Output: output,
	})
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

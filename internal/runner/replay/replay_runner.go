package replayrunner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
)

const TimeoutSuffix = ".timeout"
const ExitCodeSuffix = ".exit"
const StderrSuffix = ".stderr"

// ReplayRunner answers invocations with logs recorded by earlier sweeps instead of
// starting the FL CLI. For a run logged as NAME it returns the file NAME as stdout,
// NAME.stderr as stderr and NAME.exit as exit code; NAME.timeout marks a timeout.
type ReplayRunner struct {
	files       map[string]string
	invocations []runner.Invocation
}

func NewReplayRunner(folderPath string) (*ReplayRunner, error) {
	files, err := common.ReadFolderToFileMap(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay folder: %w", err)
	}
	return NewReplayRunnerFromFiles(files), nil
}

func NewReplayRunnerFromFiles(files map[string]string) *ReplayRunner {
	return &ReplayRunner{files: files}
}

func (r *ReplayRunner) Run(ctx context.Context, inv runner.Invocation) (*runner.Execution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.invocations = append(r.invocations, inv)

	if _, found := r.files[inv.LogName+TimeoutSuffix]; found {
		return &runner.Execution{TimedOut: true, ExitCode: -1}, nil
	}

	stdout, found := r.files[inv.LogName]
	if !found {
		return &runner.Execution{
			ExitCode: 1,
			Stderr:   fmt.Sprintf("no recorded log for %s", inv.LogName),
		}, nil
	}

	execution := &runner.Execution{
		Stdout: stdout,
		Stderr: r.files[inv.LogName+StderrSuffix],
	}
	if exit, found := r.files[inv.LogName+ExitCodeSuffix]; found {
		code, err := strconv.Atoi(strings.TrimSpace(exit))
		if err != nil {
			return nil, fmt.Errorf("bad exit code file for %s: %w", inv.LogName, err)
		}
		execution.ExitCode = code
	}

	return execution, nil
}

// Invocations returns what was asked of the runner so far.
func (r *ReplayRunner) Invocations() []runner.Invocation {
	return r.invocations
}

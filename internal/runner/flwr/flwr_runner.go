package flwrrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	"github.com/hashicorp/go-hclog"
)

// waitDelay bounds how long Wait keeps reading pipes after the process was killed;
// simulation backends may leave children holding stdout.
const waitDelay = 10 * time.Second

type FlwrRunner struct {
	logger    hclog.Logger
	waitDelay time.Duration
}

func NewFlwrRunner(logger hclog.Logger) *FlwrRunner {
	return &FlwrRunner{
		logger:    logger.Named("flwr"),
		waitDelay: waitDelay,
	}
}

func (r *FlwrRunner) Run(ctx context.Context, inv runner.Invocation) (*runner.Execution, error) {
	execCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(execCtx, inv.Executable, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Executing", "command", inv.CommandString(), "dir", inv.Dir, "timeout", inv.Timeout)

	start := time.Now()
	err := cmd.Run()
	execution := &runner.Execution{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return execution, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		execution.TimedOut = true
		execution.ExitCode = -1
		r.logger.Warn(fmt.Sprintf("Command killed after %s", inv.Timeout))
		return execution, nil
	}

	// the process itself finished; a leftover child kept the pipes open
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		r.logger.Warn(fmt.Sprintf("Output pipes still open %s after exit, keeping what was captured", r.waitDelay))
		return execution, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execution.ExitCode = exitErr.ExitCode()
		r.logger.Debug("Command exited non-zero", "exit_code", execution.ExitCode)
		return execution, nil
	}

	return nil, fmt.Errorf("failed to run %s: %w", inv.Executable, err)
}

package flwrrunner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFlwr(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "flwr")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestFlwrRunner_CapturesBothStreams(t *testing.T) {
	exe := fakeFlwr(t, `echo "args: $@"; echo "warn" 1>&2`)
	r := NewFlwrRunner(hclog.NewNullLogger())

	execution, err := r.Run(context.Background(), runner.Invocation{
		Executable: exe,
		Args:       []string{"run", ".", "--run-config", `{"num-server-rounds": 3}`},
		Timeout:    10 * time.Second,
	})
	require.NoError(t, err)

	assert.False(t, execution.TimedOut)
	assert.Equal(t, 0, execution.ExitCode)
	assert.Equal(t, "args: run . --run-config {\"num-server-rounds\": 3}\n", execution.Stdout)
	assert.Equal(t, "warn\n", execution.Stderr)
	assert.Equal(t, execution.Stdout+"\n"+execution.Stderr, execution.CombinedOutput())
}

func TestFlwrRunner_NonZeroExit(t *testing.T) {
	exe := fakeFlwr(t, `echo "boom" 1>&2; exit 3`)
	r := NewFlwrRunner(hclog.NewNullLogger())

	execution, err := r.Run(context.Background(), runner.Invocation{Executable: exe})
	require.NoError(t, err)

	assert.Equal(t, 3, execution.ExitCode)
	assert.False(t, execution.TimedOut)
	assert.Equal(t, "boom\n", execution.Stderr)
}

func TestFlwrRunner_ExitedWithChildHoldingOutput(t *testing.T) {
	exe := fakeFlwr(t, `echo "{'cen_accuracy': [(1, 0.5)]}"; sleep 5 &`)
	r := NewFlwrRunner(hclog.NewNullLogger())
	r.waitDelay = 200 * time.Millisecond

	execution, err := r.Run(context.Background(), runner.Invocation{Executable: exe, Timeout: 10 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, 0, execution.ExitCode)
	assert.False(t, execution.TimedOut)
	assert.Equal(t, "{'cen_accuracy': [(1, 0.5)]}\n", execution.Stdout)
}

func TestFlwrRunner_Timeout(t *testing.T) {
	exe := fakeFlwr(t, `exec sleep 5`)
	r := NewFlwrRunner(hclog.NewNullLogger())

	execution, err := r.Run(context.Background(), runner.Invocation{
		Executable: exe,
		Timeout:    100 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.True(t, execution.TimedOut)
	assert.Less(t, execution.Duration, 5*time.Second)
}

func TestFlwrRunner_ParentCanceled(t *testing.T) {
	exe := fakeFlwr(t, `exec sleep 5`)
	r := NewFlwrRunner(hclog.NewNullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := r.Run(ctx, runner.Invocation{Executable: exe, Timeout: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlwrRunner_MissingExecutable(t *testing.T) {
	r := NewFlwrRunner(hclog.NewNullLogger())

	_, err := r.Run(context.Background(), runner.Invocation{
		Executable: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, err)
}

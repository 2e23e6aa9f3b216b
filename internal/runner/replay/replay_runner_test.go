package replayrunner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayRunner_FromFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_2.log"), []byte("round 1: 0.5"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_5.log"), []byte("partial"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_5.log.exit"), []byte("2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_5.log.stderr"), []byte("Traceback"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run_9.log.timeout"), nil, 0644))

	r, err := NewReplayRunner(dir)
	require.NoError(t, err)

	ok, err := r.Run(context.Background(), runner.Invocation{LogName: "run_2.log"})
	require.NoError(t, err)
	assert.Equal(t, 0, ok.ExitCode)
	assert.Equal(t, "round 1: 0.5", ok.Stdout)

	failed, err := r.Run(context.Background(), runner.Invocation{LogName: "run_5.log"})
	require.NoError(t, err)
	assert.Equal(t, 2, failed.ExitCode)
	assert.Equal(t, "Traceback", failed.Stderr)

	timedOut, err := r.Run(context.Background(), runner.Invocation{LogName: "run_9.log"})
	require.NoError(t, err)
	assert.True(t, timedOut.TimedOut)

	missing, err := r.Run(context.Background(), runner.Invocation{LogName: "run_20.log"})
	require.NoError(t, err)
	assert.Equal(t, 1, missing.ExitCode)
	assert.Contains(t, missing.Stderr, "no recorded log")

	assert.Len(t, r.Invocations(), 4)
}

func TestReplayRunner_Canceled(t *testing.T) {
	r := NewReplayRunnerFromFiles(map[string]string{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, runner.Invocation{LogName: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/events"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	replayrunner "github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner/replay"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordedLog = `History (loss, distributed):
	round 1: 1.9
	round 2: 1.4
History (metrics, centralized):
{'cen_accuracy': [(0, 0.1), (1, 0.4), (2, 0.55)]}`

// blockingRunner holds every invocation until its context is canceled.
type blockingRunner struct {
	started chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, inv runner.Invocation) (*runner.Execution, error) {
	r.started <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Flwr.AppDir = t.TempDir()
	cfg.Sweeps = map[string]config.SweepConfig{
		"small": {
			ClientCounts:    []int{2, 5},
			NumServerRounds: 2,
			ErrorLimit:      100,
			TrimError:       true,
			SummaryFile:     "summary.csv",
			RoundsFile:      "rounds.csv",
			LogFile:         "run_{{.NumClients}}.log",
		},
	}
	return &cfg
}

func serve(t *testing.T, handler *Handler, method string, path string) *httptest.ResponseRecorder {
	rw := httptest.NewRecorder()
	NewRouter(handler).ServeHTTP(rw, httptest.NewRequest(method, path, nil))
	return rw
}

func decodeRunId(t *testing.T, rw *httptest.ResponseRecorder) string {
	var runId string
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&runId))
	return runId
}

func waitForState(t *testing.T, handler *Handler, runId string, state string) SweepStatus {
	require.Eventually(t, func() bool {
		status, found := handler.Status(runId)
		return found && status.State == state
	}, 5*time.Second, 10*time.Millisecond)
	status, _ := handler.Status(runId)
	return status
}

func TestHandler_StartSweepRunsToCompletion(t *testing.T) {
	replay := replayrunner.NewReplayRunnerFromFiles(map[string]string{"run_2.log": recordedLog})
	handler := NewHandler(hclog.NewNullLogger(), events.NewEventBus(), replay, testConfig(t))
	defer handler.Close()

	rw := serve(t, handler, http.MethodPost, "/sweeps/small/start")
	require.Equal(t, http.StatusOK, rw.Code)
	runId := decodeRunId(t, rw)
	require.NotEmpty(t, runId)

	status := waitForState(t, handler, runId, StateFinished)
	assert.Equal(t, "small", status.Sweep)
	assert.Equal(t, 2, status.Total)
	assert.Equal(t, 2, status.Completed)
	assert.Equal(t, 1, status.Failed)
	assert.FileExists(t, status.SummaryFile)
	assert.NotNil(t, status.Finished)

	rw = serve(t, handler, http.MethodGet, "/sweeps/"+runId)
	require.Equal(t, http.StatusOK, rw.Code)
	var fetched SweepStatus
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&fetched))
	assert.Equal(t, runId, fetched.RunId)

	rw = serve(t, handler, http.MethodGet, "/sweeps")
	require.Equal(t, http.StatusOK, rw.Code)
	var all []SweepStatus
	require.NoError(t, json.NewDecoder(rw.Body).Decode(&all))
	assert.Len(t, all, 1)
}

func TestHandler_UnknownSweep(t *testing.T) {
	handler := NewHandler(hclog.NewNullLogger(), events.NewEventBus(), replayrunner.NewReplayRunnerFromFiles(nil), testConfig(t))
	defer handler.Close()

	rw := serve(t, handler, http.MethodPost, "/sweeps/nope/start")
	assert.Equal(t, http.StatusBadRequest, rw.Code)

	rw = serve(t, handler, http.MethodGet, "/sweeps/missing-id")
	assert.Equal(t, http.StatusNotFound, rw.Code)

	rw = serve(t, handler, http.MethodPost, "/sweeps/stop/missing-id")
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestHandler_OneSweepAtATimeAndStop(t *testing.T) {
	blocking := &blockingRunner{started: make(chan struct{}, 1)}
	handler := NewHandler(hclog.NewNullLogger(), events.NewEventBus(), blocking, testConfig(t))
	defer handler.Close()

	rw := serve(t, handler, http.MethodPost, "/sweeps/small/start")
	require.Equal(t, http.StatusOK, rw.Code)
	runId := decodeRunId(t, rw)
	<-blocking.started

	rw = serve(t, handler, http.MethodPost, "/sweeps/small/start")
	assert.Equal(t, http.StatusConflict, rw.Code)

	rw = serve(t, handler, http.MethodPost, "/sweeps/stop/"+runId)
	require.Equal(t, http.StatusOK, rw.Code)

	status := waitForState(t, handler, runId, StateCanceled)
	assert.Equal(t, 1, status.Completed)
	assert.Equal(t, 1, status.Failed)

	rw = serve(t, handler, http.MethodPost, "/sweeps/stop/"+runId)
	assert.Equal(t, http.StatusConflict, rw.Code)

	// the slot frees up once the canceled sweep has written its files
	require.Eventually(t, func() bool {
		_, err := handler.StartSweep("small")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	<-blocking.started
	handler.StopAll(context.Background())
}

func TestNewScheduler(t *testing.T) {
	cfg := testConfig(t)
	handler := NewHandler(hclog.NewNullLogger(), events.NewEventBus(), replayrunner.NewReplayRunnerFromFiles(nil), cfg)
	defer handler.Close()

	cfg.Server.Schedules = []config.ScheduleConfig{{Sweep: "small", Spec: "@every 1h"}}
	scheduler, err := NewScheduler(hclog.NewNullLogger(), handler, cfg)
	require.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 1)

	cfg.Server.Schedules = []config.ScheduleConfig{{Sweep: "small", Spec: "0 3 * * *"}, {Sweep: "small", Spec: "30 0 3 * * *"}}
	scheduler, err = NewScheduler(hclog.NewNullLogger(), handler, cfg)
	require.NoError(t, err)
	assert.Len(t, scheduler.Entries(), 2)

	cfg.Server.Schedules = []config.ScheduleConfig{{Sweep: "small", Spec: "not a spec"}}
	_, err = NewScheduler(hclog.NewNullLogger(), handler, cfg)
	assert.Error(t, err)

	cfg.Server.Schedules = []config.ScheduleConfig{{Sweep: "nope", Spec: "@daily"}}
	_, err = NewScheduler(hclog.NewNullLogger(), handler, cfg)
	assert.Error(t, err)
}

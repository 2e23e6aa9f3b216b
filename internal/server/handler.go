package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/common"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/config"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/events"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/runner"
	"github.com/AIoTwin-Adaptive-FL-Orch/fl-sweep/internal/sweep"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
)

var ErrUnknownSweep = errors.New("unknown sweep")
var ErrSweepActive = errors.New("a sweep is already running")
var ErrUnknownRun = errors.New("no run with the given ID")
var ErrRunNotActive = errors.New("run is not active")

type sweepRun struct {
	status SweepStatus
	cancel context.CancelFunc
	done   chan struct{}
}

// Handler starts sweeps in the background, one at a time, and tracks their
// progress through the event bus.
type Handler struct {
	logger   hclog.Logger
	eventBus *events.EventBus
	runner   runner.IRunner
	cfg      *config.Config

	mu     sync.Mutex
	runs   map[string]*sweepRun
	active string

	runFinishedChan   chan events.Event
	sweepFinishedChan chan events.Event
}

func NewHandler(logger hclog.Logger, eventBus *events.EventBus, runner runner.IRunner, cfg *config.Config) *Handler {
	handler := &Handler{
		logger:            logger,
		eventBus:          eventBus,
		runner:            runner,
		cfg:               cfg,
		runs:              map[string]*sweepRun{},
		runFinishedChan:   make(chan events.Event),
		sweepFinishedChan: make(chan events.Event),
	}

	eventBus.Subscribe(common.RUN_FINISHED_EVENT_TYPE, handler.runFinishedChan)
	go handler.runFinishedHandler(handler.runFinishedChan)

	eventBus.Subscribe(common.SWEEP_FINISHED_EVENT_TYPE, handler.sweepFinishedChan)
	go handler.sweepFinishedHandler(handler.sweepFinishedChan)

	return handler
}

// StartSweep launches the named sweep and returns its run id.
func (handler *Handler) StartSweep(name string) (string, error) {
	sweepConfig, err := handler.cfg.Sweep(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSweep, err.Error())
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()

	if handler.active != "" {
		return "", ErrSweepActive
	}

	sweeper, err := sweep.NewSweeper(handler.runner, handler.eventBus, handler.logger, handler.cfg.Flwr, name,
		sweepConfig, handler.cfg.OutputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSweep, err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &sweepRun{
		status: SweepStatus{
			RunId:   sweeper.Id(),
			Sweep:   name,
			State:   StateRunning,
			Started: time.Now(),
			Total:   len(sweep.Grid(sweepConfig)),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	handler.runs[sweeper.Id()] = run
	handler.active = sweeper.Id()

	handler.logger.Info(fmt.Sprintf("Starting sweep %s with run ID: %s", name, sweeper.Id()))

	go func() {
		defer close(run.done)
		defer cancel()

		_, err := sweeper.Run(ctx)

		handler.mu.Lock()
		defer handler.mu.Unlock()
		if err != nil {
			handler.logger.Error(fmt.Sprintf("Sweep %s failed: %s", name, err.Error()))
			run.status.State = StateFailed
			run.status.Error = err.Error()
			run.status.Finished = timePtr(time.Now())
		}
		handler.active = ""
	}()

	return sweeper.Id(), nil
}

// StopSweep cancels a running sweep; the run in progress is recorded as failed.
func (handler *Handler) StopSweep(runId string) error {
	handler.mu.Lock()
	defer handler.mu.Unlock()

	run, found := handler.runs[runId]
	if !found {
		return ErrUnknownRun
	}
	if run.status.State != StateRunning {
		return ErrRunNotActive
	}

	handler.logger.Info(fmt.Sprintf("Stopping sweep with run ID: %s", runId))
	run.cancel()
	return nil
}

// StopAll cancels the active sweep and waits for it to write its results.
func (handler *Handler) StopAll(ctx context.Context) {
	handler.mu.Lock()
	run, found := handler.runs[handler.active]
	handler.mu.Unlock()
	if !found {
		return
	}

	run.cancel()
	select {
	case <-run.done:
	case <-ctx.Done():
		handler.logger.Warn("Sweep did not stop in time")
	}
}

func (handler *Handler) Status(runId string) (SweepStatus, bool) {
	handler.mu.Lock()
	defer handler.mu.Unlock()

	run, found := handler.runs[runId]
	if !found {
		return SweepStatus{}, false
	}
	return run.status, true
}

func (handler *Handler) Statuses() []SweepStatus {
	handler.mu.Lock()
	defer handler.mu.Unlock()

	statuses := make([]SweepStatus, 0, len(handler.runs))
	for _, run := range handler.runs {
		statuses = append(statuses, run.status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Started.Before(statuses[j].Started)
	})
	return statuses
}

// Close detaches the handler from the event bus.
func (handler *Handler) Close() {
	handler.eventBus.Unsubscribe(common.RUN_FINISHED_EVENT_TYPE, handler.runFinishedChan)
	handler.eventBus.Unsubscribe(common.SWEEP_FINISHED_EVENT_TYPE, handler.sweepFinishedChan)
}

func (handler *Handler) runFinishedHandler(eventChan <-chan events.Event) {
	for event := range eventChan {
		runFinishedEvent, ok := event.Data.(events.RunFinishedEvent)
		if !ok {
			handler.logger.Info("Invalid event data")
			continue
		}

		handler.mu.Lock()
		if run, found := handler.runs[runFinishedEvent.SweepId]; found {
			run.status.Completed = runFinishedEvent.Index + 1
			run.status.Total = runFinishedEvent.Total
			run.status.LastRun = fmt.Sprintf("%s: %s", runFinishedEvent.Summary.Combination, runFinishedEvent.Summary.Status)
			switch runFinishedEvent.Summary.Status {
			case common.STATUS_FAILED:
				run.status.Failed++
			case common.STATUS_TIMEOUT:
				run.status.TimedOut++
			}
		}
		handler.mu.Unlock()
	}
}

func (handler *Handler) sweepFinishedHandler(eventChan <-chan events.Event) {
	for event := range eventChan {
		sweepFinishedEvent, ok := event.Data.(events.SweepFinishedEvent)
		if !ok {
			handler.logger.Info("Invalid event data")
			continue
		}

		handler.logger.Info(fmt.Sprintf("Sweep %s finished: %d runs, %d failed, %d timed out",
			sweepFinishedEvent.SweepName, sweepFinishedEvent.Runs, sweepFinishedEvent.Failed, sweepFinishedEvent.TimedOut))

		handler.mu.Lock()
		if run, found := handler.runs[sweepFinishedEvent.SweepId]; found {
			run.status.Finished = timePtr(event.Timestamp)
			run.status.Failed = sweepFinishedEvent.Failed
			run.status.TimedOut = sweepFinishedEvent.TimedOut
			run.status.SummaryFile = sweepFinishedEvent.SummaryFile
			run.status.RoundsFile = sweepFinishedEvent.RoundsFile
			run.status.ClassesFile = sweepFinishedEvent.ClassesFile
			switch {
			case sweepFinishedEvent.ErrorMessage != "":
				run.status.State = StateFailed
				run.status.Error = sweepFinishedEvent.ErrorMessage
			case sweepFinishedEvent.Canceled:
				run.status.State = StateCanceled
			default:
				run.status.State = StateFinished
			}
		}
		handler.mu.Unlock()
	}
}

func (handler *Handler) StartSweepRequest(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	name := getURLParameter(r, "name")
	runId, err := handler.StartSweep(name)
	if err != nil {
		handler.logger.Error("error starting sweep", "error", err)
		switch {
		case errors.Is(err, ErrSweepActive):
			rw.WriteHeader(http.StatusConflict)
		case errors.Is(err, ErrUnknownSweep):
			rw.WriteHeader(http.StatusBadRequest)
		default:
			rw.WriteHeader(http.StatusInternalServerError)
		}
		toJSON(ErrorResponse{Error: err.Error()}, rw)
		return
	}

	rw.WriteHeader(http.StatusOK)
	toJSON(runId, rw)
}

func (handler *Handler) StopSweepRequest(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	runId := getURLParameter(r, "runId")
	err := handler.StopSweep(runId)
	switch {
	case errors.Is(err, ErrUnknownRun):
		rw.WriteHeader(http.StatusBadRequest)
		toJSON(ErrorResponse{Error: err.Error()}, rw)
	case errors.Is(err, ErrRunNotActive):
		rw.WriteHeader(http.StatusConflict)
		toJSON(ErrorResponse{Error: err.Error()}, rw)
	default:
		rw.WriteHeader(http.StatusOK)
		toJSON(runId, rw)
	}
}

func (handler *Handler) GetSweep(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")

	status, found := handler.Status(getURLParameter(r, "runId"))
	if !found {
		rw.WriteHeader(http.StatusNotFound)
		toJSON(ErrorResponse{Error: ErrUnknownRun.Error()}, rw)
		return
	}

	rw.WriteHeader(http.StatusOK)
	toJSON(status, rw)
}

func (handler *Handler) ListSweeps(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	toJSON(handler.Statuses(), rw)
}

// NewRouter maps the sweep control routes onto the handler.
func NewRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/sweeps/stop/{runId}", handler.StopSweepRequest).Methods(http.MethodPost)
	router.HandleFunc("/sweeps/{name}/start", handler.StartSweepRequest).Methods(http.MethodPost)
	router.HandleFunc("/sweeps/{runId}", handler.GetSweep).Methods(http.MethodGet)
	router.HandleFunc("/sweeps", handler.ListSweeps).Methods(http.MethodGet)
	return router
}

func getURLParameter(r *http.Request, parameter string) string {
	vars := mux.Vars(r)
	id := vars[parameter]
	return id
}

func timePtr(t time.Time) *time.Time {
	return &t
}

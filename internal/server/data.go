package server

import (
	"encoding/json"
	"io"
	"time"
)

func toJSON(i interface{}, w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(i)
}

const (
	StateRunning  = "running"
	StateFinished = "finished"
	StateCanceled = "canceled"
	StateFailed   = "failed"
)

type SweepStatus struct {
	RunId       string     `json:"runId"`
	Sweep       string     `json:"sweep"`
	State       string     `json:"state"`
	Started     time.Time  `json:"started"`
	Finished    *time.Time `json:"finished,omitempty"`
	Completed   int        `json:"completed"`
	Total       int        `json:"total"`
	Failed      int        `json:"failed"`
	TimedOut    int        `json:"timedOut"`
	LastRun     string     `json:"lastRun,omitempty"`
	SummaryFile string     `json:"summaryFile,omitempty"`
	RoundsFile  string     `json:"roundsFile,omitempty"`
	ClassesFile string     `json:"classesFile,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

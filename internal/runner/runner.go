package runner

import (
	"context"
	"strings"
	"time"
)

// Invocation is a single call of the FL CLI.
type Invocation struct {
	Executable string
	Args       []string
	Dir        string
	Timeout    time.Duration
	// LogName identifies the run; replaying runners use it to find recorded output.
	LogName string
}

func (inv Invocation) CommandString() string {
	parts := append([]string{inv.Executable}, inv.Args...)
	for i, part := range parts {
		if strings.ContainsAny(part, " \"'{}") {
			parts[i] = "'" + part + "'"
		}
	}
	return strings.Join(parts, " ")
}

type Execution struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// CombinedOutput joins both streams the way the log files store them.
func (e *Execution) CombinedOutput() string {
	return e.Stdout + "\n" + e.Stderr
}

type IRunner interface {
	// Run blocks until the invocation exits or its timeout elapses. A timeout is
	// reported through Execution.TimedOut, a non-zero exit through ExitCode; the
	// error is reserved for runs that could not be started or were canceled.
	Run(ctx context.Context, inv Invocation) (*Execution, error)
}

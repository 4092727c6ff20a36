package jobs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("jobs: job not found")
	ErrNoSuchJob      = errors.New("No such job")
	ErrNoSuchProcess  = errors.New("No such process")
	ErrForegroundBusy = errors.New("jobs: another job is in the foreground")
	ErrInvalidState   = errors.New("jobs: invalid job state")
	ErrDuplicatePid   = errors.New("jobs: pid already tracked")
	ErrBadRef         = errors.New("argument must be a PID or %jobid")
)

type State int

const (
	Foreground State = iota + 1
	Background
	Stopped
)

func (s State) valid() bool {
	return s >= Foreground && s <= Stopped
}

func (s State) String() string {
	switch s {
	case Foreground:
		return "Foreground"
	case Background:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Undefined"
	}
}

// Job is the bookkeeping record for one launched pipeline. Pid is the first
// process of the pipeline and doubles as the process group id.
type Job struct {
	Pid         int
	Pgid        int
	Jid         int
	State       State
	CommandLine string
	Pids        []int
}

func (j Job) String() string {
	if !j.State.valid() {
		return fmt.Sprintf("[%d] (%d) listjobs: Internal error: job[%d].state=%d %s", j.Jid, j.Pid, j.Jid, int(j.State), j.CommandLine)
	}
	return fmt.Sprintf("[%d] (%d) %s %s", j.Jid, j.Pid, j.State, j.CommandLine)
}

// Status is the exit status of a finished pipeline. Exited is false when the
// pipeline was killed or stopped, or when no status has been recorded.
type Status struct {
	Code   int
	Exited bool
}

func (s Status) Success() bool {
	return s.Exited && s.Code == 0
}

func (s Status) String() string {
	if !s.Exited {
		return "none"
	}
	return fmt.Sprintf("%d", s.Code)
}

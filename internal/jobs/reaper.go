package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"

	"golang.org/x/sys/unix"
)

// Reaper reacts to interrupt, terminal-stop and child-status signals and
// reconciles the job table with the state of the shell's children.
type Reaper struct {
	table   *Table
	out     io.Writer
	logger  *slog.Logger
	signals chan os.Signal

	// OnIdleInterrupt runs when an interrupt arrives with no foreground job.
	OnIdleInterrupt func()
}

func NewReaper(table *Table, out io.Writer, logger *slog.Logger) *Reaper {
	return &Reaper{
		table:   table,
		out:     out,
		logger:  logger,
		signals: make(chan os.Signal, 32),
	}
}

// Start subscribes to signals and handles them on a dedicated goroutine
// until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	signal.Notify(r.signals, unix.SIGINT, unix.SIGTSTP, unix.SIGCHLD)
	go r.run(ctx)
}

func (r *Reaper) run(ctx context.Context) {
	defer signal.Stop(r.signals)

	// Children may have changed state before the subscription existed.
	r.Handle(unix.SIGCHLD)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-r.signals:
			r.Handle(sig)
		}
	}
}

// Handle processes one signal. A failure aborts only this signal's handling.
func (r *Reaper) Handle(sig os.Signal) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("reaper panicked",
				slog.String("signal", sig.String()),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	switch sig {
	case unix.SIGINT:
		r.logger.Debug("sigint_handler")
		r.forward(unix.SIGINT, true)
	case unix.SIGTSTP:
		r.logger.Debug("sigtstp_handler")
		r.forward(unix.SIGTSTP, false)
	case unix.SIGCHLD:
		r.logger.Debug("sigchld_handler")
		r.drain()
	default:
		r.logger.Warn("unexpected signal", slog.String("signal", sig.String()))
	}
}

// forward sends sig to every foreground process group. Interrupted jobs are
// dropped right away; stopped ones change state when their status arrives.
func (r *Reaper) forward(sig unix.Signal, drop bool) {
	if r.deliver(sig, drop) == 0 && sig == unix.SIGINT && r.OnIdleInterrupt != nil {
		r.OnIdleInterrupt()
	}
}

// deliver signals the foreground groups under the table lock and returns how
// many there were.
func (r *Reaper) deliver(sig unix.Signal, drop bool) int {
	t := r.table
	t.mu.Lock()
	defer t.mu.Unlock()

	var targets []*entry
	for _, e := range t.jobs {
		if e.State == Foreground {
			targets = append(targets, e)
		}
	}

	for _, e := range targets {
		if err := unix.Kill(-e.Pgid, sig); err != nil {
			r.logger.Error("signal delivery failed",
				slog.String("signal", sig.String()),
				slog.Int("pgid", e.Pgid),
				slog.String("error", err.Error()),
			)
			break
		}
		r.logger.Debug("forwarded signal", slog.String("signal", sig.String()), slog.Int("pgid", e.Pgid))
		if drop {
			t.removeLocked(e)
		}
	}
	return len(targets)
}

// drain collects every pending child status change without blocking.
func (r *Reaper) drain() {
	for _, notice := range r.collect() {
		fmt.Fprintln(r.out, notice)
	}
}

func (r *Reaper) collect() []string {
	t := r.table
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.changed.Broadcast()

	var notices []string
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return notices
		}

		r.logger.Debug("child status changed", slog.Int("pid", pid), slog.Int("status", int(ws)))
		if notice := t.reapLocked(pid, ws); notice != "" {
			notices = append(notices, notice)
		}
	}
}

// reapLocked applies one wait status to the table and returns the notice to
// print, if any.
func (t *Table) reapLocked(pid int, ws unix.WaitStatus) string {
	e := t.ownerLocked(pid)
	if e == nil {
		return ""
	}

	switch {
	case ws.Exited():
		delete(e.live, pid)
		if pid == e.last() {
			e.status = Status{Code: ws.ExitStatus(), Exited: true}
			t.last = e.status
		}
		if len(e.live) == 0 {
			t.removeLocked(e)
		}
	case ws.Signaled():
		var notice string
		delete(e.live, pid)
		if pid == e.last() || ws.Signal() != unix.SIGPIPE {
			if !e.notified {
				e.notified = true
				notice = fmt.Sprintf("Job [%d] (%d) terminated by signal %d", e.Jid, e.Pid, int(ws.Signal()))
			}
			e.status = Status{}
			t.last = Status{}
		}
		if len(e.live) == 0 {
			t.removeLocked(e)
		}
		return notice
	case ws.Stopped():
		if e.State == Stopped {
			return ""
		}
		e.State = Stopped
		return fmt.Sprintf("Job [%d] (%d) stopped by signal %d", e.Jid, e.Pid, int(ws.StopSignal()))
	}

	return ""
}

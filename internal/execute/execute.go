package execute

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"tsh/internal/jobs"
	"tsh/internal/parser"
)

var ErrCommandNotFound = errors.New("command not found")

const (
	StatusNotFound = 127
	StatusFailure  = 1
)

var errorColor = color.New(color.FgRed)

// LaunchError reports a stage that could not be started. Path is set when a
// redirection file was the problem.
type LaunchError struct {
	Program string
	Path    string
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Launcher turns compiled pipelines into process groups tracked by Jobs.
type Launcher struct {
	Jobs     *jobs.Table
	Terminal *jobs.Terminal
	Stdin    *os.File
	Stdout   *os.File
	Stderr   *os.File
	// Errors receives user-facing launch errors.
	Errors  io.Writer
	Logger  *slog.Logger
	Environ func() []string
}

func (l *Launcher) report(err error) {
	errorColor.Fprintln(l.Errors, err)
}

// Run launches every group of line in order, honouring && and || against
// the exit status of the group before. Only the last group of a background
// line is put in the background.
func (l *Launcher) Run(line *parser.Line) jobs.Status {
	prog := line.Program
	env := mergeEnv(l.environ(), prog.Env)
	status := l.Jobs.LastStatus()

	for i, group := range prog.Groups {
		if !satisfied(group.Cond, status) {
			l.Logger.Debug("skipping conditional group",
				slog.Int("group", i),
				slog.String("cond", group.Cond.String()),
				slog.String("status", status.String()),
			)
			continue
		}

		state := jobs.Foreground
		if line.Background && i == len(prog.Groups)-1 {
			state = jobs.Background
		}

		job, err := l.Launch(group, env, line.Text, state)
		if err != nil {
			l.report(err)
			if rerr := l.Terminal.Reclaim(); rerr != nil {
				l.Logger.Warn("reclaiming terminal failed", slog.String("error", rerr.Error()))
			}
			status = failureStatus(err)
			l.Jobs.RecordStatus(status)
			continue
		}

		l.Logger.Debug("launched job",
			slog.Int("jid", job.Jid),
			slog.Int("pgid", job.Pgid),
			slog.Any("pids", job.Pids),
			slog.String("state", job.State.String()),
		)

		if state == jobs.Background {
			continue
		}
		status = l.wait(job)
	}

	return status
}

// Launch spawns one group as a single job in the given state. It does not
// wait for a foreground job.
func (l *Launcher) Launch(group parser.Group, env []string, cmdline string, state jobs.State) (jobs.Job, error) {
	files, err := openRedirections(group)
	if err != nil {
		return jobs.Job{}, err
	}
	defer files.Close()

	return l.Jobs.Launch(state, cmdline, func() ([]int, error) {
		return l.spawn(group, env, files, state == jobs.Foreground)
	})
}

// spawn forks every stage into one process group led by the first stage.
// Stages already running when a later one fails are left alone.
func (l *Launcher) spawn(group parser.Group, env []string, files *redirections, fg bool) ([]int, error) {
	var pids []int
	var prevRead *os.File
	defer func() {
		if prevRead != nil {
			_ = prevRead.Close()
		}
	}()

	for i, st := range group.Stages {
		binary, err := exec.LookPath(st.Program)
		if err != nil {
			l.orphaned(pids)
			return nil, &LaunchError{Program: st.Program, Err: ErrCommandNotFound}
		}

		stdin := l.Stdin
		switch {
		case st.Stdin.Kind == parser.File:
			stdin = files.in[i]
		case st.Stdin.Kind == parser.PipeFrom && prevRead != nil:
			stdin = prevRead
		}

		var nextRead, write *os.File
		if i+1 < len(group.Stages) && (st.Stdout.Kind == parser.PipeTo || group.Stages[i+1].Stdin.Kind == parser.PipeFrom) {
			nextRead, write, err = os.Pipe()
			if err != nil {
				l.orphaned(pids)
				return nil, &LaunchError{Program: st.Program, Err: err}
			}
			// The next stage reads a file instead; writers into this pipe
			// get EPIPE.
			if group.Stages[i+1].Stdin.Kind != parser.PipeFrom {
				_ = nextRead.Close()
				nextRead = nil
			}
		}

		stdout := l.Stdout
		switch {
		case st.Stdout.Kind == parser.File:
			stdout = files.out[i]
		case st.Stdout.Kind == parser.PipeTo && write != nil:
			stdout = write
		}

		pgid := 0
		if len(pids) > 0 {
			pgid = pids[0]
		}
		attr := &syscall.ProcAttr{
			Env:   env,
			Files: []uintptr{stdin.Fd(), stdout.Fd(), l.Stderr.Fd()},
			Sys: &syscall.SysProcAttr{
				Setpgid: true,
				Pgid:    pgid,
			},
		}
		if fg && i == 0 && l.Terminal != nil {
			attr.Sys.Foreground = true
			attr.Sys.Ctty = l.Terminal.Fd()
		}

		pid, err := syscall.ForkExec(binary, st.Argv, attr)

		if write != nil {
			_ = write.Close()
		}
		if prevRead != nil {
			_ = prevRead.Close()
		}
		prevRead = nextRead

		if err != nil {
			l.orphaned(pids)
			return nil, &LaunchError{Program: st.Program, Err: err}
		}
		pids = append(pids, pid)
	}

	return pids, nil
}

func (l *Launcher) orphaned(pids []int) {
	if len(pids) > 0 {
		l.Logger.Debug("leaving partially launched pipeline running", slog.Any("pids", pids))
	}
}

// Resume continues a stopped or background job. A job moved to the
// foreground gets the terminal and is waited for.
func (l *Launcher) Resume(ref jobs.Ref, state jobs.State) (jobs.Job, jobs.Status, error) {
	job, err := l.Jobs.Lookup(ref)
	if err != nil {
		return jobs.Job{}, jobs.Status{}, err
	}

	if state == jobs.Foreground {
		if err := l.Terminal.Give(job.Pgid); err != nil {
			l.Logger.Warn("handing terminal to job failed", slog.Int("pgid", job.Pgid), slog.String("error", err.Error()))
		}
	}

	job, err = l.Jobs.Continue(ref, state)
	if err != nil {
		if state == jobs.Foreground {
			_ = l.Terminal.Reclaim()
		}
		return jobs.Job{}, jobs.Status{}, err
	}

	if state != jobs.Foreground {
		return job, jobs.Status{}, nil
	}
	return job, l.wait(job), nil
}

func (l *Launcher) wait(job jobs.Job) jobs.Status {
	status := l.Jobs.WaitForeground(job.Pid)
	if err := l.Terminal.Reclaim(); err != nil {
		l.Logger.Warn("reclaiming terminal failed", slog.String("error", err.Error()))
	}
	l.Logger.Debug("foreground wait returned", slog.Int("pid", job.Pid), slog.String("status", status.String()))
	return status
}

func (l *Launcher) environ() []string {
	if l.Environ == nil {
		return os.Environ()
	}
	return l.Environ()
}

func satisfied(cond parser.Cond, status jobs.Status) bool {
	switch cond {
	case parser.IfSuccess:
		return status.Success()
	case parser.IfFailure:
		return !status.Success()
	default:
		return true
	}
}

func failureStatus(err error) jobs.Status {
	if errors.Is(err, ErrCommandNotFound) {
		return jobs.Status{Code: StatusNotFound, Exited: true}
	}
	return jobs.Status{Code: StatusFailure, Exited: true}
}

// mergeEnv applies inline assignments over base, replacing existing keys.
func mergeEnv(base []string, assigns []parser.Assignment) []string {
	if len(assigns) == 0 {
		return base
	}

	override := make(map[string]bool, len(assigns))
	for _, a := range assigns {
		override[a.Name] = true
	}

	out := make([]string, 0, len(base)+len(assigns))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if !override[name] {
			out = append(out, kv)
		}
	}
	for _, a := range assigns {
		out = append(out, a.String())
	}
	return out
}

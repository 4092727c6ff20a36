package builtin

import (
	"errors"
	"fmt"

	"github.com/pborman/getopt/v2"

	"tsh/internal/jobs"
)

// Jobs lists live jobs in insertion order.
func Jobs(env *Env, args []string) int {
	opts := getopt.New()
	long := opts.Bool('l', "list the pid of every process in the job")
	pidsOnly := opts.Bool('p', "list only the process group leader pids")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := env.Stderr
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: jobs [-lp]")
		fmt.Fprintln(w, "Display status of jobs.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	for _, job := range env.Jobs.Snapshot() {
		switch {
		case *pidsOnly:
			fmt.Fprintln(env.Stdout, job.Pid)
		case *long:
			fmt.Fprintln(env.Stdout, job)
			for _, pid := range job.Pids {
				fmt.Fprintf(env.Stdout, "      %d\n", pid)
			}
		default:
			fmt.Fprintln(env.Stdout, job)
		}
	}
	return 0
}

// Fg resumes a job in the foreground and waits for it.
func Fg(env *Env, args []string) int {
	return resume(env, args, jobs.Foreground)
}

// Bg resumes a stopped job in the background.
func Bg(env *Env, args []string) int {
	return resume(env, args, jobs.Background)
}

func resume(env *Env, args []string, state jobs.State) int {
	if len(args) < 2 {
		env.errorf("%s command requires PID or %%jobid argument", args[0])
		return 1
	}

	ref, err := jobs.ParseRef(args[1])
	if err != nil {
		env.errorf("%s: %v", args[0], err)
		return 1
	}

	job, status, err := env.Launcher.Resume(ref, state)
	var lookupErr *jobs.LookupError
	switch {
	case errors.As(err, &lookupErr):
		env.errorf("%v", lookupErr)
		return 1
	case err != nil:
		env.errorf("%s: %v", args[0], err)
		return 1
	}

	if state == jobs.Background {
		fmt.Fprintf(env.Stdout, "[%d] (%d) %s\n", job.Jid, job.Pid, job.CommandLine)
		return 0
	}
	if !status.Exited {
		return 1
	}
	return status.Code
}

func init() {
	All["jobs"] = Func(Jobs)
	All["fg"] = Func(Fg)
	All["bg"] = Func(Bg)
}

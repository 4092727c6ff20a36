package jobs

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal hands the controlling terminal between the shell and its
// foreground jobs. A nil *Terminal means the shell is not interactive and
// every method is a no-op.
type Terminal struct {
	fd   int
	pgid int
}

// NewTerminal returns nil when f is not a terminal.
func NewTerminal(f *os.File) *Terminal {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return &Terminal{fd: fd, pgid: unix.Getpgrp()}
}

func (t *Terminal) Fd() int {
	if t == nil {
		return -1
	}
	return t.fd
}

// Give makes pgid the terminal's foreground process group.
func (t *Terminal) Give(pgid int) error {
	if t == nil {
		return nil
	}
	return unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid)
}

// Reclaim puts the shell's own process group back in the foreground. The
// shell is a background group at this point, so SIGTTOU is ignored for the
// duration of the call.
func (t *Terminal) Reclaim() error {
	if t == nil {
		return nil
	}

	signal.Ignore(unix.SIGTTOU)
	defer signal.Reset(unix.SIGTTOU)

	return unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, t.pgid)
}

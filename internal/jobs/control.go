package jobs

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Ref names a job either by pid or, with a leading '%', by jid.
type Ref struct {
	N   int
	Jid bool
}

func ParseRef(arg string) (Ref, error) {
	ref := Ref{}
	if strings.HasPrefix(arg, "%") {
		ref.Jid = true
		arg = arg[1:]
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return Ref{}, ErrBadRef
	}
	ref.N = n
	return ref, nil
}

func (r Ref) String() string {
	if r.Jid {
		return fmt.Sprintf("%%%d", r.N)
	}
	return strconv.Itoa(r.N)
}

// LookupError reports a job reference that matches no live job.
type LookupError struct {
	Ref Ref
}

func (e *LookupError) Error() string {
	if e.Ref.Jid {
		return fmt.Sprintf("%%%d: %v", e.Ref.N, ErrNoSuchJob)
	}
	return fmt.Sprintf("(%d): %v", e.Ref.N, ErrNoSuchProcess)
}

func (e *LookupError) Unwrap() []error {
	if e.Ref.Jid {
		return []error{ErrNotFound, ErrNoSuchJob}
	}
	return []error{ErrNotFound, ErrNoSuchProcess}
}

func (t *Table) resolveLocked(ref Ref) *entry {
	if ref.Jid {
		return t.jidLocked(ref.N)
	}
	return t.ownerLocked(ref.N)
}

// Lookup finds the job named by ref.
func (t *Table) Lookup(ref Ref) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.resolveLocked(ref)
	if e == nil {
		return Job{}, &LookupError{Ref: ref}
	}
	return e.snapshot(), nil
}

// Continue moves the job named by ref to state and sends SIGCONT to its
// process group. The state is left untouched when the signal fails.
func (t *Table) Continue(ref Ref, state State) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if state != Foreground && state != Background {
		return Job{}, ErrInvalidState
	}
	e := t.resolveLocked(ref)
	if e == nil {
		return Job{}, &LookupError{Ref: ref}
	}
	if fg := t.foregroundLocked(); state == Foreground && fg != nil && fg != e {
		return Job{}, ErrForegroundBusy
	}

	prev := e.State
	e.State = state
	if err := unix.Kill(-e.Pgid, unix.SIGCONT); err != nil {
		e.State = prev
		return Job{}, fmt.Errorf("jobs: continue %s: %w", ref, err)
	}
	e.notified = false
	t.changed.Broadcast()

	return e.snapshot(), nil
}

package jobs

import (
	"fmt"
	"slices"
	"sync"
)

type entry struct {
	Job
	live     map[int]bool
	status   Status
	notified bool
}

func (e *entry) snapshot() Job {
	job := e.Job
	job.Pids = slices.Clone(e.Pids)
	return job
}

func (e *entry) owns(pid int) bool {
	return slices.Contains(e.Pids, pid)
}

func (e *entry) last() int {
	return e.Pids[len(e.Pids)-1]
}

// Table is the shared store of live jobs. Every method takes the table lock;
// changed is broadcast after each mutation so waiters can re-check.
type Table struct {
	mu      sync.Mutex
	changed *sync.Cond
	jobs    []*entry
	nextJid int

	last    Status
	results map[int]Status
}

func NewTable() *Table {
	t := &Table{nextJid: 1, results: make(map[int]Status)}
	t.changed = sync.NewCond(&t.mu)
	return t
}

// Insert records a single-process job and returns its jid.
func (t *Table) Insert(pid, pgid int, state State, cmdline string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, err := t.insertLocked([]int{pid}, pgid, state, cmdline)
	if err != nil {
		return 0, err
	}
	return e.Jid, nil
}

// Launch runs spawn with the table locked and records the spawned processes
// as one job. Holding the lock keeps the reaper from collecting a child
// before its job exists. Nothing is recorded when spawn fails.
func (t *Table) Launch(state State, cmdline string, spawn func() ([]int, error)) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !state.valid() {
		return Job{}, ErrInvalidState
	}
	if state == Foreground && t.foregroundLocked() != nil {
		return Job{}, ErrForegroundBusy
	}

	pids, err := spawn()
	if err != nil {
		return Job{}, err
	}
	if len(pids) == 0 {
		return Job{}, fmt.Errorf("%w: no processes", ErrInvalidState)
	}

	e, err := t.insertLocked(pids, pids[0], state, cmdline)
	if err != nil {
		return Job{}, err
	}
	return e.snapshot(), nil
}

func (t *Table) insertLocked(pids []int, pgid int, state State, cmdline string) (*entry, error) {
	if !state.valid() {
		return nil, ErrInvalidState
	}
	if len(pids) == 0 {
		return nil, fmt.Errorf("%w: no processes", ErrInvalidState)
	}
	if state == Foreground && t.foregroundLocked() != nil {
		return nil, ErrForegroundBusy
	}
	for _, pid := range pids {
		if t.ownerLocked(pid) != nil {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePid, pid)
		}
	}

	// Whoever waited on an earlier foreground job has collected its status
	// by the time another job is launched; the rest were never waited for.
	clear(t.results)

	e := &entry{
		Job: Job{
			Pid:         pids[0],
			Pgid:        pgid,
			Jid:         t.nextJid,
			State:       state,
			CommandLine: cmdline,
			Pids:        slices.Clone(pids),
		},
		live: make(map[int]bool, len(pids)),
	}
	for _, pid := range pids {
		e.live[pid] = true
	}

	t.jobs = append(t.jobs, e)
	t.nextJid++
	t.changed.Broadcast()

	return e, nil
}

// Remove drops the job owning pid.
func (t *Table) Remove(pid int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.ownerLocked(pid)
	if e == nil {
		return fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}
	t.removeLocked(e)
	return nil
}

// removeLocked deletes e and renumbers the remaining jobs so live jids stay
// exactly 1..k in insertion order.
func (t *Table) removeLocked(e *entry) {
	idx := slices.Index(t.jobs, e)
	if idx < 0 {
		return
	}
	t.jobs = slices.Delete(t.jobs, idx, idx+1)

	maxJid := 0
	for i, other := range t.jobs {
		other.Jid = i + 1
		maxJid = max(maxJid, other.Jid)
	}
	t.nextJid = maxJid + 1

	if e.State == Foreground {
		t.results[e.Pid] = e.status
	}
	t.changed.Broadcast()
}

func (t *Table) ownerLocked(pid int) *entry {
	for _, e := range t.jobs {
		if e.owns(pid) {
			return e
		}
	}
	return nil
}

func (t *Table) jidLocked(jid int) *entry {
	for _, e := range t.jobs {
		if e.Jid == jid {
			return e
		}
	}
	return nil
}

func (t *Table) foregroundLocked() *entry {
	for _, e := range t.jobs {
		if e.State == Foreground {
			return e
		}
	}
	return nil
}

// FindByPid returns the job that owns pid, whether as leader or member.
func (t *Table) FindByPid(pid int) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.ownerLocked(pid); e != nil {
		return e.snapshot(), true
	}
	return Job{}, false
}

func (t *Table) FindByJid(jid int) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.jidLocked(jid); e != nil {
		return e.snapshot(), true
	}
	return Job{}, false
}

// Foreground returns the job currently in the foreground, if any.
func (t *Table) Foreground() (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.foregroundLocked(); e != nil {
		return e.snapshot(), true
	}
	return Job{}, false
}

// Snapshot lists live jobs in insertion order.
func (t *Table) Snapshot() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, 0, len(t.jobs))
	for _, e := range t.jobs {
		out = append(out, e.snapshot())
	}
	return out
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.jobs)
}

// SetState changes the state of the job owning pid.
func (t *Table) SetState(pid int, state State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !state.valid() {
		return ErrInvalidState
	}
	e := t.ownerLocked(pid)
	if e == nil {
		return fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}
	if fg := t.foregroundLocked(); state == Foreground && fg != nil && fg != e {
		return ErrForegroundBusy
	}

	e.State = state
	t.changed.Broadcast()
	return nil
}

// LastStatus is the most recently recorded pipeline exit status.
func (t *Table) LastStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.last
}

// RecordStatus overwrites the last exit status. The launcher uses it for
// pipelines that never started.
func (t *Table) RecordStatus(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = s
	t.changed.Broadcast()
}

// WaitForeground blocks until the job led by pid is no longer in the
// foreground. A job that was already reaped returns at once.
func (t *Table) WaitForeground(pid int) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		e := t.ownerLocked(pid)
		if e == nil {
			break
		}
		if e.State != Foreground {
			return Status{}
		}
		t.changed.Wait()
	}

	if res, ok := t.results[pid]; ok {
		delete(t.results, pid)
		return res
	}
	return t.last
}

// WaitRemoved blocks until no job owns pid.
func (t *Table) WaitRemoved(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.ownerLocked(pid) != nil {
		t.changed.Wait()
	}
}

package jobs

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jids(t *Table) []int {
	var out []int
	for _, job := range t.Snapshot() {
		out = append(out, job.Jid)
	}
	return out
}

func TestInsertAssignsJids(t *testing.T) {
	table := NewTable()

	for i, pid := range []int{101, 102, 103} {
		jid, err := table.Insert(pid, pid, Background, "sleep 10 &")
		require.NoError(t, err)
		assert.Equal(t, i+1, jid)
	}

	assert.Equal(t, []int{1, 2, 3}, jids(table))
	assert.Equal(t, 3, table.Len())
}

func TestRemoveRenumbers(t *testing.T) {
	table := NewTable()
	for _, pid := range []int{101, 102, 103, 104, 105} {
		_, err := table.Insert(pid, pid, Background, "job")
		require.NoError(t, err)
	}

	require.NoError(t, table.Remove(102))
	require.NoError(t, table.Remove(104))
	assert.Equal(t, []int{1, 2, 3}, jids(table))

	job, ok := table.FindByJid(2)
	require.True(t, ok)
	assert.Equal(t, 103, job.Pid)

	_, ok = table.FindByJid(4)
	assert.False(t, ok)

	jid, err := table.Insert(106, 106, Background, "job")
	require.NoError(t, err)
	assert.Equal(t, 4, jid)

	assert.True(t, errors.Is(table.Remove(999), ErrNotFound))
}

func TestJidsStayDense(t *testing.T) {
	table := NewTable()
	rng := rand.New(rand.NewSource(1))
	var live []int
	nextPid := 1000

	for i := 0; i < 500; i++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			nextPid++
			_, err := table.Insert(nextPid, nextPid, Background, "job")
			require.NoError(t, err)
			live = append(live, nextPid)
		} else {
			idx := rng.Intn(len(live))
			require.NoError(t, table.Remove(live[idx]))
			live = append(live[:idx], live[idx+1:]...)
		}

		snapshot := table.Snapshot()
		require.Len(t, snapshot, len(live))
		for j, job := range snapshot {
			require.Equal(t, j+1, job.Jid)
			require.Equal(t, live[j], job.Pid, "insertion order is kept")
		}
	}
}

func TestSingleForeground(t *testing.T) {
	table := NewTable()

	_, err := table.Insert(101, 101, Foreground, "vi")
	require.NoError(t, err)

	_, err = table.Insert(102, 102, Foreground, "less")
	assert.True(t, errors.Is(err, ErrForegroundBusy))

	_, err = table.Launch(Foreground, "less", func() ([]int, error) {
		t.Fatal("spawn must not run while another job is in the foreground")
		return nil, nil
	})
	assert.True(t, errors.Is(err, ErrForegroundBusy))

	_, err = table.Insert(102, 102, Background, "make")
	require.NoError(t, err)
	assert.True(t, errors.Is(table.SetState(102, Foreground), ErrForegroundBusy))

	require.NoError(t, table.SetState(101, Stopped))
	require.NoError(t, table.SetState(102, Foreground))

	fg, ok := table.Foreground()
	require.True(t, ok)
	assert.Equal(t, 102, fg.Pid)
}

func TestInsertErrors(t *testing.T) {
	table := NewTable()

	_, err := table.Insert(101, 101, State(0), "x")
	assert.True(t, errors.Is(err, ErrInvalidState))

	_, err = table.Insert(101, 101, Background, "x")
	require.NoError(t, err)

	_, err = table.Insert(101, 101, Background, "x")
	assert.True(t, errors.Is(err, ErrDuplicatePid))

	_, err = table.Launch(Background, "x", func() ([]int, error) { return nil, nil })
	assert.True(t, errors.Is(err, ErrInvalidState))

	spawnErr := errors.New("exec failed")
	_, err = table.Launch(Background, "x", func() ([]int, error) { return nil, spawnErr })
	assert.Equal(t, spawnErr, err)
	assert.Equal(t, 1, table.Len())
}

func TestLaunchPipeline(t *testing.T) {
	table := NewTable()

	job, err := table.Launch(Background, "a | b | c &", func() ([]int, error) {
		return []int{201, 202, 203}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, Job{Pid: 201, Pgid: 201, Jid: 1, State: Background, CommandLine: "a | b | c &", Pids: []int{201, 202, 203}}, job)

	byMember, ok := table.FindByPid(203)
	require.True(t, ok)
	assert.Equal(t, 1, byMember.Jid)

	job.Pids[0] = 999
	again, _ := table.FindByJid(1)
	assert.Equal(t, 201, again.Pids[0], "snapshots do not alias table state")
}

func TestJobString(t *testing.T) {
	cases := map[string]struct {
		job  Job
		want string
	}{
		"foreground": {Job{Jid: 1, Pid: 42, State: Foreground, CommandLine: "vi notes"}, "[1] (42) Foreground vi notes"},
		"background": {Job{Jid: 2, Pid: 43, State: Background, CommandLine: "sleep 10 &"}, "[2] (43) Running sleep 10 &"},
		"stopped":    {Job{Jid: 3, Pid: 44, State: Stopped, CommandLine: "top"}, "[3] (44) Stopped top"},
		"undefined":  {Job{Jid: 4, Pid: 45, CommandLine: "x"}, "[4] (45) listjobs: Internal error: job[4].state=0 x"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.job.String())
		})
	}

	assert.Equal(t, "Undefined", State(0).String())
}

func TestStatus(t *testing.T) {
	assert.True(t, Status{Code: 0, Exited: true}.Success())
	assert.False(t, Status{Code: 1, Exited: true}.Success())
	assert.False(t, Status{}.Success())
	assert.Equal(t, "none", Status{}.String())
	assert.Equal(t, "3", Status{Code: 3, Exited: true}.String())
}

func TestWaitForegroundStopped(t *testing.T) {
	table := NewTable()
	_, err := table.Insert(101, 101, Foreground, "top")
	require.NoError(t, err)

	done := make(chan Status, 1)
	go func() { done <- table.WaitForeground(101) }()

	require.NoError(t, table.SetState(101, Stopped))

	select {
	case status := <-done:
		assert.Equal(t, Status{}, status)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForeground did not return after the job stopped")
	}
	assert.Equal(t, 1, table.Len())
}

func TestWaitForegroundRemoved(t *testing.T) {
	table := NewTable()
	_, err := table.Insert(101, 101, Foreground, "cat")
	require.NoError(t, err)

	done := make(chan Status, 1)
	go func() { done <- table.WaitForeground(101) }()

	table.RecordStatus(Status{Code: 5, Exited: true})
	require.NoError(t, table.Remove(101))

	select {
	case status := <-done:
		assert.Equal(t, Status{}, status, "a removed foreground job reports its own status")
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForeground did not return after the job was removed")
	}

	assert.Equal(t, Status{Code: 5, Exited: true}, table.WaitForeground(101), "unknown jobs report the last status")
}

func TestInsertDropsUnclaimedResults(t *testing.T) {
	table := NewTable()
	_, err := table.Insert(101, 101, Foreground, "cat")
	require.NoError(t, err)
	require.NoError(t, table.Remove(101))
	assert.Len(t, table.results, 1)

	_, err = table.Insert(101, 101, Background, "cat &")
	require.NoError(t, err)
	assert.Empty(t, table.results)

	table.RecordStatus(Status{Code: 2, Exited: true})
	require.NoError(t, table.Remove(101))
	assert.Equal(t, Status{Code: 2, Exited: true}, table.WaitForeground(101), "a reused pid does not see the old job's status")
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("%2")
	require.NoError(t, err)
	assert.Equal(t, Ref{N: 2, Jid: true}, ref)
	assert.Equal(t, "%2", ref.String())

	ref, err = ParseRef("4242")
	require.NoError(t, err)
	assert.Equal(t, Ref{N: 4242}, ref)
	assert.Equal(t, "4242", ref.String())

	for _, bad := range []string{"", "%", "abc", "%x", "0", "-3", "%-1"} {
		_, err := ParseRef(bad)
		assert.Equal(t, ErrBadRef, err, "ParseRef(%q)", bad)
	}
}

func TestLookup(t *testing.T) {
	table := NewTable()
	_, err := table.Launch(Background, "a | b", func() ([]int, error) { return []int{101, 102}, nil })
	require.NoError(t, err)

	job, err := table.Lookup(Ref{N: 1, Jid: true})
	require.NoError(t, err)
	assert.Equal(t, 101, job.Pid)

	job, err = table.Lookup(Ref{N: 102})
	require.NoError(t, err)
	assert.Equal(t, 1, job.Jid)

	_, err = table.Lookup(Ref{N: 3, Jid: true})
	assert.EqualError(t, err, "%3: No such job")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrNoSuchJob))

	_, err = table.Lookup(Ref{N: 42})
	assert.EqualError(t, err, "(42): No such process")
	assert.True(t, errors.Is(err, ErrNoSuchProcess))
}

func TestContinueErrors(t *testing.T) {
	table := NewTable()

	_, err := table.Continue(Ref{N: 1, Jid: true}, Background)
	var lookupErr *LookupError
	assert.True(t, errors.As(err, &lookupErr))

	_, err = table.Insert(101, 101, Foreground, "vi")
	require.NoError(t, err)
	_, err = table.Insert(102, 102, Stopped, "top")
	require.NoError(t, err)

	_, err = table.Continue(Ref{N: 102}, Stopped)
	assert.True(t, errors.Is(err, ErrInvalidState))

	_, err = table.Continue(Ref{N: 2, Jid: true}, Foreground)
	assert.True(t, errors.Is(err, ErrForegroundBusy))

	job, ok := table.FindByPid(102)
	require.True(t, ok)
	assert.Equal(t, Stopped, job.State)
}

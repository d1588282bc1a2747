package harness_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestProcessGroupCleanup(t *testing.T) {
	// Orphaned probes are reparented to us so they can be reaped below.
	require.NoError(t, unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0))
	t.Cleanup(func() { _ = unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 0, 0, 0, 0) })

	parent := start(t, bin.parent, bin.wait)

	var pids []int
	ctx := timeout(t)
	for {
		line, err := parent.ReadLine(ctx)
		require.NoError(t, err, parent.Stderr())
		var i, pid int
		if _, err := fmt.Sscanf(line, "Started probe %d with PID %d", &i, &pid); err == nil {
			pids = append(pids, pid)
		}
		if line == "All probes started, waiting..." {
			break
		}
	}
	require.Len(t, pids, 3)
	for _, pid := range pids {
		exists, err := process.PidExists(int32(pid))
		require.NoError(t, err)
		require.True(t, exists, "probe %d not running", pid)
	}

	require.NoError(t, parent.Kill())
	_, err := parent.Wait()
	require.NoError(t, err)

	reaped := map[int]unix.WaitStatus{}
	deadline := time.Now().Add(10 * time.Second)
	for len(reaped) < len(pids) && time.Now().Before(deadline) {
		for _, pid := range pids {
			if _, ok := reaped[pid]; ok {
				continue
			}
			var ws unix.WaitStatus
			if wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil); err == nil && wpid == pid {
				reaped[pid] = ws
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	require.Len(t, reaped, len(pids), "probes survived their parent")
	for pid, ws := range reaped {
		assert.True(t, ws.Signaled(), "probe %d", pid)
		assert.Equal(t, unix.SIGKILL, ws.Signal(), "probe %d", pid)
	}
}

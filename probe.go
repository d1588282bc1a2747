// Package probe implements disposable test subprocesses for exercising the
// restart, wait and kill handling of a workflow runner.
//
// A probe prints a single line to stdout that the runner can observe, optionally
// holds some memory, then blocks for a fixed interval. Probes install no signal
// handlers, so a runner ends them early with an ordinary SIGTERM or SIGKILL.
package probe

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Default hold durations for each probe.
const (
	EchoHold     = 60 * time.Second
	AllocateHold = 100 * time.Second
	RecordHold   = time.Duration(0)
)

// Echo writes id followed by a newline.
func Echo(w io.Writer, id string) error {
	_, err := fmt.Fprintln(w, id)
	return err
}

// AllocationStatus is the line printed before an allocation of n bytes.
func AllocationStatus(n int64) string {
	return fmt.Sprintf("Allocating %d...", n)
}

// Hold blocks until d has elapsed or ctx is done. A non-positive d returns
// immediately.
func Hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

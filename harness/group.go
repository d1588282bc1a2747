//go:build linux || darwin

package harness

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/hashicorp/go-multierror"
)

// Group tracks a set of probes so they can be stopped together.
type Group struct {
	mu    sync.Mutex
	procs []*Process
}

func (g *Group) Start(ctx context.Context, path string, args ...string) (*Process, error) {
	p, err := Start(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	g.Add(p)
	return p, nil
}

func (g *Group) Add(p *Process) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.procs = append(g.procs, p)
}

// Len returns the number of probes in the group that have not exited.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, p := range g.procs {
		select {
		case <-p.done:
		default:
			n++
		}
	}
	return n
}

// StopAll kills every probe in the group and waits for them to exit.
func (g *Group) StopAll() error {
	g.mu.Lock()
	procs := g.procs
	g.procs = nil
	g.mu.Unlock()

	var result *multierror.Error
	for _, p := range procs {
		if err := p.Kill(); err != nil && !errors.Is(err, ErrExited) {
			result = multierror.Append(result, errors.Wrapf(err, "kill pid %d", p.Pid()))
		}
	}
	for _, p := range procs {
		if _, err := p.Wait(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "wait pid %d", p.Pid()))
		}
	}
	return result.ErrorOrNil()
}

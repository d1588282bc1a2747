//go:build linux || darwin

// Package harness launches probe binaries as subprocesses and drives them
// through the start, observe, terminate and relaunch steps a workflow runner
// performs.
//
// Every probe is started in its own process group, and on Linux it is also
// killed when the harness exits, so a failing test cannot leak sleeping probes.
package harness

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"golang.org/x/sys/unix"
)

// ErrExited is returned when signalling a probe that has already been reaped.
var ErrExited = errors.New("probe has exited")

// NewInstanceID returns a unique identifier suitable for an echo probe.
func NewInstanceID() string {
	return xid.New().String()
}

// Exit describes how a probe ended.
type Exit struct {
	Code   int
	Signal syscall.Signal
}

func (e *Exit) Signaled() bool { return e.Signal != 0 }

func (e *Exit) String() string {
	if e.Signaled() {
		return "signal: " + e.Signal.String()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Process is a running probe.
type Process struct {
	ctx  context.Context
	path string
	args []string
	cmd  *exec.Cmd

	mu      sync.Mutex
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	lines   []string
	next    int
	eof     bool
	changed chan struct{}

	done    chan struct{}
	exit    *Exit
	waitErr error
}

// Start launches the probe at path with args. Cancelling ctx kills the probe's
// process group.
func Start(ctx context.Context, path string, args ...string) (*Process, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.SysProcAttr = sysProcAttr()
	p := &Process{
		ctx:     ctx,
		path:    path,
		args:    args,
		cmd:     cmd,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	cmd.Cancel = func() error { return p.signalGroup(unix.SIGKILL) }
	cmd.Stderr = writerFunc(func(b []byte) (int, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.stderr.Write(b)
	})
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", path)
	}
	go p.run(stdout)
	return p, nil
}

func (p *Process) run(stdout io.Reader) {
	r := bufio.NewReader(stdout)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			p.mu.Lock()
			p.stdout.WriteString(line)
			p.lines = append(p.lines, strings.TrimSuffix(line, "\n"))
			p.notifyLocked()
			p.mu.Unlock()
		}
		if err != nil {
			break
		}
	}
	p.mu.Lock()
	p.eof = true
	p.notifyLocked()
	p.mu.Unlock()

	// A non-zero exit or a cancelled context is still a completed probe.
	if err := p.cmd.Wait(); p.cmd.ProcessState != nil {
		p.exit = exitFromState(p.cmd.ProcessState)
	} else {
		p.waitErr = errors.Wrap(err, "wait")
	}
	close(p.done)
}

func (p *Process) notifyLocked() {
	close(p.changed)
	p.changed = make(chan struct{})
}

func exitFromState(state *os.ProcessState) *Exit {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		return &Exit{Code: -1}
	}
	if ws.Signaled() {
		return &Exit{Code: -1, Signal: ws.Signal()}
	}
	return &Exit{Code: ws.ExitStatus()}
}

func (p *Process) Pid() int { return p.cmd.Process.Pid }

func (p *Process) Args() []string { return append([]string(nil), p.args...) }

// ReadLine returns the next line the probe wrote to stdout, without its line
// terminator. io.EOF is returned once stdout is closed and drained.
func (p *Process) ReadLine(ctx context.Context) (string, error) {
	for {
		p.mu.Lock()
		if p.next < len(p.lines) {
			line := p.lines[p.next]
			p.next++
			p.mu.Unlock()
			return line, nil
		}
		if p.eof {
			p.mu.Unlock()
			return "", io.EOF
		}
		changed := p.changed
		p.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Stdout returns everything the probe has written to stdout so far.
func (p *Process) Stdout() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout.String()
}

// Stderr returns everything the probe has written to stderr so far.
func (p *Process) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr.String()
}

// Signal delivers sig to the probe's process group.
func (p *Process) Signal(sig syscall.Signal) error {
	select {
	case <-p.done:
		return ErrExited
	default:
	}
	if err := p.signalGroup(sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return ErrExited
		}
		return errors.Wrapf(err, "signal %s", sig)
	}
	return nil
}

func (p *Process) signalGroup(sig syscall.Signal) error {
	return unix.Kill(-p.cmd.Process.Pid, sig)
}

func (p *Process) Terminate() error { return p.Signal(unix.SIGTERM) }

func (p *Process) Kill() error { return p.Signal(unix.SIGKILL) }

// Done is closed once the probe has been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// Wait blocks until the probe exits.
func (p *Process) Wait() (*Exit, error) {
	<-p.done
	return p.exit, p.waitErr
}

// Alive reports whether the probe is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
	}
	proc, err := process.NewProcess(int32(p.Pid()))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	return err == nil && running
}

// RSS returns the resident set size of the probe in bytes.
func (p *Process) RSS() (uint64, error) {
	proc, err := process.NewProcess(int32(p.Pid()))
	if err != nil {
		return 0, errors.Wrapf(err, "pid %d", p.Pid())
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0, errors.Wrapf(err, "memory info for pid %d", p.Pid())
	}
	return mem.RSS, nil
}

// Restart terminates the probe, waits for it to exit and launches it again
// with the same arguments. If ctx ends before the probe exits it is killed.
func (p *Process) Restart(ctx context.Context) (*Process, error) {
	if err := p.Terminate(); err != nil && !errors.Is(err, ErrExited) {
		return nil, err
	}
	select {
	case <-p.done:
	case <-ctx.Done():
		if err := p.Kill(); err != nil && !errors.Is(err, ErrExited) {
			return nil, err
		}
		<-p.done
	}
	if p.waitErr != nil {
		return nil, p.waitErr
	}
	return Start(p.ctx, p.path, p.args...)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

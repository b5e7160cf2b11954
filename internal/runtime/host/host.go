package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// DefaultWaitDelay is how long a child gets to exit after being asked to terminate.
const DefaultWaitDelay = 10 * time.Second

// Host runs processes directly on the host
type Host struct {
	// Grace period between forwarding termination and killing the child
	WaitDelay time.Duration
}

// New creates a new host runtime
func New() *Host {
	return &Host{
		WaitDelay: DefaultWaitDelay,
	}
}

// LookPath implements runtime.Runtime
func (h *Host) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", runtime.ErrNotFound, name, err)
	}
	return path, nil
}

// Run implements runtime.Runtime
func (h *Host) Run(ctx context.Context, opts runtime.RunOptions) (*runtime.Result, error) {
	log := clog.FromContext(ctx)

	cmd := exec.CommandContext(ctx, opts.Path, opts.Args...)
	cmd.Env = opts.Env
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = h.WaitDelay

	// Set up IO. Quiet leaves everything nil, which exec binds to the null device.
	if !opts.Quiet {
		cmd.Stdin = opts.Stdin
		if cmd.Stdin == nil {
			cmd.Stdin = os.Stdin
		}
		cmd.Stdout = opts.Stdout
		if cmd.Stdout == nil {
			cmd.Stdout = os.Stdout
		}
		cmd.Stderr = opts.Stderr
		if cmd.Stderr == nil {
			cmd.Stderr = os.Stderr
		}
	}

	log.Debug("starting process", "path", opts.Path, "args", opts.Args)
	if err := cmd.Start(); err != nil {
		return nil, &runtime.SpawnError{Path: opts.Path, Err: err}
	}
	pid := cmd.Process.Pid

	waitErr := cmd.Wait()
	if cmd.ProcessState == nil {
		// The process started but its status could not be collected.
		log.Warn("lost track of process", "pid", pid, "error", waitErr)
		return &runtime.Result{Pid: pid, ExitCode: 1}, nil
	}

	res := resultFromState(pid, cmd.ProcessState)
	log.Debug("process exited", "pid", pid, "code", res.ExitCode, "signal", res.Signal)
	return res, nil
}

// resultFromState maps a process state to a Result, using the shell's 128+n
// convention for children killed by a signal.
func resultFromState(pid int, state *os.ProcessState) *runtime.Result {
	res := &runtime.Result{Pid: pid, ExitCode: state.ExitCode()}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		res.Signal = ws.Signal().String()
		res.ExitCode = 128 + int(ws.Signal())
	}
	return res
}

// String returns the runtime name
func (h *Host) String() string {
	return "host"
}

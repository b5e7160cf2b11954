package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned by LookPath when an executable is not on the search path.
var ErrNotFound = errors.New("executable not found")

// Runtime locates and runs external programs
type Runtime interface {
	// LookPath resolves an executable name against the command search path
	LookPath(name string) (string, error)

	// Run starts a process and blocks until it exits
	Run(ctx context.Context, opts RunOptions) (*Result, error)
}

// RunOptions configures how to run the process
type RunOptions struct {
	// Path to the executable
	Path string

	// Arguments passed after the executable
	Args []string

	// Environment variables in KEY=VALUE form. Nil inherits the parent's environment unchanged.
	Env []string

	// Quiet discards stdout and stderr, used for presence checks
	Quiet bool

	// Stdin/stdout/stderr (optional, defaults to os.Std*)
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Result describes how a started process terminated
type Result struct {
	// Process identifier of the child
	Pid int

	// Exit code of the child. A child killed by a signal reports 128+signal.
	ExitCode int

	// Signal names the terminating signal, empty for a normal exit
	Signal string
}

// Signaled reports whether the process was killed by a signal rather than exiting
func (r *Result) Signaled() bool { return r.Signal != "" }

// Success reports whether the process exited with code 0
func (r *Result) Success() bool { return r.ExitCode == 0 && !r.Signaled() }

// SpawnError is returned when a process could not be started at all.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

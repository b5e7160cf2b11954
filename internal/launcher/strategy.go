// Package launcher starts the MCP server through an ordered chain of
// strategies. Each strategy reports a typed Outcome and the Chain alone
// decides when to stop and which exit code the launcher reports.
//
// A strategy fails only while trying to start the server. Once a server
// process has started, its exit code is the chain's result, even when it is
// non-zero.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// Strategy is one way of starting the server
type Strategy interface {
	// Name identifies the strategy in logs and remediation output
	Name() string

	// Viable reports whether the strategy's tooling is present. It installs
	// nothing and starts no server.
	Viable(ctx context.Context) bool

	// Launch starts the server and blocks until it exits
	Launch(ctx context.Context) Outcome
}

// Kind classifies an Outcome.
type Kind int

const (
	// KindNotViable means the strategy could not be attempted.
	KindNotViable Kind = iota
	// KindFailed means the strategy was attempted but no server process started.
	KindFailed
	// KindStarted means a server process started and has exited.
	KindStarted
)

func (k Kind) String() string {
	switch k {
	case KindNotViable:
		return "not viable"
	case KindFailed:
		return "failed"
	case KindStarted:
		return "started"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of a single Launch
type Outcome struct {
	Kind Kind

	// ExitCode of the server, set for KindStarted
	ExitCode int

	// Err explains a KindFailed or KindNotViable outcome
	Err error
}

// NotViable reports that a strategy could not be attempted.
func NotViable(err error) Outcome { return Outcome{Kind: KindNotViable, Err: err} }

// Failed reports that no server process could be started.
func Failed(err error) Outcome { return Outcome{Kind: KindFailed, Err: err} }

// Started reports the exit code of a server process that ran.
func Started(code int) Outcome { return Outcome{Kind: KindStarted, ExitCode: code} }

// Streams are the launcher's standard streams. Nil fields default to os.Std*.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (s Streams) stderr() io.Writer {
	if s.Stderr == nil {
		return os.Stderr
	}
	return s.Stderr
}

// serve returns options binding the child to the launcher's streams. The
// environment is inherited unchanged.
func (s Streams) serve(path string, args ...string) runtime.RunOptions {
	return runtime.RunOptions{
		Path:   path,
		Args:   args,
		Stdin:  s.Stdin,
		Stdout: s.Stdout,
		Stderr: s.Stderr,
	}
}

// install returns options for a package installation. Installer output goes
// to stderr so stdout carries nothing but the server's protocol.
func (s Streams) install(path string, args ...string) runtime.RunOptions {
	return runtime.RunOptions{
		Path:   path,
		Args:   args,
		Stdin:  eofReader{},
		Stdout: s.stderr(),
		Stderr: s.stderr(),
	}
}

// probe returns options for a silent presence check.
func probe(path string, args ...string) runtime.RunOptions {
	return runtime.RunOptions{Path: path, Args: args, Quiet: true}
}

// eofReader keeps installers from consuming the client's stdin.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

package launcher

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chainguard-dev/clog"
)

// Exit codes owned by the launcher itself.
const (
	ExitExhausted   = 1
	ExitInterrupted = 130
)

// State is the terminal state of a chain run.
type State int

const (
	// StateExited means a server ran; its exit code is propagated.
	StateExited State = iota
	// StateExhausted means every strategy was skipped or failed.
	StateExhausted
	// StateInterrupted means the context ended before any server started.
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateExited:
		return "exited"
	case StateExhausted:
		return "exhausted"
	case StateInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Attempt records what happened to one strategy
type Attempt struct {
	Strategy string
	Outcome  Outcome
}

// ChainOutcome is the terminal result of the whole launcher
type ChainOutcome struct {
	State State

	// Strategy that started the server, set for StateExited
	Strategy string

	// Code is the server's exit code for StateExited
	Code int

	// Attempts in the order they were made
	Attempts []Attempt
}

// ExitCode returns the code the launcher process should exit with
func (o ChainOutcome) ExitCode() int {
	switch o.State {
	case StateExited:
		return o.Code
	case StateInterrupted:
		return ExitInterrupted
	default:
		return ExitExhausted
	}
}

// Chain runs strategies in order until one starts the server
type Chain struct {
	Strategies []Strategy

	// Remediation is written to Stderr when the chain is exhausted
	Remediation *Remediation

	// Stderr receives remediation text (default: os.Stderr)
	Stderr io.Writer
}

// Run tries each strategy in turn. It never runs two strategies at once and
// never falls back after a server process has started.
func (c *Chain) Run(ctx context.Context) ChainOutcome {
	log := clog.FromContext(ctx)
	out := ChainOutcome{State: StateExhausted}

	for _, s := range c.Strategies {
		if err := ctx.Err(); err != nil {
			log.Warn("launch interrupted", "before", s.Name(), "error", err)
			out.State = StateInterrupted
			return out
		}

		if !s.Viable(ctx) {
			log.Debug("strategy not viable", "strategy", s.Name())
			out.Attempts = append(out.Attempts, Attempt{Strategy: s.Name(), Outcome: NotViable(nil)})
			continue
		}

		log.Info("launching server", "strategy", s.Name())
		o := s.Launch(ctx)
		out.Attempts = append(out.Attempts, Attempt{Strategy: s.Name(), Outcome: o})

		switch o.Kind {
		case KindStarted:
			log.Info("server exited", "strategy", s.Name(), "code", o.ExitCode)
			out.State = StateExited
			out.Strategy = s.Name()
			out.Code = o.ExitCode
			return out
		case KindFailed:
			log.Warn("strategy failed", "strategy", s.Name(), "error", o.Err)
		default:
			log.Debug("strategy not viable", "strategy", s.Name(), "error", o.Err)
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warn("launch interrupted", "error", err)
		out.State = StateInterrupted
		return out
	}

	log.Error("all launch strategies exhausted", "error", ErrExhausted)
	if c.Remediation != nil {
		stderr := c.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		if err := c.Remediation.Write(stderr, out.Attempts); err != nil {
			log.Warn("writing remediation", "error", err)
		}
	}
	return out
}

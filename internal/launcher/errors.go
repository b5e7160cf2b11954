package launcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExhausted describes a chain in which no strategy started the server.
var ErrExhausted = errors.New("no launch strategy could start the server")

// InstallError reports a package installation that did not succeed.
type InstallError struct {
	// Tool that performed the install
	Tool string

	// Package being installed
	Package string

	// Exit code of the installer, -1 when it could not be started
	ExitCode int

	// Cause is set when the installer could not be started
	Cause error
}

func (e *InstallError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "installing %s with %s", e.Package, e.Tool)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	} else {
		fmt.Fprintf(&b, ": exit code %d", e.ExitCode)
	}
	return b.String()
}

func (e *InstallError) Unwrap() error { return e.Cause }

// ToolNotFoundError reports that a strategy's tool is not on the search path.
type ToolNotFoundError struct {
	Tools []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found", strings.Join(e.Tools, ", "))
}

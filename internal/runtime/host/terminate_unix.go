//go:build !windows

package host

import (
	"os"
	"syscall"
)

// terminate asks the child to shut down, leaving WaitDelay to escalate.
func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

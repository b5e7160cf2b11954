//go:build windows

package host

import "os"

// terminate kills the child; Windows has no portable polite signal.
func terminate(p *os.Process) error {
	return p.Kill()
}

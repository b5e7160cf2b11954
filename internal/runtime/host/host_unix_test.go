//go:build !windows

package host

import (
	"context"
	"syscall"
	"testing"
)

func killSelf() {
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGKILL)
}

func TestRunSignaled(t *testing.T) {
	opts := helperOptions(t, "HELPER_MODE=signal")
	opts.Quiet = true

	res, err := New().Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Signaled() {
		t.Fatalf("Run() signal = empty, want killed")
	}
	if want := 128 + int(syscall.SIGKILL); res.ExitCode != want {
		t.Errorf("Run() exit code = %d, want %d", res.ExitCode, want)
	}
}

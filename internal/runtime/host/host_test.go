package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// TestHelperProcess is not a real test. It is re-executed by the tests below
// to act as a child process with controllable behaviour.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("LAUNCHER_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("HELPER_MODE") {
	case "echo":
		fmt.Fprint(os.Stdout, "out:"+os.Getenv("HELPER_PAYLOAD"))
		fmt.Fprint(os.Stderr, "err:"+os.Getenv("HELPER_PAYLOAD"))
	case "stdin":
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(os.Stdin)
		fmt.Fprint(os.Stdout, strings.ToUpper(buf.String()))
	case "signal":
		killSelf()
	}
	code, _ := strconv.Atoi(os.Getenv("HELPER_EXIT"))
	os.Exit(code)
}

func helperOptions(t *testing.T, env ...string) runtime.RunOptions {
	t.Helper()
	return runtime.RunOptions{
		Path: os.Args[0],
		Args: []string{"-test.run=TestHelperProcess"},
		Env:  append(append(os.Environ(), "LAUNCHER_WANT_HELPER_PROCESS=1"), env...),
	}
}

func TestRunExitCode(t *testing.T) {
	tests := []struct {
		name string
		exit string
		want int
	}{
		{name: "clean exit", exit: "0", want: 0},
		{name: "application error", exit: "3", want: 3},
		{name: "high code", exit: "42", want: 42},
	}

	h := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := helperOptions(t, "HELPER_EXIT="+tt.exit)
			opts.Quiet = true

			res, err := h.Run(context.Background(), opts)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if res.ExitCode != tt.want {
				t.Errorf("Run() exit code = %d, want %d", res.ExitCode, tt.want)
			}
			if res.Signaled() {
				t.Errorf("Run() signal = %q, want none", res.Signal)
			}
			if res.Pid == 0 {
				t.Error("Run() pid = 0, want child pid")
			}
		})
	}
}

func TestRunForwardsStreamsAndEnv(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := helperOptions(t, "HELPER_MODE=echo", "HELPER_PAYLOAD=finedata")
	opts.Stdout = &stdout
	opts.Stderr = &stderr

	res, err := New().Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !res.Success() {
		t.Fatalf("Run() exit code = %d, want 0", res.ExitCode)
	}
	if got := stdout.String(); !strings.Contains(got, "out:finedata") {
		t.Errorf("stdout = %q, want it to contain %q", got, "out:finedata")
	}
	if got := stderr.String(); !strings.Contains(got, "err:finedata") {
		t.Errorf("stderr = %q, want it to contain %q", got, "err:finedata")
	}
}

func TestRunForwardsStdin(t *testing.T) {
	var stdout bytes.Buffer
	opts := helperOptions(t, "HELPER_MODE=stdin")
	opts.Stdin = strings.NewReader("ping")
	opts.Stdout = &stdout
	opts.Stderr = &bytes.Buffer{}

	if _, err := New().Run(context.Background(), opts); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "PING") {
		t.Errorf("stdout = %q, want echoed stdin", stdout.String())
	}
}

func TestRunSpawnError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	res, err := New().Run(context.Background(), runtime.RunOptions{Path: missing, Quiet: true})
	if err == nil {
		t.Fatalf("Run() = %+v, want spawn error", res)
	}
	var spawnErr *runtime.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Run() error = %T, want *runtime.SpawnError", err)
	}
	if spawnErr.Path != missing {
		t.Errorf("SpawnError.Path = %q, want %q", spawnErr.Path, missing)
	}
}

func TestLookPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := New().LookPath("finedata-launcher-no-such-tool")
	if !errors.Is(err, runtime.ErrNotFound) {
		t.Errorf("LookPath() error = %v, want ErrNotFound", err)
	}
}

func TestString(t *testing.T) {
	if got := fmt.Sprint(New()); got != "host" {
		t.Errorf("String() = %q, want %q", got, "host")
	}
}

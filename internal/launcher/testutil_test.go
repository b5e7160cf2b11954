package launcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// fakeRuntime resolves names from a fixed table and answers Run calls from
// scripted handlers keyed by the full command line.
type fakeRuntime struct {
	paths    map[string]string
	handlers map[string]func(runtime.RunOptions) (*runtime.Result, error)

	calls   []runtime.RunOptions
	lookups []string
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		paths:    map[string]string{},
		handlers: map[string]func(runtime.RunOptions) (*runtime.Result, error){},
	}
}

func (f *fakeRuntime) install(name string) *fakeRuntime {
	f.paths[name] = "/usr/bin/" + name
	return f
}

func (f *fakeRuntime) on(cmdline string, h func(runtime.RunOptions) (*runtime.Result, error)) *fakeRuntime {
	f.handlers[cmdline] = h
	return f
}

func (f *fakeRuntime) LookPath(name string) (string, error) {
	f.lookups = append(f.lookups, name)
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", runtime.ErrNotFound, name)
}

func (f *fakeRuntime) Run(ctx context.Context, opts runtime.RunOptions) (*runtime.Result, error) {
	f.calls = append(f.calls, opts)
	if h, ok := f.handlers[cmdline(opts)]; ok {
		return h(opts)
	}
	return nil, &runtime.SpawnError{Path: opts.Path, Err: errors.New("no handler for " + cmdline(opts))}
}

// commands returns the command lines run so far
func (f *fakeRuntime) commands() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, cmdline(c))
	}
	return out
}

func cmdline(opts runtime.RunOptions) string {
	return strings.TrimSpace(opts.Path + " " + strings.Join(opts.Args, " "))
}

func exit(code int) func(runtime.RunOptions) (*runtime.Result, error) {
	return func(runtime.RunOptions) (*runtime.Result, error) {
		return &runtime.Result{Pid: 4242, ExitCode: code}, nil
	}
}

func spawnFails(runtime.RunOptions) (*runtime.Result, error) {
	return nil, &runtime.SpawnError{Path: "x", Err: errors.New("permission denied")}
}

// fakeStrategy records how the chain drove it.
type fakeStrategy struct {
	name    string
	viable  bool
	outcome Outcome

	// onLaunch runs before the outcome is returned
	onLaunch func()

	viableCalls int
	launches    int
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Viable(context.Context) bool {
	s.viableCalls++
	return s.viable
}

func (s *fakeStrategy) Launch(context.Context) Outcome {
	s.launches++
	if s.onLaunch != nil {
		s.onLaunch()
	}
	return s.outcome
}

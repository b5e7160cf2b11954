package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"

	"github.com/chainguard-dev/clog"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/manifest"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// Managed runs the package through a managed package runner such as pipx.
//
// With the install exit policy, a non-zero exit of "run" is read as "the
// package is not resolvable yet": the package is installed explicitly and its
// own executable is started directly.
type Managed struct {
	// Package runner executable (default: "pipx")
	Tool string

	Package string

	// Executable installed by the package
	Executable string

	// ExitPolicy is manifest.ManagedExitInstall or manifest.ManagedExitTerminal
	ExitPolicy string

	// BinDirs are searched for the installed executable when it is not on the path
	BinDirs []string

	Runtime runtime.Runtime
	Streams Streams
}

// Name implements Strategy
func (s *Managed) Name() string { return manifest.StrategyManaged }

// Viable implements Strategy
func (s *Managed) Viable(ctx context.Context) bool {
	_, err := s.Runtime.LookPath(s.Tool)
	return err == nil
}

// Launch implements Strategy
func (s *Managed) Launch(ctx context.Context) Outcome {
	log := clog.FromContext(ctx)

	tool, err := s.Runtime.LookPath(s.Tool)
	if err != nil {
		return NotViable(err)
	}

	res, err := s.Runtime.Run(ctx, s.Streams.serve(tool, "run", s.Package))
	if err != nil {
		return Failed(err)
	}
	if res.Success() || s.ExitPolicy == manifest.ManagedExitTerminal || res.Signaled() {
		return Started(res.ExitCode)
	}
	if ctx.Err() != nil {
		// The server was asked to stop; its exit is not a resolution failure.
		return Started(res.ExitCode)
	}

	log.Info("managed runner exited non-zero, installing explicitly", "tool", s.Tool, "code", res.ExitCode)
	return s.installThenRun(ctx, tool)
}

// installThenRun installs the package with the managed runner and starts the
// installed executable with no arguments.
func (s *Managed) installThenRun(ctx context.Context, tool string) Outcome {
	log := clog.FromContext(ctx)

	res, err := s.Runtime.Run(ctx, s.Streams.install(tool, "install", s.Package, "--force"))
	if err != nil {
		return Failed(&InstallError{Tool: s.Tool, Package: s.Package, ExitCode: -1, Cause: err})
	}
	if !res.Success() {
		return Failed(&InstallError{Tool: s.Tool, Package: s.Package, ExitCode: res.ExitCode})
	}

	exe := s.executable()
	log.Debug("starting installed executable", "path", exe)
	res, err = s.Runtime.Run(ctx, s.Streams.serve(exe))
	if err != nil {
		return Failed(fmt.Errorf("starting installed %s: %w", s.Executable, err))
	}
	return Started(res.ExitCode)
}

// executable resolves the installed program, preferring the search path and
// then the runner's bin directories.
func (s *Managed) executable() string {
	if path, err := s.Runtime.LookPath(s.Executable); err == nil {
		return path
	}

	name := s.Executable
	if goruntime.GOOS == "windows" && filepath.Ext(name) == "" {
		name += ".exe"
	}
	for _, dir := range s.BinDirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	// Let the spawn report the failure.
	return s.Executable
}

// PipxBinDirs returns the directories pipx links executables into.
func PipxBinDirs() []string {
	var dirs []string
	if dir := os.Getenv("PIPX_BIN_DIR"); dir != "" {
		dirs = append(dirs, dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "bin"))
	}
	return dirs
}

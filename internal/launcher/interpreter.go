package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/manifest"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// Interpreter is the last resort: find a general purpose interpreter, install
// the module into the user site if it cannot be imported, then run it with -m.
type Interpreter struct {
	// Candidates are interpreter names tried in order
	Candidates []string

	Package string
	Module  string

	Runtime runtime.Runtime
	Streams Streams
}

// Name implements Strategy
func (s *Interpreter) Name() string { return manifest.StrategyInterpreter }

// Viable implements Strategy
func (s *Interpreter) Viable(ctx context.Context) bool {
	for _, name := range s.Candidates {
		if _, err := s.Runtime.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// Launch implements Strategy. Every candidate is tried before giving up.
func (s *Interpreter) Launch(ctx context.Context) Outcome {
	log := clog.FromContext(ctx)

	var errs []error
	found := false
	for _, name := range s.Candidates {
		path, err := s.Runtime.LookPath(name)
		if err != nil {
			continue
		}
		found = true

		ilog := log.With("interpreter", path)
		present, err := s.importable(ctx, path)
		if err != nil {
			ilog.Warn("checking module", "error", err)
			errs = append(errs, err)
			continue
		}

		if !present {
			ilog.Info("module not installed, installing", "package", s.Package)
			if err := s.install(ctx, name, path); err != nil {
				ilog.Warn("install failed, trying next interpreter", "error", err)
				errs = append(errs, err)
				continue
			}
		}

		res, err := s.Runtime.Run(ctx, s.Streams.serve(path, "-m", s.Module))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return Started(res.ExitCode)
	}

	if !found {
		return NotViable(&ToolNotFoundError{Tools: s.Candidates})
	}
	return Failed(fmt.Errorf("no interpreter could start %s: %w", s.Module, errors.Join(errs...)))
}

// importable reports whether the module imports cleanly. Only the exit status
// of a throwaway interpreter is inspected.
func (s *Interpreter) importable(ctx context.Context, path string) (bool, error) {
	res, err := s.Runtime.Run(ctx, probe(path, "-c", "import "+s.Module))
	if err != nil {
		return false, err
	}
	return res.Success(), nil
}

func (s *Interpreter) install(ctx context.Context, name, path string) error {
	res, err := s.Runtime.Run(ctx, s.Streams.install(path, "-m", "pip", "install", "--user", "-q", s.Package))
	if err != nil {
		return &InstallError{Tool: name + " -m pip", Package: s.Package, ExitCode: -1, Cause: err}
	}
	if !res.Success() {
		return &InstallError{Tool: name + " -m pip", Package: s.Package, ExitCode: res.ExitCode}
	}
	return nil
}

package launcher

import (
	"context"

	"github.com/chainguard-dev/clog"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/manifest"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// Isolated runs the package through an ephemeral tool runner such as uvx,
// which resolves and caches dependencies itself.
type Isolated struct {
	// Tool runner executable (default: "uvx")
	Tool string

	// Package passed to the runner
	Package string

	Runtime runtime.Runtime
	Streams Streams
}

// Name implements Strategy
func (s *Isolated) Name() string { return manifest.StrategyIsolated }

// Viable implements Strategy
func (s *Isolated) Viable(ctx context.Context) bool {
	_, err := s.Runtime.LookPath(s.Tool)
	return err == nil
}

// Launch implements Strategy
func (s *Isolated) Launch(ctx context.Context) Outcome {
	log := clog.FromContext(ctx)

	path, err := s.Runtime.LookPath(s.Tool)
	if err != nil {
		return NotViable(err)
	}

	log.Debug("running isolated", "tool", path, "package", s.Package)
	res, err := s.Runtime.Run(ctx, s.Streams.serve(path, s.Package))
	if err != nil {
		return Failed(err)
	}
	if res.Signaled() {
		log.Warn("server killed by signal", "signal", res.Signal)
	}
	return Started(res.ExitCode)
}

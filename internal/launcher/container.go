package launcher

import (
	"context"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/builder"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/manifest"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime/docker"
)

// ImageBuilder produces an image tarball from an image spec
type ImageBuilder interface {
	Build(ctx context.Context, spec builder.ImageSpec, tag string) (string, error)
}

// ContainerEngine runs commands in containers
type ContainerEngine interface {
	Available(ctx context.Context) bool
	Run(ctx context.Context, opts docker.RunOptions) (*runtime.Result, error)
}

// ImageTag is the tag server images are loaded under.
const ImageTag = "finedata-mcp-launcher:latest"

// Container builds an image holding an interpreter and the isolated tool
// runner, then runs the package inside it. Only the named variables of the
// environment cross into the container.
type Container struct {
	// Tool runner executable inside the image
	Tool    string
	Package string

	Image    builder.ImageSpec
	EnvNames []string

	Builder ImageBuilder
	Engine  ContainerEngine
	Streams Streams
}

// Name implements Strategy
func (s *Container) Name() string { return manifest.StrategyContainer }

// Viable implements Strategy. Unlike the other strategies it runs
// "docker version", since a docker binary without a reachable engine is useless.
func (s *Container) Viable(ctx context.Context) bool {
	return s.Engine.Available(ctx)
}

// Launch implements Strategy
func (s *Container) Launch(ctx context.Context) Outcome {
	log := clog.FromContext(ctx)

	tarPath, err := s.Builder.Build(ctx, s.Image, ImageTag)
	if err != nil {
		return Failed(&InstallError{Tool: "apko", Package: s.Package, ExitCode: -1, Cause: err})
	}
	defer func() {
		if err := os.Remove(tarPath); err != nil && !os.IsNotExist(err) {
			log.Debug("removing image tarball", "path", tarPath, "error", err)
		}
	}()

	res, err := s.Engine.Run(ctx, docker.RunOptions{
		ImagePath: tarPath,
		Command:   []string{s.Tool, s.Package},
		EnvNames:  s.EnvNames,
		Stdin:     s.Streams.Stdin,
		Stdout:    s.Streams.Stdout,
		Stderr:    s.Streams.Stderr,
	})
	if err != nil {
		return Failed(err)
	}
	if res.ExitCode == docker.ExitEngineError {
		return Failed(fmt.Errorf("container engine could not start the container (exit %d)", res.ExitCode))
	}
	return Started(res.ExitCode)
}

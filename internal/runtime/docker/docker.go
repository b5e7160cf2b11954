package docker

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// ExitEngineError is the code docker run reports when the engine itself
// failed to create or start the container.
const ExitEngineError = 125

// Docker runs commands inside containers loaded from OCI image tarballs
type Docker struct {
	// Path to docker binary (default: "docker")
	dockerPath string

	// Runtime used to spawn the docker CLI
	rt runtime.Runtime
}

// RunOptions configures how to run the container
type RunOptions struct {
	// Path to the OCI image tarball
	ImagePath string

	// Command and arguments run inside the container
	Command []string

	// Names of host environment variables forwarded into the container
	EnvNames []string

	// Stdin/stdout/stderr (optional, defaults to os.Std*)
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a new Docker runtime that spawns the docker CLI through rt
func New(rt runtime.Runtime) *Docker {
	return &Docker{
		dockerPath: "docker",
		rt:         rt,
	}
}

// Run loads the image and runs the command in a throwaway container with
// stdin kept open. It returns the docker CLI's exit status.
func (d *Docker) Run(ctx context.Context, opts RunOptions) (*runtime.Result, error) {
	log := clog.FromContext(ctx)

	// Load the image from tarball
	imageID, err := d.loadImage(ctx, opts.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}
	log.Debug("loaded image", "id", imageID)

	args := d.buildRunArgs(opts, imageID)

	log.Debug("running container", "args", args)
	return d.rt.Run(ctx, runtime.RunOptions{
		Path:   d.dockerPath,
		Args:   args,
		Stdin:  opts.Stdin,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
}

// loadImage loads an OCI tarball and returns the image ID
func (d *Docker) loadImage(ctx context.Context, tarPath string) (string, error) {
	log := clog.FromContext(ctx)

	// docker load -i <tarball>
	cmd := exec.CommandContext(ctx, d.dockerPath, "load", "-i", tarPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("docker load failed: %w, output: %s", err, string(output))
	}

	outputStr := string(output)
	log.Debug("docker load output", "output", outputStr)
	return parseLoadOutput(outputStr)
}

// parseLoadOutput extracts the image reference from docker load output.
// Output format: "Loaded image: <name:tag>" or "Loaded image ID: sha256:..."
func parseLoadOutput(out string) (string, error) {
	for _, prefix := range []string{"Loaded image: ", "Loaded image ID: "} {
		idx := strings.Index(out, prefix)
		if idx < 0 {
			continue
		}
		ref := strings.TrimSpace(out[idx+len(prefix):])
		if nlIdx := strings.IndexAny(ref, "\n\r"); nlIdx >= 0 {
			ref = ref[:nlIdx]
		}
		return ref, nil
	}

	return "", fmt.Errorf("could not parse image reference from docker load output: %s", out)
}

// buildRunArgs builds the docker run arguments
func (d *Docker) buildRunArgs(opts RunOptions, imageID string) []string {
	// No TTY: the server speaks a line protocol over stdio
	args := []string{"run", "--rm", "-i"}

	// Forward by name so values never appear on the command line
	for _, name := range opts.EnvNames {
		args = append(args, "-e", name)
	}

	args = append(args, imageID)
	args = append(args, opts.Command...)

	return args
}

// Available checks if a docker engine answers
func (d *Docker) Available(ctx context.Context) bool {
	path, err := d.rt.LookPath(d.dockerPath)
	if err != nil {
		return false
	}
	res, err := d.rt.Run(ctx, runtime.RunOptions{
		Path:  path,
		Args:  []string{"version", "--format", "json"},
		Quiet: true,
	})
	return err == nil && res.Success()
}

// String returns the runtime name
func (d *Docker) String() string {
	return "docker"
}

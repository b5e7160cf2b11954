package builder

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"chainguard.dev/apko/pkg/apk/apk"
	"chainguard.dev/apko/pkg/build"
	"chainguard.dev/apko/pkg/build/oci"
	"chainguard.dev/apko/pkg/build/types"
	"chainguard.dev/apko/pkg/tarfs"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
)

// Wolfi is the default package source for server images.
var (
	WolfiRepository = "https://packages.wolfi.dev/os"
	WolfiKeyring    = "https://packages.wolfi.dev/os/wolfi-signing.rsa.pub"
)

// ImageSpec describes the APK contents of a server image
type ImageSpec struct {
	Packages     []string
	Repositories []string
	Keyring      []string
}

// Configuration converts the spec to an apko image configuration, filling in
// Wolfi as the package source when none is given.
func (s ImageSpec) Configuration() *types.ImageConfiguration {
	repos := s.Repositories
	keyring := s.Keyring
	if len(repos) == 0 {
		repos = []string{WolfiRepository}
		if len(keyring) == 0 {
			keyring = []string{WolfiKeyring}
		}
	}

	return &types.ImageConfiguration{
		Contents: types.ImageContents{
			RuntimeRepositories: repos,
			Keyring:             keyring,
			Packages:            s.Packages,
		},
	}
}

// Builder builds OCI images from image specs
type Builder struct {
	cacheDir string
	tmpDir   string
}

// New creates a new Builder. APK downloads are cached under cacheDir.
func New(cacheDir, tmpDir string) *Builder {
	return &Builder{
		cacheDir: cacheDir,
		tmpDir:   tmpDir,
	}
}

// Build builds an OCI image for the host architecture and returns the path to the tarball
func (b *Builder) Build(ctx context.Context, spec ImageSpec, tag string) (string, error) {
	log := clog.FromContext(ctx)

	if len(spec.Packages) == 0 {
		return "", fmt.Errorf("image spec has no packages")
	}

	arch := types.ParseArchitecture(runtime.GOARCH)
	config := spec.Configuration()

	opts := []build.Option{
		build.WithImageConfiguration(*config),
		build.WithArch(arch),
		build.WithCache(b.cacheDir, false, apk.NewCache(true)),
		build.WithTempDir(b.tmpDir),
	}

	bc, err := build.New(ctx, tarfs.New(), opts...)
	if err != nil {
		return "", fmt.Errorf("creating build context: %w", err)
	}

	log.Info("resolving image packages", "packages", spec.Packages)
	if err := bc.BuildImage(ctx); err != nil {
		return "", fmt.Errorf("building image: %w", err)
	}

	layers, err := bc.BuildLayers(ctx)
	if err != nil {
		return "", fmt.Errorf("building layers: %w", err)
	}

	img, err := oci.BuildImageFromLayers(
		ctx,
		empty.Image,
		layers,
		bc.ImageConfiguration(),
		time.Now(),
		arch,
	)
	if err != nil {
		return "", fmt.Errorf("building image from layers: %w", err)
	}

	outputPath := filepath.Join(b.tmpDir, fmt.Sprintf("finedata-mcp-%d.tar", time.Now().UnixNano()))

	log.Debug("writing image to tarball", "path", outputPath)
	if err := writeImageTarball(img, tag, outputPath); err != nil {
		return "", fmt.Errorf("writing tarball: %w", err)
	}

	return outputPath, nil
}

// writeImageTarball writes an OCI image to a tarball file
func writeImageTarball(img v1.Image, tag, outputPath string) error {
	ref, err := name.NewTag(tag)
	if err != nil {
		return fmt.Errorf("parsing tag %q: %w", tag, err)
	}

	return tarball.WriteToFile(outputPath, ref, img)
}

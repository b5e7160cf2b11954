package launcher

import (
	"fmt"

	"github.com/finedata-ai/finedata-mcp-launcher/internal/builder"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/config"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/manifest"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
)

// Deps are the collaborators strategies are built with
type Deps struct {
	Runtime runtime.Runtime
	Streams Streams

	// Needed only when the container strategy is in the order
	Builder ImageBuilder
	Engine  ContainerEngine

	// BinDirs for the managed strategy (default: PipxBinDirs())
	BinDirs []string
}

// ContainerTool is the tool runner shipped in the server image by the uv package.
const ContainerTool = "uvx"

// ForwardedEnv names the variables passed into containers.
var ForwardedEnv = []string{config.EnvAPIKey, config.EnvAPIURL, config.EnvTimeout}

// Strategies builds the strategy chain described by m, in order
func Strategies(m *manifest.Manifest, deps Deps) ([]Strategy, error) {
	var out []Strategy
	for _, name := range m.Order() {
		switch name {
		case manifest.StrategyIsolated:
			out = append(out, &Isolated{
				Tool:    m.Tools.Isolated,
				Package: m.Package,
				Runtime: deps.Runtime,
				Streams: deps.Streams,
			})
		case manifest.StrategyManaged:
			binDirs := deps.BinDirs
			if binDirs == nil {
				binDirs = PipxBinDirs()
			}
			out = append(out, &Managed{
				Tool:       m.Tools.Managed,
				Package:    m.Package,
				Executable: m.Executable,
				ExitPolicy: m.ManagedExit,
				BinDirs:    binDirs,
				Runtime:    deps.Runtime,
				Streams:    deps.Streams,
			})
		case manifest.StrategyInterpreter:
			out = append(out, &Interpreter{
				Candidates: m.Interpreters,
				Package:    m.Package,
				Module:     m.Module,
				Runtime:    deps.Runtime,
				Streams:    deps.Streams,
			})
		case manifest.StrategyContainer:
			if deps.Builder == nil || deps.Engine == nil {
				return nil, fmt.Errorf("container strategy requires an image builder and a container engine")
			}
			out = append(out, &Container{
				Tool:    ContainerTool,
				Package: m.Package,
				Image: builder.ImageSpec{
					Packages:     m.Container.Packages,
					Repositories: m.Container.Repositories,
					Keyring:      m.Container.Keyring,
				},
				EnvNames: ForwardedEnv,
				Builder:  deps.Builder,
				Engine:   deps.Engine,
				Streams:  deps.Streams,
			})
		default:
			return nil, fmt.Errorf("unknown strategy %q", name)
		}
	}
	return out, nil
}

// NewRemediation returns the exhaustion guidance for m
func NewRemediation(m *manifest.Manifest) *Remediation {
	return &Remediation{
		Package:    m.Package,
		Tool:       m.Tools.Isolated,
		ServerName: "finedata",
	}
}

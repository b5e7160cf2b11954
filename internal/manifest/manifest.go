// Package manifest describes what the launcher starts and which strategies it
// may use to start it. Every field has a default, so the manifest file is optional.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Strategy names, in their default order.
const (
	StrategyIsolated    = "isolated-runtime"
	StrategyManaged     = "managed-install"
	StrategyInterpreter = "direct-interpreter"
	StrategyContainer   = "container"
)

// Managed exit policies decide what a non-zero exit of the managed runner means.
const (
	// ManagedExitInstall treats a non-zero exit as "not resolvable yet" and
	// falls back to an explicit install followed by a direct launch.
	ManagedExitInstall = "install"

	// ManagedExitTerminal propagates the exit code like every other strategy.
	ManagedExitTerminal = "terminal"
)

// KnownStrategies lists every strategy the launcher can build.
var KnownStrategies = []string{StrategyIsolated, StrategyManaged, StrategyInterpreter, StrategyContainer}

// Manifest represents the launcher configuration
type Manifest struct {
	// Package name as published on the package index
	Package string `yaml:"package"`

	// Importable module name, run with "-m"
	Module string `yaml:"module"`

	// Executable installed by the package
	Executable string `yaml:"executable"`

	Tools Tools `yaml:"tools"`

	// Interpreter names tried in order by the direct-interpreter strategy
	Interpreters []string `yaml:"interpreters"`

	// Strategy order
	Strategies []string `yaml:"strategies"`

	ManagedExit string `yaml:"managed_exit"`

	Container Container `yaml:"container"`
}

// Tools names the external runners
type Tools struct {
	Isolated string `yaml:"isolated"`
	Managed  string `yaml:"managed"`
}

// Container configures the opt-in container strategy
type Container struct {
	Enabled      bool     `yaml:"enabled"`
	Packages     []string `yaml:"packages"`
	Repositories []string `yaml:"repositories"`
	Keyring      []string `yaml:"keyring"`
}

// Default returns the manifest for the FineData MCP server
func Default() *Manifest {
	return &Manifest{
		Package:    "finedata-mcp",
		Module:     "finedata_mcp",
		Executable: "finedata-mcp",
		Tools: Tools{
			Isolated: "uvx",
			Managed:  "pipx",
		},
		Interpreters: []string{"python3", "python", "py"},
		Strategies:   []string{StrategyIsolated, StrategyManaged, StrategyInterpreter},
		ManagedExit:  ManagedExitInstall,
		Container: Container{
			Packages: []string{"python-3.12", "uv", "ca-certificates-bundle"},
		},
	}
}

// Parse reads a YAML manifest on top of the defaults. An empty document yields the defaults.
func Parse(r io.Reader) (*Manifest, error) {
	m := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load parses the manifest at path
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Validate checks that the manifest can produce a strategy chain
func (m *Manifest) Validate() error {
	var errs []error

	if m.Package == "" {
		errs = append(errs, errors.New("package is required"))
	}
	if m.Module == "" {
		errs = append(errs, errors.New("module is required"))
	}
	if m.Executable == "" {
		errs = append(errs, errors.New("executable is required"))
	}
	if len(m.Strategies) == 0 {
		errs = append(errs, errors.New("at least one strategy is required"))
	}

	seen := map[string]bool{}
	for _, s := range m.Strategies {
		if !slices.Contains(KnownStrategies, s) {
			errs = append(errs, fmt.Errorf("unknown strategy %q", s))
			continue
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("strategy %q listed twice", s))
		}
		seen[s] = true
	}

	switch m.ManagedExit {
	case ManagedExitInstall, ManagedExitTerminal:
	default:
		errs = append(errs, fmt.Errorf("managed_exit must be %q or %q, got %q", ManagedExitInstall, ManagedExitTerminal, m.ManagedExit))
	}

	if seen[StrategyIsolated] && m.Tools.Isolated == "" {
		errs = append(errs, errors.New("tools.isolated is required by the isolated-runtime strategy"))
	}
	if seen[StrategyManaged] && m.Tools.Managed == "" {
		errs = append(errs, errors.New("tools.managed is required by the managed-install strategy"))
	}
	if seen[StrategyInterpreter] && len(m.Interpreters) == 0 {
		errs = append(errs, errors.New("interpreters are required by the direct-interpreter strategy"))
	}
	if (seen[StrategyContainer] || m.Container.Enabled) && len(m.Container.Packages) == 0 {
		errs = append(errs, errors.New("container.packages are required by the container strategy"))
	}

	return errors.Join(errs...)
}

// Order returns the strategies to run. An enabled container strategy that is
// not listed explicitly runs last.
func (m *Manifest) Order() []string {
	order := slices.Clone(m.Strategies)
	if m.Container.Enabled && !slices.Contains(order, StrategyContainer) {
		order = append(order, StrategyContainer)
	}
	return order
}

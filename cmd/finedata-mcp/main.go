package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/chainguard-dev/clog"
	"github.com/chainguard-dev/clog/slag"
	charmlog "github.com/charmbracelet/log"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/builder"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/config"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/launcher"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/manifest"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime/docker"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime/host"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "0.1.6"

type options struct {
	logLevel slag.Level

	manifestPath string
	strategies   []string
	container    bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// rt spawns every process; tests replace it
	rt runtime.Runtime
}

// exitError carries the launcher's exit code out of cobra
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// setupLogging configures logging for the command. Logs always go to stderr;
// stdout belongs to the server.
func (o *options) setupLogging(ctx context.Context) context.Context {
	l := charmlog.NewWithOptions(o.stderr, charmlog.Options{
		Level:           charmlog.Level(o.logLevel),
		ReportTimestamp: true,
		Prefix:          "finedata-mcp",
	})
	if f, ok := o.stderr.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		l.SetFormatter(charmlog.LogfmtFormatter)
	}
	ctx = clog.WithLogger(ctx, clog.New(l))
	slog.SetDefault(slog.New(l))
	return ctx
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the launcher and returns the process exit code
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return execute(ctx, &options{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		rt:     host.New(),
	}, args)
}

// execute runs the root command with opts and maps its result to an exit code
func execute(ctx context.Context, opts *options, args []string) int {
	err := newRootCmd(ctx, opts, args).ExecuteContext(ctx)
	var exitErr *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.code
	default:
		fmt.Fprintf(opts.stderr, "error: %v\n", err)
		return 1
	}
}

func newRootCmd(ctx context.Context, opts *options, args []string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "finedata-mcp",
		Short:         "Locate, install if needed, and run the FineData MCP server",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx = opts.setupLogging(ctx)
			cmd.SetContext(ctx)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := opts.run(cmd.Context()); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}

	// Everything cobra prints (help, version, usage) stays off stdout
	rootCmd.SetOut(opts.stderr)
	rootCmd.SetErr(opts.stderr)
	rootCmd.SetIn(opts.stdin)
	rootCmd.SetArgs(args)

	rootCmd.PersistentFlags().Var(&opts.logLevel, "log-level", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&opts.manifestPath, "manifest", "", "launcher manifest (YAML)")
	rootCmd.Flags().StringSliceVar(&opts.strategies, "strategy", nil, "strategies to try, in order (isolated-runtime, managed-install, direct-interpreter, container)")
	rootCmd.Flags().BoolVar(&opts.container, "container", false, "also try running the server in a container")

	return rootCmd
}

func (o *options) run(ctx context.Context) int {
	log := clog.FromContext(ctx)

	// The credential gate runs before any strategy exists.
	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(o.stderr, "Error: %s environment variable is required.\n", cfgErr.Variable)
			fmt.Fprintf(o.stderr, "Get your API key at %s and set it in your MCP client configuration.\n", config.SignupURL)
		} else {
			fmt.Fprintf(o.stderr, "Error: %v\n", err)
		}
		return 1
	}
	log.Info("configuration loaded", "api_url", cfg.APIURL, "api_key", cfg.MaskedKey())
	if cfg.RawTimeout != "" && !cfg.TimeoutValid() {
		log.Warn("timeout is not a positive number of seconds, passing it through unchanged", "env", config.EnvTimeout, "value", cfg.RawTimeout)
	}

	m, err := o.loadManifest()
	if err != nil {
		fmt.Fprintf(o.stderr, "Error: %v\n", err)
		return 1
	}
	log.Debug("launch order", "strategies", m.Order(), "runtime", o.rt)

	deps := launcher.Deps{
		Runtime: o.rt,
		Streams: launcher.Streams{Stdin: o.stdin, Stdout: o.stdout, Stderr: o.stderr},
	}
	if slices.Contains(m.Order(), manifest.StrategyContainer) {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			fmt.Fprintf(o.stderr, "Error: getting cache dir: %v\n", err)
			return 1
		}
		deps.Builder = builder.New(filepath.Join(cacheDir, "finedata-mcp-launcher"), os.TempDir())
		deps.Engine = docker.New(o.rt)
	}

	strategies, err := launcher.Strategies(m, deps)
	if err != nil {
		fmt.Fprintf(o.stderr, "Error: %v\n", err)
		return 1
	}

	chain := &launcher.Chain{
		Strategies:  strategies,
		Remediation: launcher.NewRemediation(m),
		Stderr:      o.stderr,
	}
	outcome := chain.Run(ctx)
	log.Debug("launcher finished", "state", outcome.State, "strategy", outcome.Strategy, "code", outcome.ExitCode())
	return outcome.ExitCode()
}

// loadManifest reads the manifest file, if any, and applies flag overrides
func (o *options) loadManifest() (*manifest.Manifest, error) {
	m := manifest.Default()
	if o.manifestPath != "" {
		var err error
		if m, err = manifest.Load(o.manifestPath); err != nil {
			return nil, err
		}
	}

	if len(o.strategies) > 0 {
		m.Strategies = o.strategies
	}
	if o.container {
		m.Container.Enabled = true
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid launcher configuration: %w", err)
	}
	return m, nil
}

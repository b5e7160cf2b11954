package launcher

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/config"
)

// Installer commands suggested when nothing could start the server.
const (
	UVInstallUnix    = "curl -LsSf https://astral.sh/uv/install.sh | sh"
	UVInstallWindows = `powershell -ExecutionPolicy ByPass -c "irm https://astral.sh/uv/install.ps1 | iex"`
)

// Remediation renders the guidance printed when the chain is exhausted
type Remediation struct {
	// Package to install
	Package string

	// Isolated tool runner used in the client configuration block
	Tool string

	// ServerName is the key under mcpServers in the client configuration
	ServerName string
}

type clientConfig struct {
	MCPServers map[string]serverEntry `json:"mcpServers"`
}

type serverEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

// ClientConfig returns the MCP client block that runs the tool runner
// directly, bypassing the launcher.
func (r *Remediation) ClientConfig() (string, error) {
	cfg := clientConfig{
		MCPServers: map[string]serverEntry{
			r.ServerName: {
				Command: r.Tool,
				Args:    []string{r.Package},
				Env:     map[string]string{config.EnvAPIKey: "your-api-key"},
			},
		},
	}
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding client config: %w", err)
	}
	return string(b), nil
}

// Write renders the guidance to w. Styling is applied only when w is a terminal.
func (r *Remediation) Write(w io.Writer, attempts []Attempt) error {
	re := lipgloss.NewRenderer(w)
	title := re.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	heading := re.NewStyle().Bold(true)
	code := re.NewStyle().Foreground(lipgloss.Color("6"))
	faint := re.NewStyle().Faint(true)

	block, err := r.ClientConfig()
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, title.Render(fmt.Sprintf("Could not start the %s MCP server.", r.Package)))

	if len(attempts) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, heading.Render("Tried:"))
		for _, a := range attempts {
			fmt.Fprintf(&b, "  %-20s %s\n", a.Strategy, faint.Render(describe(a.Outcome)))
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heading.Render("Install one of the following, then restart your MCP client:"))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heading.Render("Option 1: uv (recommended)"))
	fmt.Fprintf(&b, "  macOS/Linux: %s\n", code.Render(UVInstallUnix))
	fmt.Fprintf(&b, "  Windows:     %s\n", code.Render(UVInstallWindows))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heading.Render("Option 2: Python 3.10+ with pip"))
	fmt.Fprintf(&b, "  %s\n", code.Render("pip install --user "+r.Package))
	fmt.Fprintf(&b, "  or: %s\n", code.Render("pipx install "+r.Package))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, heading.Render(fmt.Sprintf("To bypass this launcher, configure your MCP client to run %s directly:", r.Tool)))
	for _, line := range strings.Split(block, "\n") {
		fmt.Fprintln(&b, code.Render(line))
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Get your API key at %s\n", config.SignupURL)

	_, err = io.WriteString(w, b.String())
	return err
}

func describe(o Outcome) string {
	switch {
	case o.Kind == KindNotViable && o.Err == nil:
		return "not available"
	case o.Err != nil:
		return fmt.Sprintf("%s: %v", o.Kind, o.Err)
	default:
		return o.Kind.String()
	}
}

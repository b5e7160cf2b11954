package docker

import (
	"context"
	"reflect"
	"testing"

	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime"
	"github.com/finedata-ai/finedata-mcp-launcher/internal/runtime/host"
)

func TestParseLoadOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{
			name:   "tagged image",
			output: "Loaded image: finedata-mcp:latest\n",
			want:   "finedata-mcp:latest",
		},
		{
			name:   "image id",
			output: "Loaded image ID: sha256:abc123\r\n",
			want:   "sha256:abc123",
		},
		{
			name:   "progress before reference",
			output: "Loading layer  1.2MB/1.2MB\nLoaded image: finedata-mcp:latest\n",
			want:   "finedata-mcp:latest",
		},
		{
			name:    "unrecognised output",
			output:  "something else",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLoadOutput(tt.output)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLoadOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseLoadOutput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRunArgs(t *testing.T) {
	d := New(host.New())
	opts := RunOptions{
		Command:  []string{"uvx", "finedata-mcp"},
		EnvNames: []string{"FINEDATA_API_KEY", "FINEDATA_API_URL"},
	}

	got := d.buildRunArgs(opts, "finedata-mcp:latest")
	want := []string{
		"run", "--rm", "-i",
		"-e", "FINEDATA_API_KEY",
		"-e", "FINEDATA_API_URL",
		"finedata-mcp:latest",
		"uvx", "finedata-mcp",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildRunArgs() = %v, want %v", got, want)
	}
}

type missingRuntime struct{}

func (missingRuntime) LookPath(name string) (string, error) { return "", runtime.ErrNotFound }

func (missingRuntime) Run(context.Context, runtime.RunOptions) (*runtime.Result, error) {
	panic("Run must not be called when docker is not on the path")
}

func TestAvailableWithoutDocker(t *testing.T) {
	if New(missingRuntime{}).Available(context.Background()) {
		t.Error("Available() = true, want false without a docker binary")
	}
}

func TestDockerAvailableProbe(t *testing.T) {
	d := New(host.New())
	if !d.Available(context.Background()) {
		t.Skip("Docker not available")
	}
	t.Logf("docker engine reachable via %s", d)
}

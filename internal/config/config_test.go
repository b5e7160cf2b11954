package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		wantURL     string
		wantTimeout time.Duration
	}{
		{
			name:    "missing credential",
			env:     map[string]string{EnvAPIKey: ""},
			wantErr: true,
		},
		{
			name:    "blank credential",
			env:     map[string]string{EnvAPIKey: "   "},
			wantErr: true,
		},
		{
			name:        "defaults",
			env:         map[string]string{EnvAPIKey: "fd_test_key"},
			wantURL:     DefaultAPIURL,
			wantTimeout: DefaultTimeout,
		},
		{
			name: "overrides",
			env: map[string]string{
				EnvAPIKey:  "fd_test_key",
				EnvAPIURL:  "https://staging.finedata.ai",
				EnvTimeout: "30",
			},
			wantURL:     "https://staging.finedata.ai",
			wantTimeout: 30 * time.Second,
		},
		{
			name: "huge timeout is clamped, not wrapped",
			env: map[string]string{
				EnvAPIKey:  "fd_test_key",
				EnvTimeout: "99999999999",
			},
			wantURL:     DefaultAPIURL,
			wantTimeout: time.Duration(maxTimeoutSeconds) * time.Second,
		},
		{
			name: "non numeric timeout is kept but flagged",
			env: map[string]string{
				EnvAPIKey:  "fd_test_key",
				EnvTimeout: "soon",
			},
			wantURL: DefaultAPIURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvAPIKey, "")
			t.Setenv(EnvAPIURL, "")
			t.Setenv(EnvTimeout, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("Load() error = %T, want *ConfigurationError", err)
				}
				if !strings.Contains(err.Error(), EnvAPIKey) {
					t.Errorf("Load() error = %q, want it to name %s", err, EnvAPIKey)
				}
				return
			}

			if cfg.APIURL != tt.wantURL {
				t.Errorf("APIURL = %q, want %q", cfg.APIURL, tt.wantURL)
			}
			if cfg.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout, tt.wantTimeout)
			}
			if cfg.TimeoutValid() != (tt.wantTimeout > 0) {
				t.Errorf("TimeoutValid() = %v", cfg.TimeoutValid())
			}
		})
	}
}

func TestMaskedKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "fd_live_abcdef1234", want: "****1234"},
		{key: "abcd", want: "***"},
		{key: "a", want: "***"},
	}

	for _, tt := range tests {
		c := &Config{APIKey: tt.key}
		if got := c.MaskedKey(); got != tt.want {
			t.Errorf("MaskedKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

// Package config reads the FineData settings the launched server depends on.
//
// The launcher only needs the credential to be present. The endpoint and
// timeout are read so they can be reported, but the environment is always
// forwarded to the server unchanged.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names.
const (
	EnvAPIKey  = "FINEDATA_API_KEY"
	EnvAPIURL  = "FINEDATA_API_URL"
	EnvTimeout = "FINEDATA_TIMEOUT"
)

// Defaults applied by the server when the optional variables are unset.
const (
	DefaultAPIURL  = "https://api.finedata.ai"
	DefaultTimeout = 180 * time.Second
)

// maxTimeoutSeconds is the largest timeout representable as a time.Duration.
const maxTimeoutSeconds = int64(math.MaxInt64 / int64(time.Second))

// SignupURL is where users obtain an API key.
const SignupURL = "https://finedata.ai"

// Config holds the values read from the environment
type Config struct {
	APIKey string
	APIURL string

	// Timeout is the server's request timeout. Zero when the override is not a positive integer.
	Timeout time.Duration

	// RawTimeout is the override exactly as set, empty when unset
	RawTimeout string
}

// ConfigurationError reports a missing or unusable required setting.
type ConfigurationError struct {
	Variable string
	Message  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Variable, e.Message)
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINEDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"api_key", "api_url", "timeout"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}
	v.SetDefault("api_url", DefaultAPIURL)

	cfg := &Config{
		APIKey:     strings.TrimSpace(v.GetString("api_key")),
		APIURL:     v.GetString("api_url"),
		RawTimeout: v.GetString("timeout"),
		Timeout:    DefaultTimeout,
	}

	if cfg.APIKey == "" {
		return nil, &ConfigurationError{
			Variable: EnvAPIKey,
			Message:  fmt.Sprintf("environment variable is required. Get your API key at %s", SignupURL),
		}
	}

	if cfg.RawTimeout != "" {
		secs, err := strconv.ParseInt(strings.TrimSpace(cfg.RawTimeout), 10, 64)
		switch {
		case err != nil || secs <= 0:
			cfg.Timeout = 0
		case secs > maxTimeoutSeconds:
			cfg.Timeout = time.Duration(maxTimeoutSeconds) * time.Second
		default:
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}

	return cfg, nil
}

// TimeoutValid reports whether the timeout override, if set, is a positive integer
func (c *Config) TimeoutValid() bool {
	return c.Timeout > 0
}

// MaskedKey returns the credential with all but the last four characters hidden
func (c *Config) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return "***"
	}
	return "****" + c.APIKey[len(c.APIKey)-4:]
}

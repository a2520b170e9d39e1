// Package config loads runtime configuration for the deepcheck CLI.
//
// Sources, later ones winning:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. DEEPCHECK_SERVER_URL and DEEPCHECK_TIMEOUT environment variables.
//  4. Command-line flags -a (server URL) and -t (request timeout).
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/deepcheck/internal/flagx"
	"github.com/dmitrijs2005/deepcheck/internal/timex"
)

// Config holds runtime settings for the CLI.
type Config struct {
	ServerURL string
	Timeout   time.Duration
}

// JsonConfig is the on-disk shape of the optional JSON file.
type JsonConfig struct {
	ServerURL string         `json:"server_url"`
	Timeout   timex.Duration `json:"timeout"`
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.Timeout = 60 * time.Second
}

// LoadConfig builds a Config from defaults, JSON, environment and flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.JSONConfigPath(args); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		var jc JsonConfig
		if err := json.Unmarshal(b, &jc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if jc.ServerURL != "" {
			cfg.ServerURL = jc.ServerURL
		}
		if jc.Timeout.Duration > 0 {
			cfg.Timeout = jc.Timeout.Duration
		}
	}

	if v, ok := lookup("DEEPCHECK_SERVER_URL"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookup("DEEPCHECK_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DEEPCHECK_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}

	fs := flag.NewFlagSet("deepcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the deepcheck server")
	fs.DurationVar(&cfg.Timeout, "t", cfg.Timeout, "request timeout")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-a", "-t"})); err != nil {
		return nil, err
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}
	return cfg, nil
}

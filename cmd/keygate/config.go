// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keygate Contributors

package main

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// serveConfig holds the serve command configuration. Values come from the
// optional YAML config file, overridden by command-line flags; secrets come
// from the environment only.
type serveConfig struct {
	ListenAddr      string   `koanf:"listen-addr"`
	MetricsAddr     string   `koanf:"metrics-addr"`
	LogFormat       string   `koanf:"log-format"`
	FrontendBaseURL string   `koanf:"frontend-base-url"`
	CORSOrigins     []string `koanf:"cors-origins"`
	SMTPHost        string   `koanf:"smtp-host"`
	SMTPPort        int      `koanf:"smtp-port"`
	SMTPUsername    string   `koanf:"smtp-username"`
	SMTPFrom        string   `koanf:"smtp-from"`

	// Secrets, never read from file or flags.
	DatabaseURL  string `koanf:"-"`
	JWTSecret    string `koanf:"-"`
	SMTPPassword string `koanf:"-"`
}

// Environment variable names for secrets.
const (
	envDatabaseURL  = "DATABASE_URL"
	envJWTSecret    = "KEYGATE_JWT_SECRET"
	envSMTPPassword = "KEYGATE_SMTP_PASSWORD"
)

// loadServeConfig merges the config file (if given) and flags, then pulls
// secrets from the environment.
func loadServeConfig(configPath string, flags *pflag.FlagSet) (*serveConfig, error) {
	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", configPath).
				Wrap(err)
		}
	}

	// Flags override the file; unchanged flags contribute their defaults.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "merge flags").
			Wrap(err)
	}

	cfg := &serveConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	cfg.DatabaseURL = os.Getenv(envDatabaseURL)
	cfg.JWTSecret = os.Getenv(envJWTSecret)
	cfg.SMTPPassword = os.Getenv(envSMTPPassword)

	return cfg, nil
}

// Validate checks that everything the serve command needs is present.
func (c *serveConfig) Validate() error {
	if c.ListenAddr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("listen address is required")
	}
	if c.FrontendBaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("frontend base url is required")
	}
	if c.SMTPHost == "" {
		return oops.Code("CONFIG_INVALID").Errorf("smtp host is required")
	}
	if c.SMTPFrom == "" {
		return oops.Code("CONFIG_INVALID").Errorf("smtp from address is required")
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", envDatabaseURL)
	}
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("%s environment variable is required", envJWTSecret)
	}
	return nil
}

// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for airlift commands.
//
// Configuration is loaded from a single YAML file specified by:
//   - the AIRLIFT_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery, and environment
// variables never override file values. Every command loads the file
// once and passes the resulting Config into each component at
// construction — there is no process-wide implicit configuration
// state. The only expansion performed is ${VAR} substitution in path
// fields for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for airlift.
type Config struct {
	// Server configures the Deployment Backend connection.
	Server ServerConfig `yaml:"server"`

	// Project configures the local project layout.
	Project ProjectConfig `yaml:"project"`

	// Build configures the agent build step.
	Build BuildConfig `yaml:"build"`

	// Git configures the working-tree check that gates deployments.
	Git GitConfig `yaml:"git"`
}

// ServerConfig configures the Deployment Backend connection.
type ServerConfig struct {
	// URL is the base URL of the Deployment Backend
	// (e.g., "https://deploy.example.com").
	URL string `yaml:"url"`

	// AuthToken is the bearer token sent with every request.
	AuthToken string `yaml:"auth_token"`

	// UploadTimeout is the fixed upper bound on the upload request,
	// as a Go duration string. Default: 120s. There is no retry —
	// exceeding the bound surfaces as a transport error.
	UploadTimeout string `yaml:"upload_timeout"`
}

// ProjectConfig configures the local project layout. All paths are
// relative to the project root (the --project flag).
type ProjectConfig struct {
	// Name is the project component of the composite agent key
	// "<project>/<name>". Defaults to the base name of the project
	// root directory when empty.
	Name string `yaml:"name"`

	// AgentsDir is the directory containing per-agent source
	// directories. Default: agents
	AgentsDir string `yaml:"agents_dir"`

	// OutputDir is where the build step writes compiled bundles.
	// Default: .airlift/build
	OutputDir string `yaml:"output_dir"`

	// DependencyManifest is the project-level dependency manifest
	// (name -> version map). Read best-effort when assembling upload
	// metadata. Default: package.json
	DependencyManifest string `yaml:"dependency_manifest"`

	// HistoryFile is the local deployment journal. Default:
	// .airlift/history.cbor
	HistoryFile string `yaml:"history_file"`
}

// BuildConfig configures the agent build step.
type BuildConfig struct {
	// Command is the build command invoked per agent. Each argument
	// may contain the {agent} placeholder, replaced with the agent
	// name (e.g., ["npm", "run", "bundle", "--", "--agent", "{agent}"]).
	Command []string `yaml:"command"`

	// ArtifactExt is the file extension of the compiled bundle in
	// OutputDir. Default: .bundle
	ArtifactExt string `yaml:"artifact_ext"`
}

// GitConfig configures the working-tree check.
type GitConfig struct {
	// Policy is the default policy when --git-policy is not passed:
	// strict, warn, auto-commit, or ignore. Default: strict
	Policy string `yaml:"policy"`
}

// Default returns the default configuration. These defaults are the
// base before loading the config file; the server URL has no default
// and must come from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UploadTimeout: "120s",
		},
		Project: ProjectConfig{
			AgentsDir:          "agents",
			OutputDir:          ".airlift/build",
			DependencyManifest: "package.json",
			HistoryFile:        ".airlift/history.cbor",
		},
		Build: BuildConfig{
			ArtifactExt: ".bundle",
		},
		Git: GitConfig{
			Policy: "strict",
		},
	}
}

// Load loads configuration from the AIRLIFT_CONFIG environment variable.
// There is no fallback — if AIRLIFT_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("AIRLIFT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("AIRLIFT_CONFIG environment variable not set; " +
			"set it to the path of your airlift.yaml config file, or use the --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults and expanding ${VAR} patterns in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// Timeout parses the configured upload timeout, falling back to
// the 120s default when the field is empty or malformed.
func (s ServerConfig) Timeout() time.Duration {
	if s.UploadTimeout == "" {
		return 120 * time.Second
	}
	parsed, err := time.ParseDuration(s.UploadTimeout)
	if err != nil || parsed <= 0 {
		return 120 * time.Second
	}
	return parsed
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.URL == "" {
		errs = append(errs, fmt.Errorf("server.url is required"))
	}
	if len(c.Build.Command) == 0 {
		errs = append(errs, fmt.Errorf("build.command is required"))
	}
	if c.Project.AgentsDir == "" {
		errs = append(errs, fmt.Errorf("project.agents_dir is required"))
	}
	if c.Project.OutputDir == "" {
		errs = append(errs, fmt.Errorf("project.output_dir is required"))
	}
	switch c.Git.Policy {
	case "strict", "warn", "auto-commit", "ignore":
	default:
		errs = append(errs, fmt.Errorf("git.policy must be one of: strict, warn, auto-commit, ignore"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	c.Project.AgentsDir = expandVars(c.Project.AgentsDir)
	c.Project.OutputDir = expandVars(c.Project.OutputDir)
	c.Project.DependencyManifest = expandVars(c.Project.DependencyManifest)
	c.Project.HistoryFile = expandVars(c.Project.HistoryFile)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

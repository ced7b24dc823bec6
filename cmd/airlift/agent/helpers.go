// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/airlift-dev/airlift/lib/config"
	"github.com/airlift-dev/airlift/lib/deploy"
)

// commonParams are the flags every agent subcommand shares.
type commonParams struct {
	Config  string `flag:"config" desc:"path to airlift.yaml (default: $AIRLIFT_CONFIG)"`
	Project string `flag:"project" desc:"project root directory" default:"."`
}

// loadConfig loads and validates the configuration, from the --config
// flag when given, otherwise from AIRLIFT_CONFIG.
func loadConfig(params commonParams) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if params.Config != "" {
		cfg, err = config.LoadFile(params.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// projectName resolves the project component of the composite agent
// key: the configured name, or the base name of the project root.
func projectName(cfg *config.Config, projectDir string) string {
	if cfg.Project.Name != "" {
		return cfg.Project.Name
	}
	absolute, err := filepath.Abs(projectDir)
	if err != nil {
		return filepath.Base(projectDir)
	}
	return filepath.Base(absolute)
}

// newBackendClient constructs the Deployment Backend client from
// configuration.
func newBackendClient(cfg *config.Config, logger *slog.Logger) (*deploy.Client, error) {
	return deploy.NewClient(deploy.ClientConfig{
		BaseURL:       cfg.Server.URL,
		AuthToken:     cfg.Server.AuthToken,
		Logger:        logger,
		UploadTimeout: cfg.Server.Timeout(),
	})
}

// resolveAgent looks up the backend record for a local agent name.
func resolveAgent(ctx context.Context, client *deploy.Client, cfg *config.Config, projectDir, name string) (*deploy.Agent, error) {
	return client.FindAgent(ctx, projectName(cfg, projectDir)+"/"+name)
}

// formatSize formats a byte count for display, using KB/MB suffixes
// for large values.
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	}
	return fmt.Sprintf("%d B", bytes)
}

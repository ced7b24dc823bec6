// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle turns an agent's source into a single upload-ready
// artifact and assembles the provenance manifest that travels with it.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/airlift-dev/airlift/lib/deploy"
)

// AgentMetadata is the per-agent metadata file (agent.json) inside the
// agent's source directory. Parsed tolerantly: comments and trailing
// commas are allowed.
type AgentMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`

	// Entrypoint is the source file the build compiles, relative to
	// the agent directory. Default: main.py
	Entrypoint string `json:"entrypoint"`
}

// LoadAgentMetadata reads and parses <dir>/agent.json.
func LoadAgentMetadata(dir string) (*AgentMetadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, "agent.json"))
	if err != nil {
		return nil, err
	}
	var metadata AgentMetadata
	if err := json.Unmarshal(jsonc.ToJSON(data), &metadata); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Join(dir, "agent.json"), err)
	}
	if metadata.Entrypoint == "" {
		metadata.Entrypoint = "main.py"
	}
	return &metadata, nil
}

// Builder compiles one agent into a single artifact by invoking the
// project's configured build command.
type Builder struct {
	// ProjectDir is the project root; the build command runs here.
	ProjectDir string

	// AgentsDir is the per-agent source directory root, relative to
	// ProjectDir.
	AgentsDir string

	// OutputDir is where the build command writes compiled bundles,
	// relative to ProjectDir.
	OutputDir string

	// Command is the build command; "{agent}" in any argument is
	// replaced with the agent name.
	Command []string

	// ArtifactExt is the bundle file extension in OutputDir.
	ArtifactExt string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Build compiles the named agent and returns the artifact path.
//
// The agent's local structure (agent.json plus the entrypoint source
// file it names) must exist; absence fails with *deploy.AgentNotFoundError
// before any build attempt. A non-zero build exit fails with
// *deploy.BuildError carrying the tool's output, as does a zero exit
// that leaves no artifact behind.
func (b *Builder) Build(ctx context.Context, agentName string) (string, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	agentDir := filepath.Join(b.ProjectDir, b.AgentsDir, agentName)
	metadata, err := LoadAgentMetadata(agentDir)
	if err != nil {
		return "", &deploy.AgentNotFoundError{
			Agent:  agentName,
			Detail: fmt.Sprintf("no readable agent.json in %s", agentDir),
		}
	}
	entrypoint := filepath.Join(agentDir, metadata.Entrypoint)
	if _, err := os.Stat(entrypoint); err != nil {
		return "", &deploy.AgentNotFoundError{
			Agent:  agentName,
			Detail: fmt.Sprintf("entrypoint %s does not exist", entrypoint),
		}
	}

	if len(b.Command) == 0 {
		return "", fmt.Errorf("bundle: build.command is not configured")
	}

	args := make([]string, len(b.Command))
	for i, arg := range b.Command {
		args[i] = strings.ReplaceAll(arg, "{agent}", agentName)
	}

	logger.Info("building agent bundle", "agent", agentName, "command", strings.Join(args, " "))

	command := exec.CommandContext(ctx, args[0], args[1:]...)
	command.Dir = b.ProjectDir
	output, err := command.CombinedOutput()
	if err != nil {
		return "", &deploy.BuildError{Agent: agentName, Output: string(output), Err: err}
	}

	artifactPath := filepath.Join(b.ProjectDir, b.OutputDir, agentName+b.ArtifactExt)
	if _, err := os.Stat(artifactPath); err != nil {
		return "", &deploy.BuildError{
			Agent:  agentName,
			Output: string(output),
			Err:    fmt.Errorf("build completed but artifact %s was not produced", artifactPath),
		}
	}

	return artifactPath, nil
}

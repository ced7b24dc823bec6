// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/airlift-dev/airlift/lib/gitguard"
	"github.com/airlift-dev/airlift/lib/history"
)

// TreeGuard gates a deployment on working-tree state.
// *gitguard.Guard satisfies it.
type TreeGuard interface {
	Check(ctx context.Context, policy gitguard.Policy, commitMessage string) error
}

// ArtifactBuilder compiles one agent into a single artifact file.
// *bundle.Builder satisfies it.
type ArtifactBuilder interface {
	Build(ctx context.Context, agentName string) (string, error)
}

// ManifestAssembler collects provenance for the upload manifest.
// *bundle.Assembler satisfies it.
type ManifestAssembler interface {
	Assemble(ctx context.Context, artifact []byte) Manifest
}

// Backend is the Deployment Backend surface the lifecycle manager
// depends on. *Client satisfies it.
type Backend interface {
	FindAgent(ctx context.Context, key string) (*Agent, error)
	Upload(ctx context.Context, agentID string, artifact []byte, manifest Manifest, version string) (*UploadResult, error)
	ListVersions(ctx context.Context, agentID string) ([]Version, error)
	DeleteVersion(ctx context.Context, agentID, version string) error
	DeleteAllVersions(ctx context.Context, agentID string) error
	DeleteAgent(ctx context.Context, agentID string) error
}

// Manager sequences the deployment pipeline and enforces the
// client-visible invariants over an agent's version set. Each CLI
// invocation constructs one Manager, performs one operation, and
// exits — there is no shared state across invocations beyond the
// backend's own records and the optional local journal.
type Manager struct {
	guard     TreeGuard
	builder   ArtifactBuilder
	assembler ManifestAssembler
	backend   Backend
	journal   *history.Journal
	logger    *slog.Logger
}

// NewManager wires the pipeline stages together. journal may be nil
// to disable local deployment history.
func NewManager(guard TreeGuard, builder ArtifactBuilder, assembler ManifestAssembler, backend Backend, journal *history.Journal, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		guard:     guard,
		builder:   builder,
		assembler: assembler,
		backend:   backend,
		journal:   journal,
		logger:    logger,
	}
}

// DeployRequest holds the parameters for one deployment.
type DeployRequest struct {
	// Project is the project component of the composite key.
	Project string

	// Agent is the agent's local name.
	Agent string

	// AgentID is the explicit backend id. When empty, the id is
	// resolved from the backend by composite key before upload.
	AgentID string

	// Version is the declared version string.
	Version string

	// GitPolicy selects the working-tree check behavior.
	GitPolicy gitguard.Policy

	// CommitMessage is used by the auto-commit policy.
	CommitMessage string
}

// Deploy runs the pipeline in strict sequence: working-tree check,
// build, manifest assembly, upload. Any stage failure aborts the
// remaining stages and surfaces that stage's error unchanged —
// errors.As reaches the original typed error. Nothing is retried.
func (m *Manager) Deploy(ctx context.Context, request DeployRequest) (*UploadResult, error) {
	if err := m.guard.Check(ctx, request.GitPolicy, request.CommitMessage); err != nil {
		return nil, err
	}

	artifactPath, err := m.builder.Build(ctx, request.Agent)
	if err != nil {
		return nil, err
	}

	artifact, err := os.ReadFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", artifactPath, err)
	}

	manifest := m.assembler.Assemble(ctx, artifact)

	agentID := request.AgentID
	if agentID == "" {
		agent, err := m.backend.FindAgent(ctx, request.Project+"/"+request.Agent)
		if err != nil {
			return nil, err
		}
		agentID = agent.ID
	}

	result, err := m.backend.Upload(ctx, agentID, artifact, manifest, request.Version)
	if err != nil {
		return nil, err
	}

	m.logger.Info("deployment complete",
		"agent", request.Agent,
		"version", result.Version,
		"build_hash", manifest.BuildHash,
		"bundle_size", result.BundleSize,
	)

	// Journal append is best-effort bookkeeping; a local I/O failure
	// must not fail a deployment that the backend already recorded.
	if m.journal != nil {
		record := history.Record{
			Agent:      request.Agent,
			AgentID:    agentID,
			Version:    result.Version,
			BuildHash:  manifest.BuildHash,
			BundleSize: result.BundleSize,
			DeployedAt: time.Now().UTC(),
		}
		if err := m.journal.Append(record); err != nil {
			m.logger.Warn("recording deployment in local journal failed", "error", err)
		}
	}

	return result, nil
}

// ListVersions fetches all versions for an agent and checks the
// observed invariant that at most one is active. A violation is the
// backend's bug, not ours: it is logged, never "repaired" locally.
func (m *Manager) ListVersions(ctx context.Context, agentID string) ([]Version, error) {
	versions, err := m.backend.ListVersions(ctx, agentID)
	if err != nil {
		return nil, err
	}

	active := 0
	for _, version := range versions {
		if version.Status == VersionActive {
			active++
		}
	}
	if active > 1 {
		m.logger.Warn("backend reports multiple active versions for one agent",
			"agent_id", agentID,
			"active_count", active,
		)
	}

	return versions, nil
}

// ActiveVersion returns the active version from a version set, or nil
// for an undeployed agent.
func ActiveVersion(versions []Version) *Version {
	for i := range versions {
		if versions[i].Status == VersionActive {
			return &versions[i]
		}
	}
	return nil
}

// DeleteVersion removes a single version after verifying it exists
// and is not the active deployment. Both failure cases are decided
// from the version listing alone — no deletion call reaches the
// network.
func (m *Manager) DeleteVersion(ctx context.Context, agentID, agentName, version string) error {
	versions, err := m.backend.ListVersions(ctx, agentID)
	if err != nil {
		return err
	}

	var target *Version
	for i := range versions {
		if versions[i].Version == version {
			target = &versions[i]
			break
		}
	}
	if target == nil {
		return &VersionNotFoundError{Agent: agentName, Version: version}
	}
	if target.Status == VersionActive {
		return &ActiveVersionError{Agent: agentName, Version: version}
	}

	if err := m.backend.DeleteVersion(ctx, agentID, version); err != nil {
		return err
	}

	m.logger.Info("deleted version", "agent", agentName, "version", version)
	return nil
}

// DeleteAgent removes all of an agent's version artifacts and then the
// agent record itself. Artifact cleanup is best-effort by design: a
// failure is logged and does not block deleting the record, accepting
// orphaned remote artifacts over a blocked deletion.
func (m *Manager) DeleteAgent(ctx context.Context, agentID, agentName string) error {
	if err := m.backend.DeleteAllVersions(ctx, agentID); err != nil {
		m.logger.Warn("deleting version artifacts failed, continuing with agent record deletion",
			"agent", agentName,
			"error", err,
		)
	}

	if err := m.backend.DeleteAgent(ctx, agentID); err != nil {
		return err
	}

	m.logger.Info("deleted agent", "agent", agentName)
	return nil
}

// NextAction maps a backend-reported agent status to a recommended
// operator action. Pure mapping, no side effects.
func NextAction(status AgentStatus) string {
	switch status {
	case AgentCreated:
		return "deploy the agent (airlift agent deploy)"
	case AgentDeployed, AgentRunning:
		return "none"
	case AgentStopped:
		return "redeploy to restart (airlift agent deploy)"
	case AgentError:
		return "investigate backend logs, then redeploy (airlift agent deploy)"
	}
	return "unknown status; verify the agent manually"
}

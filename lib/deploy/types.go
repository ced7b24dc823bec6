// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package deploy implements the client side of the agent deployment
// pipeline: the data model shared with the Deployment Backend, the
// HTTP upload client, and the version lifecycle manager that sequences
// a deployment and enforces the client-visible version invariants.
//
// The backend owns all version-state transitions. This package never
// mutates version state locally — it queries the backend and checks
// the observed invariants (at most one active version per agent)
// against the query results.
package deploy

import (
	"strings"
	"time"
)

// AgentStatus is the backend-driven lifecycle status of an agent. The
// client only reads this value and suggests a next action from it.
type AgentStatus string

const (
	AgentCreated  AgentStatus = "created"
	AgentDeployed AgentStatus = "deployed"
	AgentRunning  AgentStatus = "running"
	AgentStopped  AgentStatus = "stopped"
	AgentError    AgentStatus = "error"
)

// Agent is a deployable unit identified by the composite key
// "<project>/<name>". The record is owned by the backend; the client
// holds only a read-through copy per invocation.
type Agent struct {
	// ID is the backend-assigned unique identifier.
	ID string `json:"id"`

	// Type is the composite key "<project>/<name>".
	Type string `json:"type"`

	// Status is the backend-driven lifecycle status.
	Status AgentStatus `json:"status"`

	// CreatedAt is when the agent record was created.
	CreatedAt time.Time `json:"createdAt"`

	// LastDeployedAt is the most recent deployment time, if any.
	LastDeployedAt *time.Time `json:"lastDeployedAt,omitempty"`

	// Author is who created the agent.
	Author string `json:"author,omitempty"`
}

// Project returns the project component of the composite key, or ""
// if the key has no project prefix.
func (a Agent) Project() string {
	project, _, found := strings.Cut(a.Type, "/")
	if !found {
		return ""
	}
	return project
}

// Name returns the agent-name component of the composite key.
func (a Agent) Name() string {
	_, name, found := strings.Cut(a.Type, "/")
	if !found {
		return a.Type
	}
	return name
}

// VersionStatus is the backend-driven status of a single version.
type VersionStatus string

const (
	// VersionActive marks the version currently designated as the
	// live deployment. At most one version per agent is active.
	VersionActive VersionStatus = "active"

	// VersionInactive marks a version superseded by a newer deploy.
	VersionInactive VersionStatus = "inactive"

	// VersionRollback marks a previously active version retained as
	// a rollback target. Re-promotion mechanics are backend-owned.
	VersionRollback VersionStatus = "rollback"
)

// Version represents one successfully uploaded build of an agent. The
// client never mutates a version after creation; the only terminal
// operations are single-version and whole-agent deletion.
type Version struct {
	// Version is the backend-assigned or declared version identifier.
	Version string `json:"version"`

	// BundleSize is the artifact size in bytes.
	BundleSize int64 `json:"bundleSize"`

	// DeployedAt is the upload timestamp.
	DeployedAt time.Time `json:"deployedAt"`

	// Status is the backend-driven version status.
	Status VersionStatus `json:"status"`

	// Manifest is the provenance metadata captured at upload time.
	Manifest Manifest `json:"manifest"`

	// URL is the public URL of the deployment, if the backend
	// exposes one.
	URL string `json:"url,omitempty"`
}

// Manifest is the provenance metadata uploaded alongside an artifact.
type Manifest struct {
	// BuildHash is the truncated content digest of the artifact
	// bytes: a deterministic function of the bytes, so two uploads
	// of byte-identical artifacts carry the same hash. Used as a
	// human-readable build fingerprint, not a security property.
	BuildHash string `json:"buildHash"`

	// BuildTime is the wall-clock build time, UTC ISO-8601.
	BuildTime string `json:"buildTime"`

	// Dependencies is the declared name -> version map from the
	// project dependency manifest. Empty when the manifest was
	// unreadable.
	Dependencies map[string]string `json:"dependencies"`

	// GitCommit is the short source-control revision, omitted when
	// unavailable.
	GitCommit string `json:"gitCommit,omitempty"`
}

// UploadResult is the backend's response to a successful upload.
type UploadResult struct {
	// DeploymentID is the backend-assigned identifier of the new
	// deployment.
	DeploymentID string `json:"deploymentId"`

	// Version is the version identifier the backend recorded.
	Version string `json:"version"`

	// BundleSize is the artifact size in bytes as stored.
	BundleSize int64 `json:"bundleSize"`

	// URL is the public URL of the deployment, if any.
	URL string `json:"url,omitempty"`

	// RollbackVersion is the previously active version that this
	// deployment superseded, if any.
	RollbackVersion string `json:"rollbackVersion,omitempty"`
}

// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"strings"
)

// BuildError indicates the agent build step exited non-zero, or
// completed without producing the expected artifact. The build tool's
// own output is forwarded so the user can fix the source.
type BuildError struct {
	// Agent is the agent name the build was scoped to.
	Agent string

	// Output is the build tool's combined stdout/stderr.
	Output string

	// Err is the underlying exec error, if any.
	Err error
}

func (e *BuildError) Error() string {
	message := fmt.Sprintf("building agent %q failed", e.Agent)
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	if output := strings.TrimSpace(e.Output); output != "" {
		message += "\n" + output
	}
	return message
}

func (e *BuildError) Unwrap() error { return e.Err }

// AgentNotFoundError indicates the named agent does not exist: either
// its local source directory is missing (precondition checked before
// any build attempt) or the backend has no record matching the
// composite key. Not retried.
type AgentNotFoundError struct {
	// Agent is the local name or composite key that failed to resolve.
	Agent string

	// Detail explains where the lookup failed (local path or backend).
	Detail string
}

func (e *AgentNotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("agent %q not found: %s", e.Agent, e.Detail)
	}
	return fmt.Sprintf("agent %q not found", e.Agent)
}

// VersionNotFoundError indicates no version of the agent matches the
// requested identifier. Surfaced before any network deletion call.
type VersionNotFoundError struct {
	Agent   string
	Version string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("agent %q has no version %q", e.Agent, e.Version)
}

// ActiveVersionError guards the invariant that the active version
// cannot be deleted: it must first be superseded by a new deployment.
type ActiveVersionError struct {
	Agent   string
	Version string
}

func (e *ActiveVersionError) Error() string {
	return fmt.Sprintf("version %q is the active deployment of agent %q and cannot be deleted; deploy a new version first",
		e.Version, e.Agent)
}

// UploadError indicates the upload exchange failed: a transport-level
// error status or a backend-reported failure in the response envelope.
// Never retried automatically — retry decisions belong to the operator.
type UploadError struct {
	// StatusCode is the HTTP status, or 0 when the backend returned
	// 2xx with success=false.
	StatusCode int

	// Message is the backend-provided error message, or the
	// transport status text when the backend gave none.
	Message string
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upload failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upload failed: %s", e.Message)
}

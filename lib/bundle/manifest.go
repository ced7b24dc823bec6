// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"

	"github.com/airlift-dev/airlift/lib/deploy"
)

// hashPrefixLength is the number of hex characters kept from the
// artifact digest. Sixteen characters keeps build identifiers readable
// in logs and version listings; the increased collision risk is an
// accepted usability trade-off, not a security property.
const hashPrefixLength = 16

// HashArtifact computes the build hash of artifact bytes: a BLAKE3
// digest truncated to a 16-hex-character prefix. Deterministic —
// byte-identical artifacts always produce the same hash, which lets
// the backend detect no-op redeploys.
func HashArtifact(data []byte) string {
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:])[:hashPrefixLength]
}

// GitRunner is the subset of git operations the assembler needs.
// *git.Repository satisfies it.
type GitRunner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Assembler collects provenance for an upload manifest: the build
// hash, build time, declared dependency versions, and the current
// source revision when available.
type Assembler struct {
	// ProjectDir is the project root.
	ProjectDir string

	// DependencyManifest is the project dependency manifest path,
	// relative to ProjectDir. Read best-effort.
	DependencyManifest string

	// Git captures the current revision. Nil disables the capture.
	Git GitRunner

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Now returns the current time. Nil means time.Now. Tests inject
	// a fixed clock.
	Now func() time.Time
}

// Assemble builds the upload manifest for artifact bytes. It never
// fails: an unreadable dependency manifest degrades to an empty map
// with a warning, and a missing source revision is simply omitted.
func (a *Assembler) Assemble(ctx context.Context, artifact []byte) deploy.Manifest {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := a.Now
	if now == nil {
		now = time.Now
	}

	manifest := deploy.Manifest{
		BuildHash:    HashArtifact(artifact),
		BuildTime:    now().UTC().Format(time.RFC3339),
		Dependencies: a.readDependencies(logger),
	}

	if a.Git != nil {
		revision, err := a.Git.Run(ctx, "rev-parse", "--short", "HEAD")
		if err != nil {
			logger.Warn("source revision unavailable, omitting from manifest", "error", err)
		} else {
			manifest.GitCommit = strings.TrimSpace(revision)
		}
	}

	return manifest
}

// readDependencies reads the declared name -> version pairs from the
// project dependency manifest. Absence or a parse failure degrades to
// an empty map with a warning, never an error.
func (a *Assembler) readDependencies(logger *slog.Logger) map[string]string {
	path := filepath.Join(a.ProjectDir, a.DependencyManifest)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("dependency manifest unreadable, recording empty dependency map", "path", path, "error", err)
		return map[string]string{}
	}

	var parsed struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &parsed); err != nil {
		logger.Warn("dependency manifest unparseable, recording empty dependency map", "path", path, "error", err)
		return map[string]string{}
	}
	if parsed.Dependencies == nil {
		return map[string]string{}
	}
	return parsed.Dependencies
}

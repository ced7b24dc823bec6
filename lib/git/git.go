// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for repository
// operations. Airlift uses git for two things during a deployment:
// inspecting working-tree cleanliness (and optionally committing on
// the deployer's behalf) and capturing the current revision for the
// upload manifest. All commands target a specific repository directory
// via the -C flag, which is automatically injected by all Repository
// methods.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ShortHead returns the abbreviated SHA of the current HEAD commit.
func (r *Repository) ShortHead(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

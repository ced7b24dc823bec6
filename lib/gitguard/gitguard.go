// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitguard inspects working-tree cleanliness before a
// deployment is allowed to proceed. Four policies cover the range
// from hard-gating on any uncommitted change to skipping the
// inspection entirely. Under the auto-commit policy this is the only
// component in the pipeline that mutates version-control state.
package gitguard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Policy selects how uncommitted changes are handled before a build.
type Policy string

const (
	// PolicyStrict aborts the pipeline on any uncommitted change,
	// tracked or untracked. This is the default.
	PolicyStrict Policy = "strict"

	// PolicyWarn reports uncommitted changes and proceeds.
	PolicyWarn Policy = "warn"

	// PolicyAutoCommit commits uncommitted changes (with the provided
	// or a generated timestamped message) and proceeds.
	PolicyAutoCommit Policy = "auto-commit"

	// PolicyIgnore skips the check entirely: the status query itself
	// does not run.
	PolicyIgnore Policy = "ignore"
)

// ParsePolicy validates a policy string from a flag or config file.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStrict, PolicyWarn, PolicyAutoCommit, PolicyIgnore:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown git policy %q (want strict, warn, auto-commit, or ignore)", s)
}

// BlockedError indicates the strict policy refused to proceed because
// the working tree has uncommitted changes. The user can commit them
// or rerun with a more permissive policy.
type BlockedError struct {
	// Paths are the dirty paths reported by the status query.
	Paths []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("working tree has %d uncommitted change(s); commit them, or rerun with --git-policy warn or auto-commit",
		len(e.Paths))
}

// Runner executes git commands. *git.Repository satisfies it; tests
// substitute a fake to observe which commands run.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// Guard applies a Policy to the working tree before a build.
type Guard struct {
	git    Runner
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Guard over the given git runner.
func New(git Runner, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{git: git, logger: logger, now: time.Now}
}

// Check applies the policy. Returns *BlockedError under PolicyStrict
// when uncommitted changes are positively detected. If the status
// query itself fails (git missing, not a repository), the guard
// degrades to a warn-equivalent outcome: it logs and proceeds for
// every policy, including strict.
func (g *Guard) Check(ctx context.Context, policy Policy, commitMessage string) error {
	if policy == PolicyIgnore {
		return nil
	}

	output, err := g.git.Run(ctx, "status", "--porcelain")
	if err != nil {
		g.logger.Warn("git status unavailable, proceeding without working-tree check", "error", err)
		return nil
	}

	paths := parsePorcelain(output)
	if len(paths) == 0 {
		return nil
	}

	switch policy {
	case PolicyStrict:
		return &BlockedError{Paths: paths}

	case PolicyWarn:
		g.logger.Warn("deploying with uncommitted changes",
			"count", len(paths),
			"paths", strings.Join(paths, ", "),
		)
		return nil

	case PolicyAutoCommit:
		return g.autoCommit(ctx, paths, commitMessage)
	}

	return fmt.Errorf("gitguard: unknown policy %q", policy)
}

// autoCommit stages and commits all uncommitted changes. A failed
// commit is a hard error: proceeding would leave the deployment's
// provenance pointing at a revision that does not contain the
// deployed source.
func (g *Guard) autoCommit(ctx context.Context, paths []string, message string) error {
	if message == "" {
		message = "airlift deploy " + g.now().UTC().Format(time.RFC3339)
	}

	if _, err := g.git.Run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("gitguard: staging changes for auto-commit: %w", err)
	}
	if _, err := g.git.Run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("gitguard: auto-commit failed: %w", err)
	}

	g.logger.Info("auto-committed uncommitted changes",
		"count", len(paths),
		"message", message,
	)
	return nil
}

// parsePorcelain extracts the path column from "git status --porcelain"
// output. Both tracked modifications and untracked files appear.
func parsePorcelain(output string) []string {
	var paths []string
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}
		// Porcelain v1: two status characters, a space, then the path.
		paths = append(paths, strings.TrimSpace(line[3:]))
	}
	return paths
}

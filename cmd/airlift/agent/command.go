// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the "airlift agent" command group: the
// deployment pipeline plus inspection and deletion of the version set.
package agent

import (
	"github.com/airlift-dev/airlift/cmd/airlift/cli"
)

// Command returns the "agent" parent command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "agent",
		Summary: "Deploy agents and manage their versions",
		Description: `Deploy locally built agents and manage their versions.

"deploy" runs the full pipeline: working-tree check, bundle build,
provenance capture, and upload. The backend records the upload as a
new version and supersedes the previously active one.

Inspection commands (list, versions, status) read backend records.
"delete" removes a single superseded version or the whole agent;
the active version can never be deleted directly — deploy a newer
version first.`,
		Subcommands: []*cli.Command{
			deployCommand(),
			listCommand(),
			versionsCommand(),
			statusCommand(),
			deleteCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Deploy with the default strict working-tree policy",
				Command:     "airlift agent deploy summarizer --config ./airlift.yaml",
			},
			{
				Description: "Deploy from a dirty tree, committing changes first",
				Command:     "airlift agent deploy summarizer --git-policy auto-commit -m 'ship summarizer'",
			},
			{
				Description: "Inspect an agent's versions",
				Command:     "airlift agent versions summarizer",
			},
			{
				Description: "Delete a whole agent and all its versions",
				Command:     "airlift agent delete summarizer --all",
			},
		},
	}
}

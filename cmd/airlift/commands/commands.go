// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete airlift CLI command tree.
package commands

import (
	"context"
	"fmt"

	agentcmd "github.com/airlift-dev/airlift/cmd/airlift/agent"
	"github.com/airlift-dev/airlift/cmd/airlift/cli"
	"github.com/airlift-dev/airlift/lib/version"
)

// Root builds and returns the complete airlift CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "airlift",
		Description: `Airlift: deploy locally built agents to a Deployment Backend.

Builds an agent into a single bundle, captures its provenance (build
hash, build time, dependency versions, source revision), uploads it as
a tracked version, and manages the resulting version set.`,
		Subcommands: []*cli.Command{
			agentcmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string) error {
					fmt.Printf("airlift %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Deploy an agent from the current project",
				Command:     "airlift agent deploy summarizer --config ./airlift.yaml",
			},
			{
				Description: "List agents and their suggested next action",
				Command:     "airlift agent list --config ./airlift.yaml",
			},
			{
				Description: "Show the version set of an agent",
				Command:     "airlift agent versions summarizer --config ./airlift.yaml",
			},
			{
				Description: "Delete a superseded version",
				Command:     "airlift agent delete summarizer --version 1.0.3 --config ./airlift.yaml",
			},
		},
	}
}

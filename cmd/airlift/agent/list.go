// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/airlift-dev/airlift/cmd/airlift/cli"
	"github.com/airlift-dev/airlift/lib/deploy"
)

type listParams struct {
	cli.JSONOutput
	commonParams
}

// listEntry is a single row in the list output.
type listEntry struct {
	Type         string             `json:"type"`
	ID           string             `json:"id"`
	Status       deploy.AgentStatus `json:"status"`
	LastDeployed string             `json:"lastDeployed,omitempty"`
	NextAction   string             `json:"nextAction"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List agents with status and suggested next action",
		Description: `List all agent records from the backend.

Each agent's backend status is paired with a suggested next action:
a freshly created agent suggests deploying, a stopped one suggests
redeploying, and an errored one suggests investigating logs first.`,
		Usage: "airlift agent list [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return runList(ctx, params)
		},
	}
}

func runList(ctx context.Context, params listParams) error {
	logger := cli.NewCommandLogger().With("command", "agent/list")

	cfg, err := loadConfig(params.commonParams)
	if err != nil {
		return err
	}
	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	agents, err := client.ListAgents(ctx)
	if err != nil {
		return err
	}

	entries := make([]listEntry, len(agents))
	for i, agent := range agents {
		entry := listEntry{
			Type:       agent.Type,
			ID:         agent.ID,
			Status:     agent.Status,
			NextAction: deploy.NextAction(agent.Status),
		}
		if agent.LastDeployedAt != nil {
			entry.LastDeployed = agent.LastDeployedAt.UTC().Format(time.RFC3339)
		}
		entries[i] = entry
	}

	if done, err := params.EmitJSON(entries); done {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no agents found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "AGENT\tSTATUS\tLAST DEPLOYED\tNEXT ACTION")
	for _, entry := range entries {
		lastDeployed := entry.LastDeployed
		if lastDeployed == "" {
			lastDeployed = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", entry.Type, entry.Status, lastDeployed, entry.NextAction)
	}
	writer.Flush()

	return nil
}

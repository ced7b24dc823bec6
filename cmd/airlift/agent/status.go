// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/airlift-dev/airlift/cmd/airlift/cli"
	"github.com/airlift-dev/airlift/lib/deploy"
	"github.com/airlift-dev/airlift/lib/history"
)

type statusParams struct {
	cli.JSONOutput
	commonParams
}

// statusResult is the JSON output for the status command.
type statusResult struct {
	Agent         deploy.Agent    `json:"agent"`
	ActiveVersion *deploy.Version `json:"activeVersion,omitempty"`
	NextAction    string          `json:"nextAction"`
	LastLocal     *history.Record `json:"lastLocalDeployment,omitempty"`
	Backend       string          `json:"backend"`
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show an agent's backend status and next action",
		Description: `Show an agent's backend status, the active version (if any), a
suggested next action, and the last deployment recorded by this
machine's local journal.`,
		Usage: "airlift agent status <name> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: airlift agent status <name>")
			}
			return runStatus(ctx, params, args[0])
		},
	}
}

func runStatus(ctx context.Context, params statusParams, name string) error {
	logger := cli.NewCommandLogger().With("command", "agent/status", "agent", name)

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

	backendState := "reachable"
	if err := client.Health(ctx); err != nil {
		backendState = "unreachable: " + err.Error()
	}

	record, err := resolveAgent(ctx, client, cfg, params.Project, name)
	if err != nil {
		return err
	}

	manager := deploy.NewManager(nil, nil, nil, client, nil, logger)
	versions, err := manager.ListVersions(ctx, record.ID)
	if err != nil {
		return err
	}

	result := statusResult{
		Agent:         *record,
		ActiveVersion: deploy.ActiveVersion(versions),
		NextAction:    deploy.NextAction(record.Status),
		Backend:       backendState,
	}

	journal := history.NewJournal(filepath.Join(params.Project, cfg.Project.HistoryFile), logger)
	if last, ok := journal.Last(name); ok {
		result.LastLocal = &last
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}

	fmt.Printf("agent:       %s (%s)\n", record.Type, record.ID)
	fmt.Printf("status:      %s\n", record.Status)
	fmt.Printf("backend:     %s\n", backendState)
	if result.ActiveVersion != nil {
		fmt.Printf("active:      %s (%s, hash %s)\n",
			result.ActiveVersion.Version,
			formatSize(result.ActiveVersion.BundleSize),
			result.ActiveVersion.Manifest.BuildHash,
		)
	} else {
		fmt.Printf("active:      none\n")
	}
	fmt.Printf("next action: %s\n", result.NextAction)
	if result.LastLocal != nil {
		fmt.Printf("last local deploy: %s at %s\n",
			result.LastLocal.Version,
			result.LastLocal.DeployedAt.UTC().Format(time.RFC3339),
		)
	}
	return nil
}

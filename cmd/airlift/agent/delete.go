// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/airlift-dev/airlift/cmd/airlift/cli"
	"github.com/airlift-dev/airlift/lib/deploy"
)

type deleteParams struct {
	commonParams
	Version string `flag:"version" desc:"delete a single version"`
	All     bool   `flag:"all" desc:"delete the agent and all of its versions"`
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a version or an entire agent",
		Description: `Delete a single version with --version, or the whole agent and all
of its versions with --all.

The active version cannot be deleted: supersede it with a new
deployment first. Whole-agent deletion removes version artifacts
best-effort before removing the agent record, so a partial artifact
cleanup never blocks the deletion.`,
		Usage: "airlift agent delete <name> (--version <v> | --all) [flags]",
		Examples: []cli.Example{
			{
				Description: "Delete one superseded version",
				Command:     "airlift agent delete summarizer --version 1.0.3",
			},
			{
				Description: "Delete the agent entirely",
				Command:     "airlift agent delete summarizer --all",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("delete", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: airlift agent delete <name> (--version <v> | --all)")
			}
			return runDelete(ctx, params, args[0])
		},
	}
}

func runDelete(ctx context.Context, params deleteParams, name string) error {
	if params.Version == "" && !params.All {
		return fmt.Errorf("specify --version <v> to delete one version, or --all to delete the agent")
	}
	if params.Version != "" && params.All {
		return fmt.Errorf("--version and --all are mutually exclusive")
	}

	logger := cli.NewCommandLogger().With("command", "agent/delete", "agent", name)

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

	record, err := resolveAgent(ctx, client, cfg, params.Project, name)
	if err != nil {
		return err
	}

	manager := deploy.NewManager(nil, nil, nil, client, nil, logger)

	if params.All {
		if err := manager.DeleteAgent(ctx, record.ID, name); err != nil {
			return err
		}
		fmt.Printf("deleted agent %s\n", name)
		return nil
	}

	if err := manager.DeleteVersion(ctx, record.ID, name, params.Version); err != nil {
		return err
	}
	fmt.Printf("deleted %s version %s\n", name, params.Version)
	return nil
}

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

type versionsParams struct {
	cli.JSONOutput
	commonParams
}

func versionsCommand() *cli.Command {
	var params versionsParams

	return &cli.Command{
		Name:    "versions",
		Summary: "List the version set of an agent",
		Description: `List all versions recorded for an agent.

At most one version is active — the live deployment. Superseded
versions remain listed as inactive or rollback until deleted.`,
		Usage: "airlift agent versions <name> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("versions", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: airlift agent versions <name>")
			}
			return runVersions(ctx, params, args[0])
		},
	}
}

func runVersions(ctx context.Context, params versionsParams, name string) error {
	logger := cli.NewCommandLogger().With("command", "agent/versions", "agent", name)

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
	versions, err := manager.ListVersions(ctx, record.ID)
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(versions); done {
		return err
	}

	if len(versions) == 0 {
		fmt.Fprintf(os.Stderr, "agent %s has no deployed versions\n", name)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "VERSION\tSTATUS\tSIZE\tDEPLOYED\tBUILD HASH")
	for _, version := range versions {
		marker := ""
		if version.Status == deploy.VersionActive {
			marker = " *"
		}
		fmt.Fprintf(writer, "%s%s\t%s\t%s\t%s\t%s\n",
			version.Version, marker,
			version.Status,
			formatSize(version.BundleSize),
			version.DeployedAt.UTC().Format(time.RFC3339),
			version.Manifest.BuildHash,
		)
	}
	writer.Flush()

	return nil
}

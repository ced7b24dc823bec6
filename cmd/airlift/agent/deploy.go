// Copyright 2026 The Airlift Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/airlift-dev/airlift/cmd/airlift/cli"
	"github.com/airlift-dev/airlift/lib/bundle"
	"github.com/airlift-dev/airlift/lib/deploy"
	"github.com/airlift-dev/airlift/lib/git"
	"github.com/airlift-dev/airlift/lib/gitguard"
	"github.com/airlift-dev/airlift/lib/history"
)

type deployParams struct {
	cli.JSONOutput
	commonParams
	Version       string `flag:"version" desc:"declared version (default: agent metadata version)"`
	GitPolicy     string `flag:"git-policy" desc:"working-tree policy: strict, warn, auto-commit, or ignore (default: config)"`
	CommitMessage string `flag:"commit-message,m" desc:"commit message for the auto-commit policy"`
}

func deployCommand() *cli.Command {
	var params deployParams

	return &cli.Command{
		Name:    "deploy",
		Summary: "Build and upload an agent as a new version",
		Description: `Deploy an agent: check the working tree, build the bundle, capture
provenance, and upload the result as a new version.

The pipeline runs in strict sequence and aborts on the first stage
failure. Nothing is retried — rerun the command after fixing the
reported problem. A successful upload supersedes the previously
active version, which the backend retains as a rollback target.`,
		Usage: "airlift agent deploy <name> [flags]",
		Examples: []cli.Example{
			{
				Description: "Deploy with an explicit version",
				Command:     "airlift agent deploy summarizer --version 1.2.0",
			},
			{
				Description: "Deploy from a dirty tree, committing first",
				Command:     "airlift agent deploy summarizer --git-policy auto-commit -m 'ship summarizer'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("deploy", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: airlift agent deploy <name>")
			}
			return runDeploy(ctx, params, args[0])
		},
	}
}

func runDeploy(ctx context.Context, params deployParams, name string) error {
	logger := cli.NewCommandLogger().With("command", "agent/deploy", "agent", name)

	cfg, err := loadConfig(params.commonParams)
	if err != nil {
		return err
	}

	policy := gitguard.Policy(cfg.Git.Policy)
	if params.GitPolicy != "" {
		policy, err = gitguard.ParsePolicy(params.GitPolicy)
		if err != nil {
			return err
		}
	}

	// The declared version comes from the agent metadata file when
	// --version is omitted. Read best-effort here: a missing agent
	// surfaces through the pipeline's own precondition check, after
	// the working-tree check has run in its proper order.
	declared := params.Version
	if declared == "" {
		agentDir := filepath.Join(params.Project, cfg.Project.AgentsDir, name)
		if metadata, err := bundle.LoadAgentMetadata(agentDir); err == nil && metadata.Version != "" {
			declared = metadata.Version
		} else {
			declared = "0.0.1"
		}
	}

	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return err
	}

	repository := git.NewRepository(params.Project)
	manager := deploy.NewManager(
		gitguard.New(repository, logger),
		&bundle.Builder{
			ProjectDir:  params.Project,
			AgentsDir:   cfg.Project.AgentsDir,
			OutputDir:   cfg.Project.OutputDir,
			Command:     cfg.Build.Command,
			ArtifactExt: cfg.Build.ArtifactExt,
			Logger:      logger,
		},
		&bundle.Assembler{
			ProjectDir:         params.Project,
			DependencyManifest: cfg.Project.DependencyManifest,
			Git:                repository,
			Logger:             logger,
		},
		client,
		history.NewJournal(filepath.Join(params.Project, cfg.Project.HistoryFile), logger),
		logger,
	)

	result, err := manager.Deploy(ctx, deploy.DeployRequest{
		Project:       projectName(cfg, params.Project),
		Agent:         name,
		Version:       declared,
		GitPolicy:     policy,
		CommitMessage: params.CommitMessage,
	})
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(result); done {
		return err
	}

	fmt.Printf("deployed %s version %s (%s)\n", name, result.Version, formatSize(result.BundleSize))
	if result.URL != "" {
		fmt.Printf("url: %s\n", result.URL)
	}
	if result.RollbackVersion != "" {
		fmt.Printf("superseded version %s is retained for rollback\n", result.RollbackVersion)
	}
	return nil
}

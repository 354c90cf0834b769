package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"faro/builder/config"
	"faro/builder/run"
	"faro/internal/publish"
)

// publishCmd assembles the publish pipeline from the site config and
// the environment, then runs it once.
func publishCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	target := fs.String("target", "preview", "Deploy target: production or preview")
	branch := fs.String("branch", "", "Branch being published")
	actor := fs.String("actor", "", "Login of the user triggering the deploy")
	dryRun := fs.Bool("dry-run", false, "Build, validate and gate, but deploy nothing")
	// Builder flags ride along on the same argv; config.Load owns them.
	_ = fs.String("baseurl", "", "Base URL override (handled by builder)")
	_ = fs.Bool("drafts", false, "Include drafts (handled by builder)")
	_ = fs.Bool("future", false, "Include future posts (handled by builder)")
	_ = fs.String("theme", "", "Theme override (handled by builder)")
	_ = fs.Bool("force", false, "Ignore build cache (handled by builder)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *branch == "" {
		return fmt.Errorf("publish: -branch is required")
	}
	if *actor == "" {
		return fmt.Errorf("publish: -actor is required")
	}

	cfg := config.Load(args)
	logger := run.NewLogger(false)
	publish.LoadEnv(logger)
	secrets := publish.EnvSecrets()

	if cfg.Publish.Repo == "" {
		return fmt.Errorf("publish: no repository configured (set publish.repo in faro.yaml)")
	}

	tuning := cfg.Tuning()

	gh := publish.NewClient(cfg.Publish.Repo, secrets.GitHubToken, logger)
	gh.HTTP.Timeout = tuning.DeployTimeout

	prod := publish.NewProductionPublisher(cfg.Publish.AppID, cfg.Publish.APIBase, secrets.HostingToken, logger)
	prod.HTTP.Timeout = tuning.DeployTimeout

	preview := publish.NewPreviewPublisher(cfg.Publish.PreviewRemote, cfg.Publish.PreviewBranch, cfg.Publish.PreviewBaseURL, gh, logger)
	preview.GitTimeout = tuning.GitTimeout

	builder, err := run.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = builder.Close() }()

	pipe := publish.NewPipeline(publish.Options{
		Build:      builder.Build,
		Authorizer: gh,
		Production: prod,
		Preview:    preview,
		OutputDir:  cfg.OutputDir,
		DryRun:     *dryRun,
		Logger:     logger,
	})

	res := pipe.Run(ctx, publish.Target(*target), *branch, *actor)
	fmt.Printf("📡 Publish: %s\n", stateSummary(res))
	if !res.Succeeded() {
		return fmt.Errorf("publish ended in %s: %w", res.Final(), res.Err)
	}
	return nil
}

func stateSummary(res *publish.Result) string {
	names := make([]string, len(res.States))
	for i, s := range res.States {
		names[i] = s.String()
	}
	return strings.Join(names, " > ")
}

package publish

import (
	"context"
	"fmt"
	"log/slog"
)

// Target selects the deploy destination.
type Target string

const (
	TargetProduction Target = "production"
	TargetPreview    Target = "preview"
)

// Artifact is one validated build output tree ready to deploy.
type Artifact struct {
	Root        string // output directory
	IndexPath   string // root index document inside Root
	TarballPath string // packed site.tar.gz, set after packaging
	Branch      string // source branch being published
}

// BuildFunc runs the site build that produces the output tree.
type BuildFunc func(ctx context.Context) error

// Publisher ships a validated artifact to one destination. The
// pipeline's state machine stays testable because network and git side
// effects live behind this boundary.
type Publisher interface {
	Publish(ctx context.Context, art *Artifact) error
}

// Authorizer checks the acting user's permission on the hosting
// repository. A failed check is a rejection, not a retryable error.
type Authorizer interface {
	Authorize(ctx context.Context, actor string) error
}

// Options configures a Pipeline.
type Options struct {
	Build      BuildFunc
	Authorizer Authorizer
	Production Publisher
	Preview    Publisher
	OutputDir  string
	// DryRun stops after the authorization gate: build, validate and
	// package, but deploy nothing.
	DryRun bool
	Logger *slog.Logger
}

// Pipeline drives one publish run through its states:
// Building, Validating, ReadyToPublish, one of the deploy states, Done.
// Rejected and Failed are the terminal failure states.
type Pipeline struct {
	opts Options
}

func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{opts: opts}
}

// Run publishes branch to target on behalf of actor. The returned
// Result carries the visited states and the terminal error; it never
// returns nil. No deploy side effect happens unless the build output
// validates and the actor clears the permission gate.
func (p *Pipeline) Run(ctx context.Context, target Target, branch, actor string) *Result {
	o := p.opts
	res := &Result{}

	res.visit(StateBuilding)
	o.Logger.Info("Publish: building site", "target", string(target), "branch", branch)
	if err := o.Build(ctx); err != nil {
		return res.fail(fmt.Errorf("build: %w", err))
	}

	res.visit(StateValidating)
	art, err := ValidateOutput(o.OutputDir)
	if err != nil {
		return res.reject(err)
	}
	art.Branch = branch
	res.visit(StateReadyToPublish)

	if err := o.Authorizer.Authorize(ctx, actor); err != nil {
		return res.reject(fmt.Errorf("actor %q: %w", actor, err))
	}

	if err := PackArtifact(art); err != nil {
		return res.fail(fmt.Errorf("pack artifact: %w", err))
	}
	o.Logger.Info("Publish: artifact packed", "tarball", art.TarballPath)

	if o.DryRun {
		o.Logger.Info("Publish: dry run, skipping deploy")
		res.visit(StateDone)
		return res
	}

	switch target {
	case TargetProduction:
		res.visit(StateProductionDeploy)
		if err := o.Production.Publish(ctx, art); err != nil {
			return res.fail(fmt.Errorf("production deploy: %w", err))
		}
	case TargetPreview:
		res.visit(StatePreviewDeploy)
		if err := o.Preview.Publish(ctx, art); err != nil {
			return res.fail(fmt.Errorf("preview deploy: %w", err))
		}
	default:
		return res.fail(fmt.Errorf("unknown publish target %q", target))
	}

	res.visit(StateDone)
	return res
}

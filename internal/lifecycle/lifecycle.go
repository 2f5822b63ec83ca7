// Package lifecycle runs the phases of the package command and invokes plugins at the
// points they hook into.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Financial-Times/serverless-plugin-about/internal/metrics"
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// ErrUnknownPhase is returned by RunHook for phases the runner does not know.
var ErrUnknownPhase = errors.New("unknown lifecycle phase")

// Phases of the package command, in execution order.
const (
	PhasePackageInitialize              = "package:initialize"
	PhaseAfterPackageInitialize         = "after:package:initialize"
	PhaseCreateDeploymentArtifacts      = "package:createDeploymentArtifacts"
	PhaseAfterCreateDeploymentArtifacts = "after:package:createDeploymentArtifacts"
)

// Phases returns the package command phases in execution order.
func Phases() []string {
	return []string{
		PhasePackageInitialize,
		PhaseAfterPackageInitialize,
		PhaseCreateDeploymentArtifacts,
		PhaseAfterCreateDeploymentArtifacts,
	}
}

// PackagePlugin hooks into the package command.
type PackagePlugin interface {
	// AfterPackageInitialize runs before deployment artifacts are built. A returned
	// patch is applied to the service model by the runner.
	AfterPackageInitialize(ctx context.Context, svc *service.Service) (*service.Patch, error)

	// AfterCreateDeploymentArtifacts runs once deployment artifacts exist.
	AfterCreateDeploymentArtifacts(ctx context.Context, svc *service.Service) error
}

// Packager creates the deployment artifacts of a service.
type Packager interface {
	Package(ctx context.Context, svc *service.Service) error
}

// PatchedFunc is called after all patches of the initialize phase are applied.
type PatchedFunc func(svc *service.Service) error

// Runner executes lifecycle phases.
type Runner struct {
	plugins   []PackagePlugin
	packager  Packager
	onPatched PatchedFunc
	metrics   *metrics.Build
}

// Option configures a Runner.
type Option func(*Runner)

// WithPlugin registers a plugin. Plugins run in registration order.
func WithPlugin(p PackagePlugin) Option {
	return func(r *Runner) {
		r.plugins = append(r.plugins, p)
	}
}

// WithPackager sets the packager used for package:createDeploymentArtifacts.
func WithPackager(p Packager) Option {
	return func(r *Runner) {
		r.packager = p
	}
}

// WithPatchedFunc sets the callback invoked once the service model is patched.
func WithPatchedFunc(fn PatchedFunc) Option {
	return func(r *Runner) {
		r.onPatched = fn
	}
}

// WithMetrics records phase durations into m.
func WithMetrics(m *metrics.Build) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Package runs every phase of the package command in order, stopping at the first
// failure.
func (r *Runner) Package(ctx context.Context, svc *service.Service) error {
	for _, phase := range Phases() {
		if err := r.RunHook(ctx, phase, svc); err != nil {
			return err
		}
	}
	return nil
}

// RunHook runs a single phase.
func (r *Runner) RunHook(ctx context.Context, phase string, svc *service.Service) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}

	start := time.Now()
	var err error

	switch phase {
	case PhasePackageInitialize:
		log.Info().
			Str("service", svc.Name).
			Int("functions", len(svc.Functions)).
			Msg("Packaging service")
	case PhaseAfterPackageInitialize:
		err = r.afterInitialize(ctx, svc)
	case PhaseCreateDeploymentArtifacts:
		if r.packager != nil {
			err = r.packager.Package(ctx, svc)
		} else {
			log.Debug().Msg("No packager configured, skipping deployment artifacts")
		}
	case PhaseAfterCreateDeploymentArtifacts:
		for _, p := range r.plugins {
			if err = p.AfterCreateDeploymentArtifacts(ctx, svc); err != nil {
				break
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPhase, phase)
	}

	r.metrics.ObservePhase(phase, time.Since(start))

	if err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}

	log.Debug().Str("phase", phase).Dur("duration", time.Since(start)).Msg("Phase complete")
	return nil
}

func (r *Runner) afterInitialize(ctx context.Context, svc *service.Service) error {
	for _, p := range r.plugins {
		patch, err := p.AfterPackageInitialize(ctx, svc)
		if err != nil {
			return err
		}
		if err := svc.Apply(patch); err != nil {
			return fmt.Errorf("applying patch: %w", err)
		}
	}

	if r.onPatched != nil {
		return r.onPatched(svc)
	}
	return nil
}

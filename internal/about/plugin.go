package about

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/Financial-Times/serverless-plugin-about/internal/lifecycle"
	"github.com/Financial-Times/serverless-plugin-about/internal/metrics"
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// PluginConfig configures a Plugin.
type PluginConfig struct {
	// Stage overrides the descriptor's stage.
	Stage string
	// TemplatePath overrides the built-in handler template.
	TemplatePath string
	// Clock stamps the creation date. Defaults to time.Now.
	Clock func() time.Time
	// Metrics receives build observations. May be nil.
	Metrics *metrics.Build
}

// Plugin generates and registers the about function for one build.
type Plugin struct {
	fs        afero.Fs
	cfg       PluginConfig
	generator *Generator
	opts      *Options
}

var _ lifecycle.PackagePlugin = (*Plugin)(nil)

// NewPlugin creates a plugin operating on fs.
func NewPlugin(fs afero.Fs, cfg PluginConfig) *Plugin {
	genOpts := []GeneratorOption{}
	if cfg.TemplatePath != "" {
		genOpts = append(genOpts, WithTemplatePath(cfg.TemplatePath))
	}
	if cfg.Clock != nil {
		genOpts = append(genOpts, WithClock(cfg.Clock))
	}

	return &Plugin{
		fs:        fs,
		cfg:       cfg,
		generator: NewGenerator(fs, genOpts...),
	}
}

// Options returns the options resolved for svc. They are resolved once and reused for
// the rest of the build.
func (p *Plugin) Options(svc *service.Service) Options {
	if p.opts == nil {
		opts := ResolveFromCustom(svc.Custom, ServiceInfo{
			Name:  svc.Name,
			Stage: svc.Stage(p.cfg.Stage),
			Path:  svc.Path,
		})
		p.opts = &opts
	}
	return *p.opts
}

// AfterPackageInitialize scans the service, writes the about handler and returns the
// patch registering it.
func (p *Plugin) AfterPackageInitialize(_ context.Context, svc *service.Service) (*service.Patch, error) {
	opts := p.Options(svc)

	descriptors := Scan(svc)
	entries := CountEntries(descriptors)
	p.cfg.Metrics.ObserveScan(len(descriptors), entries)

	log.Debug().
		Int("functions", len(descriptors)).
		Int("entries", entries).
		Msg("Scanned about annotations")

	artifact, err := p.generator.Generate(descriptors, opts)
	if err != nil {
		return nil, err
	}
	p.cfg.Metrics.ObserveArtifact(len(artifact.Content))

	log.Info().
		Str("path", artifact.Path).
		Int("bytes", len(artifact.Content)).
		Msg("Generated about handler")

	patch := Register(opts)

	log.Info().
		Str("function", patch.Function.Name).
		Str("endpoint", "GET /"+opts.EndpointPath).
		Str("handler", patch.Function.Handler).
		Msg("Registered about function")

	return patch, nil
}

// AfterCreateDeploymentArtifacts removes the generated folder if configured to.
func (p *Plugin) AfterCreateDeploymentArtifacts(_ context.Context, svc *service.Service) error {
	return Clean(p.fs, p.Options(svc))
}

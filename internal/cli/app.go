package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/Financial-Times/serverless-plugin-about/internal/about"
	"github.com/Financial-Times/serverless-plugin-about/internal/bundle"
	"github.com/Financial-Times/serverless-plugin-about/internal/config"
	"github.com/Financial-Times/serverless-plugin-about/internal/lifecycle"
	"github.com/Financial-Times/serverless-plugin-about/internal/metrics"
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// appFs is the filesystem every command operates on.
var appFs afero.Fs = afero.NewOsFs()

// build holds everything one run of the package lifecycle needs.
type build struct {
	fs       afero.Fs
	cfg      *config.Config
	svc      *service.Service
	plugin   *about.Plugin
	packager *bundle.Packager
	metrics  *metrics.Build
	runner   *lifecycle.Runner
}

type buildOptions struct {
	// bundles enables the packager when the config allows it.
	bundles bool
}

func newBuild(fs afero.Fs, c *config.Config, bo buildOptions) (*build, error) {
	svc, err := service.Load(fs, c.Descriptor)
	if err != nil {
		return nil, err
	}

	b := &build{
		fs:      fs,
		cfg:     c,
		svc:     svc,
		metrics: metrics.NewBuild(),
	}
	b.plugin = about.NewPlugin(fs, about.PluginConfig{
		Stage:        c.Stage,
		TemplatePath: c.Template,
		Metrics:      b.metrics,
	})

	opts := []lifecycle.Option{
		lifecycle.WithPlugin(b.plugin),
		lifecycle.WithMetrics(b.metrics),
		lifecycle.WithPatchedFunc(b.writeDescriptor),
	}
	if bo.bundles && c.Package.Enabled {
		b.packager = bundle.NewPackager(fs, c.Package.Dir, bundle.WithMetrics(b.metrics))
		opts = append(opts, lifecycle.WithPackager(b.packager))
	}
	b.runner = lifecycle.NewRunner(opts...)

	return b, nil
}

// outputPath is where the patched descriptor goes.
func (b *build) outputPath() string {
	if filepath.IsAbs(b.cfg.Output) {
		return b.cfg.Output
	}
	return filepath.Join(b.svc.Path, b.cfg.Output)
}

func (b *build) writeDescriptor(svc *service.Service) error {
	path := b.outputPath()
	if err := svc.Write(b.fs, path); err != nil {
		return fmt.Errorf("writing patched descriptor: %w", err)
	}
	log.Info().Str("path", path).Msg("Wrote patched descriptor")
	return nil
}

// finish flushes the build metrics, if a textfile is configured.
func (b *build) finish() error {
	if b.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := b.metrics.WriteTextfile(b.cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	log.Debug().Str("path", b.cfg.Metrics.Textfile).Msg("Wrote build metrics")
	return nil
}

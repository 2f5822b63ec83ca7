package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Financial-Times/serverless-plugin-about/internal/config"
	"github.com/Financial-Times/serverless-plugin-about/internal/lifecycle"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the about handler when the descriptor changes",
	Long: `Generate the about handler and the patched descriptor, then regenerate both
whenever the service descriptor or the handler template changes. A change to the
config file reloads the configuration first. Deployment bundles are not written and
the generated folder is kept.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regen := newRegenerator(appFs, cfg, func(path string) (*config.Config, error) {
		return config.Load(config.LoadOptions{ConfigFile: path, Viper: viper.GetViper()})
	})

	configPath, err := config.ConfigFilePath(cfgFile)
	switch {
	case err == nil:
		regen.configPath = configPath
	case errors.Is(err, config.ErrConfigNotFound):
		log.Debug().Msg("No config file found, config changes are not watched")
	default:
		return err
	}

	if err := regen.Run(ctx); err != nil {
		return err
	}

	dw, err := NewDescriptorWatcher(regen.watchPaths(), func(path string) {
		log.Info().Str("path", path).Msg("Change detected")
		if err := regen.Handle(ctx, path); err != nil {
			log.Error().Err(err).Msg("Regeneration failed")
		}
	})
	if err != nil {
		return err
	}
	dw.Start(ctx)
	defer func() { _ = dw.Stop() }()

	log.Info().Strs("paths", regen.watchPaths()).Msg("Watching for changes")
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")
	return nil
}

// configLoader reloads the tool configuration from the file at path.
type configLoader func(path string) (*config.Config, error)

// regenerator runs the initialize phases against a freshly loaded descriptor. Runs are
// serialized. When configPath is set, a change to that file reloads the configuration
// before regenerating.
type regenerator struct {
	mu         sync.Mutex
	fs         afero.Fs
	cfg        *config.Config
	configPath string
	load       configLoader
}

func newRegenerator(fs afero.Fs, c *config.Config, load configLoader) *regenerator {
	return &regenerator{fs: fs, cfg: c, load: load}
}

// watchPaths lists the files whose changes trigger a regeneration.
func (r *regenerator) watchPaths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := []string{r.cfg.Descriptor}
	if r.cfg.Template != "" {
		paths = append(paths, r.cfg.Template)
	}
	if r.configPath != "" {
		paths = append(paths, r.configPath)
	}
	return paths
}

// Handle reacts to a change of path: it reloads the configuration if path is the
// config file, then regenerates.
func (r *regenerator) Handle(ctx context.Context, path string) error {
	if r.configPath != "" && path == r.configPath {
		if err := r.reload(); err != nil {
			return err
		}
	}
	return r.Run(ctx)
}

func (r *regenerator) reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.load == nil {
		return nil
	}
	c, err := r.load(r.configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	if c.Descriptor != r.cfg.Descriptor || c.Template != r.cfg.Template {
		log.Warn().
			Str("descriptor", c.Descriptor).
			Str("template", c.Template).
			Msg("Watched paths changed, restart watch to follow them")
	}
	r.cfg = c
	log.Info().Str("path", r.configPath).Msg("Reloaded config")
	return nil
}

func (r *regenerator) Run(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := newBuild(r.fs, r.cfg, buildOptions{})
	if err != nil {
		return err
	}

	for _, phase := range []string{lifecycle.PhasePackageInitialize, lifecycle.PhaseAfterPackageInitialize} {
		if err := b.runner.RunHook(ctx, phase, b.svc); err != nil {
			return err
		}
	}
	return b.finish()
}

// DescriptorWatcher calls onChange when one of a fixed set of files is written or
// replaced. The parent directories are watched so editors that save by rename are
// picked up.
type DescriptorWatcher struct {
	watcher  *Watcher
	files    map[string]bool
	onChange func(path string)
}

// NewDescriptorWatcher creates a watcher for the given files.
func NewDescriptorWatcher(paths []string, onChange func(path string), opts ...WatcherOption) (*DescriptorWatcher, error) {
	w, err := NewWatcher(opts...)
	if err != nil {
		return nil, err
	}

	dw := &DescriptorWatcher{
		watcher:  w,
		files:    make(map[string]bool, len(paths)),
		onChange: onChange,
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = w.Stop()
			return nil, err
		}
		dw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := w.WatchDir(dir, dw.handle); err != nil {
			_ = w.Stop()
			return nil, err
		}
	}

	return dw, nil
}

func (dw *DescriptorWatcher) handle(event FileEvent) {
	if !dw.files[event.Path] {
		return
	}
	if event.Type != EventModified && event.Type != EventCreated {
		return
	}
	log.Debug().Str("event", event.Type.String()).Str("path", event.Path).Msg("Watched file changed")
	if dw.onChange != nil {
		dw.onChange(event.Path)
	}
}

// Start begins watching.
func (dw *DescriptorWatcher) Start(ctx context.Context) {
	dw.watcher.Start(ctx)
}

// Stop stops watching.
func (dw *DescriptorWatcher) Stop() error {
	return dw.watcher.Stop()
}

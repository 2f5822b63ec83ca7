package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var packageNoBundle bool

var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Run the package lifecycle",
	Long: `Run every phase of the package lifecycle in order:

  package:initialize
  after:package:initialize                 generate and register the about function
  package:createDeploymentArtifacts        write deployment bundles
  after:package:createDeploymentArtifacts  remove the generated folder

The patched descriptor is written to the configured output path.
Use --no-bundle to skip the deployment bundles.`,
	Args: cobra.NoArgs,
	RunE: runPackage,
}

func init() {
	packageCmd.Flags().BoolVar(&packageNoBundle, "no-bundle", false, "Skip writing deployment bundles")

	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, args []string) error {
	b, err := newBuild(appFs, cfg, buildOptions{bundles: !packageNoBundle})
	if err != nil {
		return err
	}

	if err := b.runner.Package(cmd.Context(), b.svc); err != nil {
		return err
	}

	evt := log.Info().Str("service", b.svc.Name).Str("descriptor", b.outputPath())
	if b.packager != nil {
		evt = evt.Int("bundles", len(b.packager.Bundles()))
	}
	evt.Msg("Package complete")

	return b.finish()
}

package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Financial-Times/serverless-plugin-about/internal/lifecycle"
)

var hookCmd = &cobra.Command{
	Use:   "hook <phase>",
	Short: "Run a single lifecycle phase",
	Long: `Run a single phase of the package lifecycle. This lets another tool drive the
lifecycle and call slsabout at the points it hooks into:

  after:package:initialize                 generate the handler, write the patched descriptor
  after:package:createDeploymentArtifacts  remove the generated folder`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: lifecycle.Phases(),
	RunE:      runHook,
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	phase := args[0]
	if !slices.Contains(lifecycle.Phases(), phase) {
		return fmt.Errorf("%w: %s", lifecycle.ErrUnknownPhase, phase)
	}

	b, err := newBuild(appFs, cfg, buildOptions{bundles: true})
	if err != nil {
		return err
	}

	if err := b.runner.RunHook(cmd.Context(), phase, b.svc); err != nil {
		return err
	}
	return b.finish()
}

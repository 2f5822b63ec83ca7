package cli

import (
	"github.com/spf13/cobra"

	"github.com/Financial-Times/serverless-plugin-about/internal/lifecycle"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the generated about folder",
	Long: `Remove the generated about folder, as the last phase of package does.
Nothing is removed when custom.about.cleanFolder is false.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	b, err := newBuild(appFs, cfg, buildOptions{})
	if err != nil {
		return err
	}
	return b.runner.RunHook(cmd.Context(), lifecycle.PhaseAfterCreateDeploymentArtifacts, b.svc)
}

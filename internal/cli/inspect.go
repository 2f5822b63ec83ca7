package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/Financial-Times/serverless-plugin-about/internal/about"
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the about descriptors and registration as JSON",
	Long: `Scan the service descriptor and print what a package run would generate: the
resolved options, the descriptor of every function and the function that would be
registered. Nothing is written.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// InspectReport is the output of the inspect command.
type InspectReport struct {
	Service      string                     `json:"service"`
	Stage        string                     `json:"stage"`
	Options      InspectOptions             `json:"options"`
	Functions    []about.FunctionDescriptor `json:"functions"`
	Registration InspectRegistration        `json:"registration"`
}

// InspectOptions mirrors about.Options for JSON output.
type InspectOptions struct {
	CleanFolder  bool   `json:"cleanFolder"`
	MemorySize   int    `json:"memorySize"`
	Name         string `json:"name"`
	Timeout      int    `json:"timeout"`
	Endpoint     string `json:"endpoint"`
	Format       any    `json:"format"`
	FolderName   string `json:"folderName"`
	Runtime      string `json:"runtime"`
	ArtifactPath string `json:"artifactPath"`
}

// InspectRegistration is the function entry the about function is registered as.
type InspectRegistration struct {
	Key      string                      `json:"key"`
	Function *service.FunctionDefinition `json:"function"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	svc, err := service.Load(appFs, cfg.Descriptor)
	if err != nil {
		return err
	}
	return writeInspect(cmd.OutOrStdout(), svc, cfg.Stage)
}

func inspect(svc *service.Service, stage string) InspectReport {
	resolvedStage := svc.Stage(stage)
	opts := about.ResolveFromCustom(svc.Custom, about.ServiceInfo{
		Name:  svc.Name,
		Stage: resolvedStage,
		Path:  svc.Path,
	})
	patch := about.Register(opts)

	return InspectReport{
		Service: svc.Name,
		Stage:   resolvedStage,
		Options: InspectOptions{
			CleanFolder:  opts.CleanFolderAfterBuild,
			MemorySize:   opts.MemorySizeMB,
			Name:         opts.FunctionName,
			Timeout:      opts.TimeoutSeconds,
			Endpoint:     opts.EndpointPath,
			Format:       opts.OutputFormat,
			FolderName:   opts.GeneratedFolderName,
			Runtime:      opts.Runtime,
			ArtifactPath: opts.ArtifactPath,
		},
		Functions: about.Scan(svc),
		Registration: InspectRegistration{
			Key:      patch.Key,
			Function: patch.Function,
		},
	}
}

func writeInspect(w io.Writer, svc *service.Service, stage string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(inspect(svc, stage))
}

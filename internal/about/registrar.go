package about

import (
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

// FunctionKey is the reserved functions key the about function is registered under.
const FunctionKey = "aboutPlugin"

// FunctionDescription is the description of the registered function.
const FunctionDescription = "Serverless About Plugin"

// Register builds the patch that adds the about function to the service. The function
// answers GET on the configured endpoint and is packaged individually with only the
// generated folder included.
func Register(opts Options) *service.Patch {
	return &service.Patch{
		Key: FunctionKey,
		Function: &service.FunctionDefinition{
			Name:        opts.FunctionName,
			Description: FunctionDescription,
			Handler:     opts.HandlerPath,
			Runtime:     opts.Runtime,
			MemorySize:  opts.MemorySizeMB,
			Timeout:     opts.TimeoutSeconds,
			Events: []service.EventDefinition{
				{
					HTTP: &service.HTTPDefinition{
						Path:    opts.EndpointPath,
						Method:  "get",
						Private: false,
					},
				},
			},
			Package: &service.Package{
				Individually: true,
				Exclude:      []string{"**"},
				Include:      []string{opts.GeneratedFolderName + "/**"},
			},
		},
	}
}

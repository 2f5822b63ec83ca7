// Package about generates an introspection endpoint from the about annotations of a
// service's http events and registers it as an extra function.
package about

import (
	"fmt"
	"math"
	"path/filepath"
)

// Default option values.
const (
	DefaultCleanFolder = true
	DefaultMemorySize  = 128 // MB
	DefaultTimeout     = 10  // seconds
	DefaultEndpoint    = "__about"
	DefaultFolderName  = "_about"
	DefaultRuntime     = "nodejs20.x"

	// ArtifactFile is the name of the generated handler source inside the folder.
	ArtifactFile = "serverless-plugin-about.js"
	// HandlerExport is the exported function of the generated handler.
	HandlerExport = "about"
)

// ServiceInfo identifies the service an about function is generated for.
type ServiceInfo struct {
	Name  string
	Stage string
	// Path is the directory the generated folder is rooted at.
	Path string
}

// Options is the resolved plugin configuration for one build.
type Options struct {
	CleanFolderAfterBuild bool
	MemorySizeMB          int
	FunctionName          string
	TimeoutSeconds        int
	EndpointPath          string
	// OutputFormat is an opaque value rendered into the output header; nil when unset.
	OutputFormat        any
	GeneratedFolderName string
	Runtime             string

	// FolderPath is the generated folder on disk.
	FolderPath string
	// ArtifactPath is the generated handler source on disk.
	ArtifactPath string
	// HandlerPath is the handler reference registered with the function.
	HandlerPath string
}

// DefaultFunctionName returns the function name used when none is configured.
func DefaultFunctionName(service, stage string) string {
	return fmt.Sprintf("%s-%s-about-plugin", service, stage)
}

// Resolve merges raw overrides (the custom.about block) with defaults. Overrides that
// are absent or of the wrong type fall back to the default; no error is reported.
func Resolve(raw any, svc ServiceInfo) Options {
	opts := Options{
		CleanFolderAfterBuild: DefaultCleanFolder,
		MemorySizeMB:          DefaultMemorySize,
		FunctionName:          DefaultFunctionName(svc.Name, svc.Stage),
		TimeoutSeconds:        DefaultTimeout,
		EndpointPath:          DefaultEndpoint,
		GeneratedFolderName:   DefaultFolderName,
		Runtime:               DefaultRuntime,
	}

	if overrides, ok := raw.(map[string]any); ok {
		if v, ok := overrides["cleanFolder"].(bool); ok {
			opts.CleanFolderAfterBuild = v
		}
		if v, ok := asInt(overrides["memorySize"]); ok {
			opts.MemorySizeMB = v
		}
		if v, ok := overrides["name"].(string); ok {
			opts.FunctionName = v
		}
		if v, ok := asInt(overrides["timeout"]); ok {
			opts.TimeoutSeconds = v
		}
		if v, ok := overrides["endpoint"].(string); ok {
			opts.EndpointPath = v
		}
		if v, ok := overrides["folderName"].(string); ok {
			opts.GeneratedFolderName = v
		}
		if v, ok := overrides["runtime"].(string); ok {
			opts.Runtime = v
		}
		opts.OutputFormat = overrides["format"]
	}

	opts.FolderPath = filepath.Join(svc.Path, opts.GeneratedFolderName)
	opts.ArtifactPath = filepath.Join(opts.FolderPath, ArtifactFile)
	opts.HandlerPath = opts.GeneratedFolderName + "/" + trimExt(ArtifactFile) + "." + HandlerExport

	return opts
}

// ResolveFromCustom resolves options from a service's custom block.
func ResolveFromCustom(custom map[string]any, svc ServiceInfo) Options {
	var raw any
	if custom != nil {
		raw = custom["about"]
	}
	return Resolve(raw, svc)
}

// asInt accepts any integer, or a float with an integral value.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

package about

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInfo = ServiceInfo{Name: "shop", Stage: "prod", Path: "/srv/shop"}

func TestResolve_Defaults(t *testing.T) {
	inputs := map[string]any{
		"nil":       nil,
		"empty map": map[string]any{},
		"not a map": "cleanFolder: false",
		"list":      []any{"a"},
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			opts := Resolve(raw, testInfo)

			assert.True(t, opts.CleanFolderAfterBuild)
			assert.Equal(t, 128, opts.MemorySizeMB)
			assert.Equal(t, "shop-prod-about-plugin", opts.FunctionName)
			assert.Equal(t, 10, opts.TimeoutSeconds)
			assert.Equal(t, "__about", opts.EndpointPath)
			assert.Equal(t, "_about", opts.GeneratedFolderName)
			assert.Equal(t, DefaultRuntime, opts.Runtime)
			assert.Nil(t, opts.OutputFormat)

			assert.Equal(t, filepath.Join("/srv/shop", "_about"), opts.FolderPath)
			assert.Equal(t, filepath.Join("/srv/shop", "_about", "serverless-plugin-about.js"), opts.ArtifactPath)
			assert.Equal(t, "_about/serverless-plugin-about.about", opts.HandlerPath)
		})
	}
}

func TestResolve_Overrides(t *testing.T) {
	format := map[string]any{"service": "shop", "owner": "team-a"}
	raw := map[string]any{
		"cleanFolder": false,
		"memorySize":  512,
		"name":        "custom-about",
		"timeout":     30,
		"endpoint":    "meta/about",
		"folderName":  "_generated",
		"format":      format,
		"runtime":     "nodejs18.x",
		"unknown":     "ignored",
	}

	opts := Resolve(raw, testInfo)

	require.False(t, opts.CleanFolderAfterBuild)
	require.Equal(t, 512, opts.MemorySizeMB)
	require.Equal(t, "custom-about", opts.FunctionName)
	require.Equal(t, 30, opts.TimeoutSeconds)
	require.Equal(t, "meta/about", opts.EndpointPath)
	require.Equal(t, "_generated", opts.GeneratedFolderName)
	require.Equal(t, format, opts.OutputFormat)
	require.Equal(t, "nodejs18.x", opts.Runtime)
	require.Equal(t, filepath.Join("/srv/shop", "_generated"), opts.FolderPath)
	require.Equal(t, "_generated/serverless-plugin-about.about", opts.HandlerPath)
}

func TestResolve_WrongTypesFallBack(t *testing.T) {
	raw := map[string]any{
		"cleanFolder": "false",
		"memorySize":  "512",
		"name":        42,
		"timeout":     12.5,
		"endpoint":    true,
		"folderName":  []any{"x"},
		"runtime":     map[string]any{},
	}

	opts := Resolve(raw, testInfo)
	want := Resolve(nil, testInfo)

	require.Equal(t, want, opts)
}

func TestResolve_NumericForms(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
	}{
		{name: "int", value: 256, want: 256},
		{name: "int64", value: int64(1024), want: 1024},
		{name: "uint64", value: uint64(64), want: 64},
		{name: "integral float", value: 256.0, want: 256},
		{name: "fractional float", value: 256.5, want: DefaultMemorySize},
		{name: "bool", value: true, want: DefaultMemorySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Resolve(map[string]any{"memorySize": tt.value}, testInfo)
			require.Equal(t, tt.want, opts.MemorySizeMB)
		})
	}
}

func TestResolveFromCustom(t *testing.T) {
	opts := ResolveFromCustom(nil, testInfo)
	require.Nil(t, opts.OutputFormat)
	require.True(t, opts.CleanFolderAfterBuild)

	opts = ResolveFromCustom(map[string]any{"other": 1}, testInfo)
	require.Equal(t, Resolve(nil, testInfo), opts)

	opts = ResolveFromCustom(map[string]any{"about": map[string]any{"format": nil}}, testInfo)
	require.Nil(t, opts.OutputFormat)
}

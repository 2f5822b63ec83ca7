package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Financial-Times/serverless-plugin-about/internal/about"
	"github.com/Financial-Times/serverless-plugin-about/internal/config"
	"github.com/Financial-Times/serverless-plugin-about/internal/lifecycle"
	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

const shopDescriptor = `service: shop
provider:
  name: aws
  stage: prod
custom:
  about:
    format:
      team: payments
functions:
  checkout:
    handler: handler.checkout
    events:
      - http:
          path: checkout
          method: post
          about:
            owner: payments
`

func setupService(t *testing.T, descriptor string) (afero.Fs, *config.Config) {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/srv/shop", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/srv/shop/serverless.yml", []byte(descriptor), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/srv/shop/handler.js", []byte("exports.checkout = 1"), 0o644))

	c := config.Default()
	c.Descriptor = "/srv/shop/serverless.yml"
	return fs, c
}

// withApp points the command globals at fs and c for the duration of the test.
func withApp(t *testing.T, fs afero.Fs, c *config.Config) {
	t.Helper()

	prevFs, prevCfg := appFs, cfg
	appFs, cfg = fs, c
	t.Cleanup(func() {
		appFs, cfg = prevFs, prevCfg
	})
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func loadPatched(t *testing.T, fs afero.Fs) *service.Service {
	t.Helper()

	svc, err := service.Load(fs, "/srv/shop/.serverless/serverless.about.yml")
	require.NoError(t, err)
	return svc
}

func TestBuild_Package(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)

	b, err := newBuild(fs, c, buildOptions{bundles: true})
	require.NoError(t, err)
	require.NotNil(t, b.packager)

	require.NoError(t, b.runner.Package(context.Background(), b.svc))

	patched := loadPatched(t, fs)
	fn, ok := patched.Function(about.FunctionKey)
	require.True(t, ok)
	assert.Equal(t, "shop-prod-about-plugin", fn.Name)
	assert.Equal(t, "_about/serverless-plugin-about.about", fn.Handler)
	require.Len(t, patched.Functions, 2)
	assert.Equal(t, "checkout", patched.Functions[0].Key)

	bundles := b.packager.Bundles()
	require.Len(t, bundles, 2)
	assert.Equal(t, about.FunctionKey, bundles[1].Name)
	assert.Equal(t, []string{"_about/serverless-plugin-about.js"}, bundles[1].Files)

	exists, err := afero.DirExists(fs, "/srv/shop/_about")
	require.NoError(t, err)
	assert.False(t, exists, "generated folder should be removed after packaging")
}

func TestBuild_PackagingDisabled(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	c.Package.Enabled = false

	b, err := newBuild(fs, c, buildOptions{bundles: true})
	require.NoError(t, err)
	assert.Nil(t, b.packager)

	require.NoError(t, b.runner.Package(context.Background(), b.svc))

	exists, err := afero.Exists(fs, "/srv/shop/.serverless/shop.zip")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBuild_StageOverride(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	c.Stage = "qa"

	b, err := newBuild(fs, c, buildOptions{})
	require.NoError(t, err)
	require.NoError(t, b.runner.RunHook(context.Background(), lifecycle.PhaseAfterPackageInitialize, b.svc))

	fn, ok := loadPatched(t, fs).Function(about.FunctionKey)
	require.True(t, ok)
	assert.Equal(t, "shop-qa-about-plugin", fn.Name)
}

func TestBuild_AbsoluteOutput(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	c.Output = "/out/serverless.yml"

	b, err := newBuild(fs, c, buildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/out/serverless.yml", b.outputPath())

	c.Output = "build/serverless.yml"
	assert.Equal(t, filepath.Join("/srv/shop", "build/serverless.yml"), b.outputPath())
}

func TestBuild_MissingDescriptor(t *testing.T) {
	c := config.Default()
	c.Descriptor = "/nowhere/serverless.yml"

	_, err := newBuild(afero.NewMemMapFs(), c, buildOptions{})
	require.Error(t, err)
}

func TestRunHook(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	withApp(t, fs, c)

	require.NoError(t, runHook(testCommand(), []string{lifecycle.PhaseAfterPackageInitialize}))

	exists, err := afero.Exists(fs, "/srv/shop/_about/serverless-plugin-about.js")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, runHook(testCommand(), []string{lifecycle.PhaseAfterCreateDeploymentArtifacts}))

	exists, err = afero.DirExists(fs, "/srv/shop/_about")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunHook_UnknownPhase(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	withApp(t, fs, c)

	err := runHook(testCommand(), []string{"before:deploy"})
	require.True(t, errors.Is(err, lifecycle.ErrUnknownPhase))
}

func TestRunClean_KeepsFolderWhenDisabled(t *testing.T) {
	fs, c := setupService(t, `service: shop
custom:
  about:
    cleanFolder: false
`)
	require.NoError(t, fs.MkdirAll("/srv/shop/_about", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/srv/shop/_about/serverless-plugin-about.js", []byte("x"), 0o644))
	withApp(t, fs, c)

	require.NoError(t, runClean(testCommand(), nil))

	exists, err := afero.Exists(fs, "/srv/shop/_about/serverless-plugin-about.js")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInspect(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	svc, err := service.Load(fs, c.Descriptor)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeInspect(&buf, svc, ""))

	var report InspectReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	assert.Equal(t, "shop", report.Service)
	assert.Equal(t, "prod", report.Stage)
	assert.Equal(t, "shop-prod-about-plugin", report.Options.Name)
	assert.Equal(t, map[string]any{"team": "payments"}, report.Options.Format)
	require.Len(t, report.Functions, 1)
	assert.Equal(t, "checkout", report.Functions[0].Name)
	require.Len(t, report.Functions[0].About, 1)
	assert.Equal(t, map[string]any{"owner": "payments"}, report.Functions[0].About[0].Info)
	assert.Equal(t, about.FunctionKey, report.Registration.Key)
	require.NotNil(t, report.Registration.Function)
	assert.Equal(t, "__about", report.Registration.Function.Events[0].HTTP.Path)

	exists, err := afero.DirExists(fs, "/srv/shop/_about")
	require.NoError(t, err)
	assert.False(t, exists, "inspect must not write anything")
}

func TestRegenerator_Run(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)
	regen := newRegenerator(fs, c, nil)

	require.NoError(t, regen.Run(context.Background()))

	updated := `service: shop
functions:
  refund:
    handler: handler.refund
    events:
      - http: POST refund
`
	require.NoError(t, afero.WriteFile(fs, c.Descriptor, []byte(updated), 0o644))
	require.NoError(t, regen.Run(context.Background()))

	data, err := afero.ReadFile(fs, "/srv/shop/_about/serverless-plugin-about.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), `[{"name":"refund","about":[]}]`)

	fn, ok := loadPatched(t, fs).Function(about.FunctionKey)
	require.True(t, ok)
	assert.Equal(t, "shop-dev-about-plugin", fn.Name)
}

func TestRegenerator_ReloadsConfigOnChange(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)

	configPath := filepath.Join(t.TempDir(), "slsabout.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("descriptor: /srv/shop/serverless.yml\n"), 0o600))

	regen := newRegenerator(fs, c, config.LoadFromFile)
	regen.configPath = configPath
	assert.Equal(t, []string{c.Descriptor, configPath}, regen.watchPaths())

	require.NoError(t, regen.Run(context.Background()))
	fn, ok := loadPatched(t, fs).Function(about.FunctionKey)
	require.True(t, ok)
	assert.Equal(t, "shop-prod-about-plugin", fn.Name)

	require.NoError(t, os.WriteFile(configPath, []byte("descriptor: /srv/shop/serverless.yml\nstage: qa\n"), 0o600))

	// A change to another file does not reload the config.
	require.NoError(t, regen.Handle(context.Background(), c.Descriptor))
	fn, ok = loadPatched(t, fs).Function(about.FunctionKey)
	require.True(t, ok)
	assert.Equal(t, "shop-prod-about-plugin", fn.Name)

	require.NoError(t, regen.Handle(context.Background(), configPath))
	fn, ok = loadPatched(t, fs).Function(about.FunctionKey)
	require.True(t, ok)
	assert.Equal(t, "shop-qa-about-plugin", fn.Name)
}

func TestRegenerator_InvalidConfigKeepsPrevious(t *testing.T) {
	fs, c := setupService(t, shopDescriptor)

	configPath := filepath.Join(t.TempDir(), "slsabout.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: loud\n"), 0o600))

	regen := newRegenerator(fs, c, config.LoadFromFile)
	regen.configPath = configPath

	err := regen.Handle(context.Background(), configPath)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Same(t, c, regen.cfg)
}

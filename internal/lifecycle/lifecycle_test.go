package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Financial-Times/serverless-plugin-about/internal/service"
)

type recorder struct {
	calls []string
}

type fakePlugin struct {
	name     string
	rec      *recorder
	patch    *service.Patch
	initErr  error
	afterErr error
}

func (f *fakePlugin) AfterPackageInitialize(_ context.Context, _ *service.Service) (*service.Patch, error) {
	f.rec.calls = append(f.rec.calls, f.name+":init")
	return f.patch, f.initErr
}

func (f *fakePlugin) AfterCreateDeploymentArtifacts(_ context.Context, _ *service.Service) error {
	f.rec.calls = append(f.rec.calls, f.name+":after")
	return f.afterErr
}

type fakePackager struct {
	rec *recorder
	err error
}

func (f *fakePackager) Package(_ context.Context, svc *service.Service) error {
	f.rec.calls = append(f.rec.calls, "package")
	return f.err
}

func testService(t *testing.T) *service.Service {
	t.Helper()
	svc, err := service.Parse([]byte("service: app\nfunctions:\n  a:\n    handler: a.handler\n"), ".")
	require.NoError(t, err)
	return svc
}

func testPatch() *service.Patch {
	return &service.Patch{
		Key:      "aboutPlugin",
		Function: &service.FunctionDefinition{Name: "app-dev-about-plugin", Handler: "_about/x.about"},
	}
}

func TestPhases(t *testing.T) {
	assert.Equal(t, []string{
		"package:initialize",
		"after:package:initialize",
		"package:createDeploymentArtifacts",
		"after:package:createDeploymentArtifacts",
	}, Phases())
}

func TestRunner_PackageOrder(t *testing.T) {
	rec := &recorder{}
	svc := testService(t)

	r := NewRunner(
		WithPlugin(&fakePlugin{name: "one", rec: rec, patch: testPatch()}),
		WithPlugin(&fakePlugin{name: "two", rec: rec}),
		WithPackager(&fakePackager{rec: rec}),
		WithPatchedFunc(func(s *service.Service) error {
			_, ok := s.Function("aboutPlugin")
			require.True(t, ok, "patch must be applied before the callback")
			rec.calls = append(rec.calls, "patched")
			return nil
		}),
	)

	require.NoError(t, r.Package(context.Background(), svc))
	require.Equal(t, []string{"one:init", "two:init", "patched", "package", "one:after", "two:after"}, rec.calls)
	require.Len(t, svc.Functions, 2)
}

func TestRunner_AbortsOnInitializeFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")

	r := NewRunner(
		WithPlugin(&fakePlugin{name: "one", rec: rec, initErr: boom}),
		WithPackager(&fakePackager{rec: rec}),
	)

	err := r.Package(context.Background(), testService(t))
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), PhaseAfterPackageInitialize)
	require.Equal(t, []string{"one:init"}, rec.calls)
}

func TestRunner_AbortsOnPackagerFailure(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("disk full")

	r := NewRunner(
		WithPlugin(&fakePlugin{name: "one", rec: rec}),
		WithPackager(&fakePackager{rec: rec, err: boom}),
	)

	err := r.Package(context.Background(), testService(t))
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"one:init", "package"}, rec.calls)
}

func TestRunner_CleanupFailurePropagates(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("permission denied")

	r := NewRunner(WithPlugin(&fakePlugin{name: "one", rec: rec, afterErr: boom}))

	err := r.RunHook(context.Background(), PhaseAfterCreateDeploymentArtifacts, testService(t))
	require.ErrorIs(t, err, boom)
}

func TestRunner_UnknownPhase(t *testing.T) {
	err := NewRunner().RunHook(context.Background(), "deploy:finalize", testService(t))
	require.ErrorIs(t, err, ErrUnknownPhase)
}

func TestRunner_CancelledContext(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(WithPlugin(&fakePlugin{name: "one", rec: rec}))
	err := r.Package(ctx, testService(t))
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, rec.calls)
}

func TestRunner_NoPackager(t *testing.T) {
	require.NoError(t, NewRunner().RunHook(context.Background(), PhaseCreateDeploymentArtifacts, testService(t)))
}

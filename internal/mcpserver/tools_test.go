package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/secrets"
	"github.com/moasq/appcenter-postbuild/internal/service"
)

func newHandlers(t *testing.T, settings string) (*handlers, string) {
	t.Helper()
	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, config.SettingsFileName), []byte(settings), 0o644))
	svc := service.NewWithStore(service.Options{ProjectDir: project}, secrets.NewFileStore(t.TempDir()))
	return &handlers{svc: svc}, project
}

func TestNewServer(t *testing.T) {
	h, _ := newHandlers(t, "")
	assert.NotNil(t, NewServer(h.svc, "test"))
}

func TestRunPostbuild(t *testing.T) {
	h, _ := newHandlers(t, "scripting_backend: il2cpp\n")
	out := t.TempDir()
	manifest := filepath.Join(out, "App", "Package.appxmanifest")
	require.NoError(t, os.MkdirAll(filepath.Dir(manifest), 0o755))
	require.NoError(t, os.WriteFile(manifest, []byte(`<Package/>`), 0o644))

	_, res, err := h.runPostbuild(context.Background(), nil, runPostbuildInput{Target: "uwp", OutputPath: out})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Entries)
	assert.Equal(t, 0, res.Errors)

	_, _, err = h.runPostbuild(context.Background(), nil, runPostbuildInput{Target: "uwp"})
	assert.Error(t, err)
}

func TestEnsureCapability(t *testing.T) {
	h, _ := newHandlers(t, "")
	out := t.TempDir()
	manifest := filepath.Join(out, "Package.appxmanifest")
	require.NoError(t, os.WriteFile(manifest, []byte(`<Package><Capabilities/></Package>`), 0o644))

	_, res, err := h.ensureCapability(context.Background(), nil, ensureCapabilityInput{OutputPath: out})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "internetClient")

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<Capability Name="internetClient"/>`)
}

func TestUpsertDependency(t *testing.T) {
	h, _ := newHandlers(t, "")
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"dependencies\": {\n    \"A\": \"1\"\n  }\n}\n"), 0o644))

	in := upsertDependencyInput{ManifestPath: path, PackageID: "A", Version: "2"}
	_, res, err := h.upsertDependency(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, "Set A to 2.", res.Message)

	_, res, err = h.upsertDependency(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, "A 2 already present.", res.Message)

	_, _, err = h.upsertDependency(context.Background(), nil, upsertDependencyInput{ManifestPath: path})
	assert.Error(t, err)
}

func TestGetFeatureFlags(t *testing.T) {
	h, project := newHandlers(t, "use_push: true\nios_app_secret: 0123456789\nproduct_name: Game\n")

	_, res, err := h.getFeatureFlags(context.Background(), nil, getFeatureFlagsInput{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, config.SettingsFileName), res.SettingsPath)
	assert.True(t, res.UsePush)
	assert.False(t, res.PushEnabled, "Push module is not installed")
	assert.Equal(t, "******6789", res.IOSAppSecret)
	assert.Equal(t, "Game", res.TileShortName)
}

package platform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/patch"
	"github.com/moasq/appcenter-postbuild/internal/terminal"
)

const emptyManifest = `<Package><Capabilities></Capabilities></Package>`

const projectJSON = `{
  "dependencies": {
    "Microsoft.NETCore.UniversalWindowsPlatform": "5.0.0"
  }
}
`

func put(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type uwpFixture struct {
	out, sdk string
	flags    config.FeatureFlags
}

func newUWPFixture(t *testing.T, backend config.ScriptingBackend, ui config.UIFramework) *uwpFixture {
	t.Helper()
	f := &uwpFixture{out: t.TempDir(), sdk: t.TempDir()}
	f.flags = config.FeatureFlags{
		UsePush:          true,
		PushAvailable:    true,
		ProductName:      "Game",
		TileShortName:    "Game",
		ScriptingBackend: backend,
		UIFramework:      ui,
		SDKRoot:          f.sdk,
		ToolchainPath:    "/opt/unity/Editor/Data",
		RestoreTimeout:   42 * time.Second,
	}
	put(t, filepath.Join(f.out, "Game", patch.AppManifestFileName), emptyManifest)
	for _, name := range []string{"d3ddotnet.txt", "xamldotnet.txt", "xamlil2cpp.txt", "d3dil2cpp.txt"} {
		put(t, filepath.Join(AppAdditionsDir(f.sdk), name), "Push(); // "+name)
	}
	return f
}

func (f *uwpFixture) manifest() string {
	return filepath.Join(f.out, "Game", patch.AppManifestFileName)
}

func TestUWP_DotNetXAML(t *testing.T) {
	f := newUWPFixture(t, config.BackendDotNet, config.UIXAML)
	appFile := filepath.Join(f.out, "Game", "App.xaml.cs")
	put(t, appFile, "void OnLaunched() {\n    InitializeUnity(args.Arguments);\n}\n")
	manifestJSON := filepath.Join(f.out, "Game", "project.json")
	put(t, manifestJSON, projectJSON)

	runner := &fakeRunner{}
	log := &terminal.Recorder{}
	(&UWP{Runner: runner}).Apply(context.Background(), f.out, f.flags, NewSteps(log))

	assert.Contains(t, read(t, f.manifest()), `<Capability Name="internetClient"/>`)

	app := read(t, appFile)
	assert.Contains(t, app, "// "+patch.SentinelComment+"\nPush(); // xamldotnet.txt")
	assert.NotContains(t, app, "InitializeUnity(args.Arguments);", "anchor is replaced by the template")

	merged := read(t, manifestJSON)
	for _, dep := range NativeDependencies {
		assert.Contains(t, merged, `"`+dep.PackageID+`": "`+dep.Version+`"`)
	}

	require.Len(t, runner.calls, 1)
	assert.Equal(t, NugetPath(f.flags.ToolchainPath), runner.calls[0].command)
	assert.Equal(t, []string{"restore", manifestJSON, "-NonInteractive"}, runner.calls[0].args)
	assert.Equal(t, 42*time.Second, runner.calls[0].timeout)
	assert.Equal(t, 0, log.Count(terminal.LevelError), log.String())
}

func TestUWP_DotNetD3DKeepsAnchor(t *testing.T) {
	f := newUWPFixture(t, config.BackendDotNet, config.UID3D)
	appFile := filepath.Join(f.out, "Game", "App.cs")
	put(t, appFile, "private void ApplicationView_Activated(CoreApplicationView sender, IActivatedEventArgs args)\n{\n    base();\n}\n")
	put(t, filepath.Join(f.out, "Game", "project.json"), projectJSON)

	(&UWP{Runner: &fakeRunner{}}).Apply(context.Background(), f.out, f.flags, NewSteps(&terminal.Recorder{}))

	app := read(t, appFile)
	assert.True(t, strings.HasPrefix(app,
		"private void ApplicationView_Activated(CoreApplicationView sender, IActivatedEventArgs args)\n{\n// "+patch.SentinelComment+"\nPush(); // d3ddotnet.txt"), app)
}

func TestUWP_IL2CPP(t *testing.T) {
	f := newUWPFixture(t, config.BackendIL2CPP, config.UIXAML)
	appFile := filepath.Join(f.out, "Game", "App.xaml.cpp")
	put(t, appFile, "void App::OnLaunched() {\n\tInitializeUnity(e->Arguments);\n}\n")
	put(t, DebuggerReplacement(f.sdk), "// fixed debugger")
	put(t, GeneratedDebugger(f.out), "// generated debugger")

	runner := &fakeRunner{}
	(&UWP{Runner: runner}).Apply(context.Background(), f.out, f.flags, NewSteps(&terminal.Recorder{}))

	assert.Contains(t, read(t, appFile), "Push(); // xamlil2cpp.txt")
	assert.Equal(t, "// fixed debugger", read(t, GeneratedDebugger(f.out)))
	assert.Empty(t, runner.calls, "IL2CPP builds never restore packages")
}

func TestUWP_IL2CPPD3D(t *testing.T) {
	f := newUWPFixture(t, config.BackendIL2CPP, config.UID3D)
	appFile := filepath.Join(f.out, "Game", "App.cpp")
	put(t, appFile, "void App::OnActivated(CoreApplicationView^ applicationView, IActivatedEventArgs^ args)\n{\n}\n")

	(&UWP{}).Apply(context.Background(), f.out, f.flags, NewSteps(&terminal.Recorder{}))

	assert.Contains(t, read(t, appFile), "IActivatedEventArgs^ args)\n{\n// "+patch.SentinelComment+"\nPush(); // d3dil2cpp.txt")
}

func TestUWP_Idempotent(t *testing.T) {
	f := newUWPFixture(t, config.BackendDotNet, config.UIXAML)
	appFile := filepath.Join(f.out, "Game", "App.xaml.cs")
	put(t, appFile, "InitializeUnity(args.Arguments);\n")
	manifestJSON := filepath.Join(f.out, "Game", "project.json")
	put(t, manifestJSON, projectJSON)

	u := &UWP{Runner: &fakeRunner{}}
	u.Apply(context.Background(), f.out, f.flags, NewSteps(&terminal.Recorder{}))
	first := []string{read(t, f.manifest()), read(t, appFile), read(t, manifestJSON)}

	u.Apply(context.Background(), f.out, f.flags, NewSteps(&terminal.Recorder{}))
	assert.Equal(t, first, []string{read(t, f.manifest()), read(t, appFile), read(t, manifestJSON)})
}

func TestUWP_PushDisabledSkipsInjection(t *testing.T) {
	f := newUWPFixture(t, config.BackendIL2CPP, config.UIXAML)
	f.flags.PushAvailable = false
	appFile := filepath.Join(f.out, "Game", "App.xaml.cpp")
	original := "InitializeUnity(e->Arguments);\n"
	put(t, appFile, original)

	(&UWP{}).Apply(context.Background(), f.out, f.flags, NewSteps(&terminal.Recorder{}))

	assert.Equal(t, original, read(t, appFile))
	assert.Contains(t, read(t, f.manifest()), "internetClient")
}

func TestUWP_StepsAreIndependent(t *testing.T) {
	f := newUWPFixture(t, config.BackendIL2CPP, config.UIXAML)
	// Two manifests: the capability step cannot pick one.
	put(t, filepath.Join(f.out, "Other", patch.AppManifestFileName), emptyManifest)
	// App file lacks the anchor.
	put(t, filepath.Join(f.out, "Game", "App.xaml.cpp"), "nothing here\n")
	put(t, DebuggerReplacement(f.sdk), "// fixed debugger")
	put(t, GeneratedDebugger(f.out), "// generated debugger")

	log := &terminal.Recorder{}
	(&UWP{}).Apply(context.Background(), f.out, f.flags, NewSteps(log))

	assert.Equal(t, emptyManifest, read(t, f.manifest()))
	assert.True(t, log.Contains(terminal.LevelWarning, "internetClient"), log.String())
	assert.True(t, log.Contains(terminal.LevelError, patch.TroubleshootingURL), log.String())
	assert.Equal(t, "// fixed debugger", read(t, GeneratedDebugger(f.out)))
}

func TestUWP_RestoreSkippedWhenMergeFails(t *testing.T) {
	f := newUWPFixture(t, config.BackendDotNet, config.UIXAML)
	f.flags.PushAvailable = false

	runner := &fakeRunner{}
	log := &terminal.Recorder{}
	(&UWP{Runner: runner}).Apply(context.Background(), f.out, f.flags, NewSteps(log))

	assert.Empty(t, runner.calls)
	assert.True(t, log.Contains(terminal.LevelWarning, "project.json"), log.String())
}

func TestUWP_RestoreRunsAfterSkippedEntries(t *testing.T) {
	f := newUWPFixture(t, config.BackendDotNet, config.UIXAML)
	f.flags.PushAvailable = false
	manifestJSON := filepath.Join(f.out, "Game", "project.json")
	put(t, manifestJSON, "{\n  \"dependencies\": {\n    \"Newtonsoft.Json\": { \"version\": \"9.0.1\" }\n  }\n}\n")

	runner := &fakeRunner{}
	log := &terminal.Recorder{}
	(&UWP{Runner: runner}).Apply(context.Background(), f.out, f.flags, NewSteps(log))

	merged := read(t, manifestJSON)
	assert.Contains(t, merged, `"sqlite-net-pcl": "1.3.1"`)
	assert.Contains(t, merged, `"System.Collections.NonGeneric": "4.0.1"`)
	assert.True(t, log.Contains(terminal.LevelWarning, "Newtonsoft.Json"), log.String())
	assert.Len(t, runner.calls, 1)
}

func TestUWP_RestoreFailureIsLogged(t *testing.T) {
	f := newUWPFixture(t, config.BackendDotNet, config.UIXAML)
	f.flags.PushAvailable = false
	put(t, filepath.Join(f.out, "Game", "project.json"), projectJSON)

	log := &terminal.Recorder{}
	(&UWP{Runner: &fakeRunner{err: patch.ErrSubprocess}}).Apply(context.Background(), f.out, f.flags, NewSteps(log))

	assert.True(t, log.Contains(terminal.LevelError, "Restore NuGet packages"), log.String())
}

func TestUWP_MissingAppFile(t *testing.T) {
	f := newUWPFixture(t, config.BackendIL2CPP, config.UIXAML)
	log := &terminal.Recorder{}
	(&UWP{}).Apply(context.Background(), f.out, f.flags, NewSteps(log))

	assert.True(t, log.Contains(terminal.LevelWarning, "Inject push code"), log.String())
}

func TestLookupInjectionPoint(t *testing.T) {
	for _, backend := range []config.ScriptingBackend{config.BackendDotNet, config.BackendIL2CPP} {
		for _, ui := range []config.UIFramework{config.UIXAML, config.UID3D} {
			point, ok := LookupInjectionPoint(backend, ui)
			require.True(t, ok, "%s/%s", backend, ui)
			assert.NotEmpty(t, point.TargetFile)
			assert.NotEmpty(t, point.Template)
			// Pushing into XAML apps replaces the InitializeUnity call; D3D apps keep the anchor.
			assert.Equal(t, ui == config.UID3D, point.IncludeAnchor)
		}
	}
	_, ok := LookupInjectionPoint("mono", config.UIXAML)
	assert.False(t, ok)
}

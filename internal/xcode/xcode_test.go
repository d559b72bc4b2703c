package xcode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/moasq/appcenter-postbuild/internal/patch"
)

// newOutput lays out a generated iOS build with the fixture project and
// an Info.plist.
func newOutput(t *testing.T) string {
	t.Helper()
	out := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "project.pbxproj"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(ProjectPath(out)), 0o755))
	require.NoError(t, os.WriteFile(ProjectPath(out), data, 0o644))

	info, err := plist.MarshalIndent(map[string]any{"CFBundleName": "Game"}, plist.XMLFormat, "\t")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(out, "Info.plist"), info, 0o644))
	return out
}

func decodePlist(t *testing.T, path string) (map[string]any, int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]any
	format, err := plist.Unmarshal(data, &m)
	require.NoError(t, err)
	return m, format
}

func TestProject_AddBuildProperty(t *testing.T) {
	out := newOutput(t)
	p, err := OpenProject(out)
	require.NoError(t, err)

	p.AddBuildProperty("OTHER_LDFLAGS", "-lsqlite3")
	p.AddBuildProperty("CLANG_ENABLE_MODULES", "YES")

	assert.Equal(t, [][]string{
		{"$(inherited)", "-lsqlite3"},
		{"$(inherited)", "-weak_framework", "-lsqlite3"},
	}, p.BuildProperty("OTHER_LDFLAGS"))
	assert.Equal(t, [][]string{{"YES"}, {"YES"}}, p.BuildProperty("CLANG_ENABLE_MODULES"))

	assert.Contains(t, p.String(), "\t\t\t\tOTHER_LDFLAGS = (\n\t\t\t\t\t\"$(inherited)\",\n\t\t\t\t\t\"-lsqlite3\",\n\t\t\t\t);")
	assert.Contains(t, p.String(), "\t\t\t\tCLANG_ENABLE_MODULES = YES;\n")
	require.NoError(t, p.Save())

	// The test target keeps its settings.
	tests, err := OpenProjectFile(ProjectPath(out), "Unity-iPhone Tests")
	require.NoError(t, err)
	assert.Equal(t, [][]string{nil}, tests.BuildProperty("OTHER_LDFLAGS"))
	assert.Equal(t, [][]string{{"Tests"}}, tests.BuildProperty("PRODUCT_NAME"))
}

func TestProject_AddBuildPropertyIdempotent(t *testing.T) {
	out := newOutput(t)
	p, err := OpenProject(out)
	require.NoError(t, err)
	p.AddBuildProperty("OTHER_LDFLAGS", "-lsqlite3")
	p.AddBuildProperty("CLANG_ENABLE_MODULES", "YES")
	require.NoError(t, p.Save())
	saved, err := os.ReadFile(ProjectPath(out))
	require.NoError(t, err)

	again, err := OpenProject(out)
	require.NoError(t, err)
	again.AddBuildProperty("OTHER_LDFLAGS", "-lsqlite3")
	again.AddBuildProperty("CLANG_ENABLE_MODULES", "YES")
	assert.Equal(t, string(saved), again.String())
	assert.False(t, again.changed)
}

func TestProject_UnknownTargetEditsAllConfigurations(t *testing.T) {
	out := newOutput(t)
	p, err := OpenProjectFile(ProjectPath(out), "Missing")
	require.NoError(t, err)

	p.AddBuildProperty("CLANG_ENABLE_MODULES", "YES")
	assert.Equal(t, [][]string{{"YES"}, {"YES"}, {"YES"}}, p.BuildProperty("CLANG_ENABLE_MODULES"))
}

func TestProject_SetBuildProperty(t *testing.T) {
	out := newOutput(t)
	p, err := OpenProject(out)
	require.NoError(t, err)

	p.SetBuildProperty("OTHER_LDFLAGS", "-ObjC")
	p.SetBuildProperty("CODE_SIGN_ENTITLEMENTS", "Unity-iPhone/Unity-iPhone.entitlements")

	assert.Equal(t, [][]string{{"-ObjC"}, {"-ObjC"}}, p.BuildProperty("OTHER_LDFLAGS"))
	assert.Equal(t, [][]string{
		{"Unity-iPhone/Unity-iPhone.entitlements"},
		{"Unity-iPhone/Unity-iPhone.entitlements"},
	}, p.BuildProperty("CODE_SIGN_ENTITLEMENTS"))
	assert.Contains(t, p.String(), `CODE_SIGN_ENTITLEMENTS = "Unity-iPhone/Unity-iPhone.entitlements";`)
}

func TestProject_SaveOnlyWhenChanged(t *testing.T) {
	out := newOutput(t)
	p, err := OpenProject(out)
	require.NoError(t, err)
	require.NoError(t, os.Remove(ProjectPath(out)))

	require.NoError(t, p.Save())
	_, err = os.Stat(ProjectPath(out))
	assert.True(t, os.IsNotExist(err))
}

func TestSavesKeepPermissions(t *testing.T) {
	out := newOutput(t)
	info := filepath.Join(out, "Info.plist")
	require.NoError(t, os.Chmod(ProjectPath(out), 0o600))
	require.NoError(t, os.Chmod(info, 0o600))

	p, err := OpenProject(out)
	require.NoError(t, err)
	p.AddBuildProperty("CLANG_ENABLE_MODULES", "YES")
	require.NoError(t, p.Save())

	doc, err := OpenPlist(info)
	require.NoError(t, err)
	doc.Dict().SetString("CFBundleURLName", "com.example.game")
	require.NoError(t, doc.Save())

	for _, path := range []string{ProjectPath(out), info} {
		st, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), st.Mode().Perm(), path)
	}

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "temp file left behind: %s", e.Name())
	}
}

func TestOpenProject_Missing(t *testing.T) {
	_, err := OpenProject(t.TempDir())
	assert.ErrorIs(t, err, patch.ErrNotFound)

	_, err = ProjectOpener(t.TempDir())
	assert.ErrorIs(t, err, patch.ErrNotFound)
}

func TestSplitItemsHonoursQuotes(t *testing.T) {
	assert.Equal(t, []string{"a,b", "c", `say "hi"`}, splitItems(`"a,b", c, "say \"hi\"",`))
	assert.Equal(t, "plain", quote("plain"))
	assert.Equal(t, `"$(inherited)"`, quote("$(inherited)"))
}

func TestPlist_EditAndSave(t *testing.T) {
	out := newOutput(t)
	path := filepath.Join(out, "Info.plist")
	doc, err := PlistOpener(path)
	require.NoError(t, err)

	urlTypes := doc.Root().CreateArray("CFBundleURLTypes")
	entry := urlTypes.AddDict()
	entry.SetString("CFBundleURLName", "com.example.game")
	entry.CreateArray("CFBundleURLSchemes").AddString("appcenter-secret")
	require.NoError(t, doc.Save())

	m, format := decodePlist(t, path)
	assert.Equal(t, plist.XMLFormat, format)
	assert.Equal(t, "Game", m["CFBundleName"])
	assert.Equal(t, []any{map[string]any{
		"CFBundleURLName":    "com.example.game",
		"CFBundleURLSchemes": []any{"appcenter-secret"},
	}}, m["CFBundleURLTypes"])
}

func TestPlist_KeepsBinaryFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Info.plist")
	data, err := plist.Marshal(map[string]any{"UIBackgroundModes": []any{"audio"}}, plist.BinaryFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	doc, err := OpenPlist(path)
	require.NoError(t, err)
	modes, ok := doc.Dict().Array("UIBackgroundModes")
	require.True(t, ok)
	assert.True(t, modes.ContainsString("audio"))
	doc.Dict().SetBool("ITSAppUsesNonExemptEncryption", false)
	require.NoError(t, doc.Save())

	m, format := decodePlist(t, path)
	assert.Equal(t, plist.BinaryFormat, format)
	assert.Equal(t, false, m["ITSAppUsesNonExemptEncryption"])
}

func TestOpenPlist_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := OpenPlist(filepath.Join(dir, "none.plist"))
	assert.ErrorIs(t, err, patch.ErrNotFound)

	path := filepath.Join(dir, "array.plist")
	data, err := plist.Marshal([]any{"x"}, plist.XMLFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	_, err = OpenPlist(path)
	assert.Error(t, err)

	created, err := OpenOrCreatePlist(filepath.Join(dir, "new", "App.entitlements"))
	require.NoError(t, err)
	created.Dict().SetString("aps-environment", "development")
	require.NoError(t, created.Save())
	m, _ := decodePlist(t, filepath.Join(dir, "new", "App.entitlements"))
	assert.Equal(t, "development", m["aps-environment"])
}

func TestCapabilities_PushNotifications(t *testing.T) {
	out := newOutput(t)

	for range 2 {
		caps, err := CapabilitiesOpener(out, DefaultTarget)
		require.NoError(t, err)
		caps.AddPushNotifications(true)
		caps.AddRemoteNotificationsToBackgroundModes()
		require.NoError(t, caps.Save())
	}

	ent, _ := decodePlist(t, filepath.Join(out, DefaultTarget, DefaultTarget+".entitlements"))
	assert.Equal(t, "development", ent["aps-environment"])

	info, _ := decodePlist(t, filepath.Join(out, "Info.plist"))
	assert.Equal(t, []any{"remote-notification"}, info["UIBackgroundModes"])

	pbx, err := os.ReadFile(ProjectPath(out))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(pbx), `CODE_SIGN_ENTITLEMENTS = "Unity-iPhone/Unity-iPhone.entitlements";`))
}

func TestCapabilities_Production(t *testing.T) {
	out := newOutput(t)
	caps, err := OpenCapabilities(out, DefaultTarget)
	require.NoError(t, err)
	caps.AddPushNotifications(false)
	require.NoError(t, caps.Save())

	ent, _ := decodePlist(t, filepath.Join(out, DefaultTarget, DefaultTarget+".entitlements"))
	assert.Equal(t, "production", ent["aps-environment"])
}

package platform

import (
	"regexp"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/patch"
)

// InjectionPoint locates where the push hook goes in a generated UWP app.
type InjectionPoint struct {
	TargetFile    string
	Anchor        *regexp.Regexp
	Template      string
	IncludeAnchor bool
}

type injectionKey struct {
	backend config.ScriptingBackend
	ui      config.UIFramework
}

// injectionPoints holds one entry per scripting backend and UI framework.
// New toolchain quirks are edits to this table.
var injectionPoints = map[injectionKey]InjectionPoint{
	{config.BackendDotNet, config.UID3D}: {
		TargetFile:    "App.cs",
		Anchor:        regexp.MustCompile(patch.WhitespacePattern(`private void ApplicationView_Activated \( CoreApplicationView [a-zA-Z0-9_]*, IActivatedEventArgs args \) {`)),
		Template:      "d3ddotnet.txt",
		IncludeAnchor: true,
	},
	{config.BackendDotNet, config.UIXAML}: {
		TargetFile: "App.xaml.cs",
		Anchor:     regexp.MustCompile(`InitializeUnity\(args.Arguments\);`),
		Template:   "xamldotnet.txt",
	},
	{config.BackendIL2CPP, config.UIXAML}: {
		TargetFile: "App.xaml.cpp",
		Anchor:     regexp.MustCompile(`InitializeUnity\(e->Arguments\);`),
		Template:   "xamlil2cpp.txt",
	},
	{config.BackendIL2CPP, config.UID3D}: {
		TargetFile:    "App.cpp",
		Anchor:        regexp.MustCompile(patch.WhitespacePattern(`void App::OnActivated\(CoreApplicationView\s*\^ [a-zA-Z0-9_]+, IActivatedEventArgs\s*\^ [a-zA-Z0-9_]+\) {`)),
		Template:      "d3dil2cpp.txt",
		IncludeAnchor: true,
	},
}

// LookupInjectionPoint returns the injection point for a backend and UI framework.
func LookupInjectionPoint(backend config.ScriptingBackend, ui config.UIFramework) (InjectionPoint, bool) {
	point, ok := injectionPoints[injectionKey{backend, ui}]
	return point, ok
}

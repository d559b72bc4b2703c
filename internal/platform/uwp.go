package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/patch"
)

// NativeDependencies are merged into project.json for the .NET backend.
var NativeDependencies = []patch.Dependency{
	{PackageID: "Microsoft.NETCore.UniversalWindowsPlatform", Version: "5.2.2"},
	{PackageID: "Newtonsoft.Json", Version: "10.0.3"},
	{PackageID: "sqlite-net-pcl", Version: "1.3.1"},
	{PackageID: "System.Collections.NonGeneric", Version: "4.0.1"},
}

// CommandRunner runs an external tool with a timeout.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string, timeout time.Duration) error
}

// UWP patches a generated Visual Studio UWP solution.
type UWP struct {
	Runner CommandRunner
}

// AppAdditionsDir holds the push hook templates.
func AppAdditionsDir(sdkRoot string) string {
	return filepath.Join(sdkRoot, "AppCenter", "Plugins", "WSA", "Push", "AppAdditions")
}

// DebuggerReplacement is the fixed copy of the IL2CPP Debugger shim.
func DebuggerReplacement(sdkRoot string) string {
	return filepath.Join(sdkRoot, "AppCenter", "Plugins", "WSA", "IL2CPP", "Debugger.cpp.txt")
}

// GeneratedDebugger is the toolchain-generated shim the replacement overwrites.
func GeneratedDebugger(outputPath string) string {
	return filepath.Join(outputPath, "Il2CppOutputProject", "IL2CPP", "libil2cpp", "icalls",
		"mscorlib", "System.Diagnostics", "Debugger.cpp")
}

// NugetPath locates nuget.exe inside the host toolchain installation.
func NugetPath(toolchainPath string) string {
	return filepath.Join(toolchainPath, "PlaybackEngines", "MetroSupport", "Tools", "nuget.exe")
}

// Apply runs the UWP steps. Each step is attempted regardless of the others.
func (u *UWP) Apply(ctx context.Context, outputPath string, flags config.FeatureFlags, steps *Steps) {
	steps.Do("Add internetClient capability", func() error {
		return patch.EnsureCapability(outputPath, patch.InternetClient)
	})

	if flags.PushEnabled() {
		steps.Do("Inject push code", func() error {
			return injectPushCode(outputPath, flags)
		})
	}

	if flags.ScriptingBackend != config.BackendIL2CPP {
		projectJSON := filepath.Join(outputPath, flags.ProductName, "project.json")
		err := steps.Do("Add NuGet dependencies", func() error {
			_, err := patch.MergeDependencies(projectJSON, NativeDependencies)
			return err
		})
		// Skipped entries still leave a manifest worth restoring.
		if err != nil && !errors.Is(err, patch.ErrUnsupportedEntry) {
			return
		}
		steps.Do("Restore NuGet packages", func() error {
			if u.Runner == nil {
				return fmt.Errorf("restore runner: %w", patch.ErrCollaboratorUnavailable)
			}
			args := []string{"restore", projectJSON, "-NonInteractive"}
			return u.Runner.Run(ctx, NugetPath(flags.ToolchainPath), args, flags.RestoreTimeout)
		})
		return
	}

	steps.Do("Fix IL2CPP Debugger logging", func() error {
		return patch.ReplaceFile(DebuggerReplacement(flags.SDKRoot), GeneratedDebugger(outputPath))
	})
}

func injectPushCode(outputPath string, flags config.FeatureFlags) error {
	point, ok := LookupInjectionPoint(flags.ScriptingBackend, flags.UIFramework)
	if !ok {
		return fmt.Errorf("no push hook for %s/%s: %w", flags.ScriptingBackend, flags.UIFramework, patch.ErrNotFound)
	}

	template, err := os.ReadFile(filepath.Join(AppAdditionsDir(flags.SDKRoot), point.Template))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("push template %s: %w", point.Template, patch.ErrNotFound)
		}
		return err
	}

	return patch.Inject(appFilePath(outputPath, flags.TileShortName, point.TargetFile), point.Anchor, string(template), point.IncludeAnchor)
}

// appFilePath returns the generated app source file, or "" when the
// file does not exist.
func appFilePath(outputPath, tileShortName, name string) string {
	candidate := filepath.Join(outputPath, tileShortName, name)
	if info, err := os.Stat(candidate); err != nil || info.IsDir() {
		return ""
	}
	return candidate
}

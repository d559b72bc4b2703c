package platform

import (
	"context"
	"path/filepath"

	"github.com/moasq/appcenter-postbuild/internal/config"
	"github.com/moasq/appcenter-postbuild/internal/editors"
)

// UnityTargetName is the main app target of a generated Xcode project.
const UnityTargetName = "Unity-iPhone"

// IOSCollaborators are the optional structured editors. A nil opener
// means the editor is not installed.
type IOSCollaborators struct {
	OpenProject      func(outputPath string) (editors.ProjectEditor, error)
	OpenPlist        func(path string) (editors.PlistDocument, error)
	OpenCapabilities func(outputPath, targetName string) (editors.CapabilityManager, error)
}

// IOS patches a generated Xcode project.
type IOS struct {
	Editors IOSCollaborators
}

// Apply runs the iOS steps when both the project and plist editors exist.
func (s *IOS) Apply(ctx context.Context, outputPath string, flags config.FeatureFlags, steps *Steps) {
	if s.Editors.OpenProject == nil || s.Editors.OpenPlist == nil {
		return
	}

	steps.Do("Update Xcode build settings", func() error {
		project, err := s.Editors.OpenProject(outputPath)
		if err != nil {
			return err
		}
		// -lsqlite3 for the SDK's embedded SQLite storage.
		project.AddBuildProperty("OTHER_LDFLAGS", "-lsqlite3")
		project.AddBuildProperty("CLANG_ENABLE_MODULES", "YES")
		return project.Save()
	})

	if flags.DistributeEnabled() {
		steps.Do("Add App Center URL scheme", func() error {
			info, err := s.Editors.OpenPlist(filepath.Join(outputPath, "Info.plist"))
			if err != nil {
				return err
			}
			AddURLScheme(info.Root(), flags.ApplicationID, flags.IOSAppSecret)
			return info.Save()
		})
	}

	if s.Editors.OpenCapabilities != nil && flags.PushEnabled() {
		steps.Do("Add push capabilities", func() error {
			caps, err := s.Editors.OpenCapabilities(outputPath, UnityTargetName)
			if err != nil {
				return err
			}
			caps.AddPushNotifications(true)
			caps.AddRemoteNotificationsToBackgroundModes()
			return caps.Save()
		})
	}
}

// AddURLScheme writes the CFBundleURLTypes entry that routes
// "appcenter-<secret>" callbacks back to the app.
func AddURLScheme(root editors.PlistDict, applicationID, appSecret string) {
	urlTypes := root.CreateArray("CFBundleURLTypes")
	urlType := urlTypes.AddDict()
	urlType.SetString("CFBundleTypeRole", "None")
	urlType.SetString("CFBundleURLName", applicationID)
	urlType.CreateArray("CFBundleURLSchemes").AddString(URLScheme(appSecret))
}

// URLScheme returns the App Center URL scheme for an app secret.
func URLScheme(appSecret string) string {
	return "appcenter-" + appSecret
}


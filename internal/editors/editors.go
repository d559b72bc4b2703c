// Package editors declares the structured-editor collaborators the iOS
// and Android strategies consume. Implementations live elsewhere
// (internal/xcode); a strategy given no implementation skips silently.
package editors

import "context"

// ProjectEditor edits build settings of a generated native project.
type ProjectEditor interface {
	// AddBuildProperty adds value to the named setting, keeping
	// existing values.
	AddBuildProperty(name, value string)
	Save() error
}

// PlistDict is a dictionary node of a property list.
type PlistDict interface {
	// CreateArray sets key to a new empty array and returns it.
	CreateArray(key string) PlistArray
	// CreateDict sets key to a new empty dictionary and returns it.
	CreateDict(key string) PlistDict
	SetString(key, value string)
}

// PlistArray is an array node of a property list.
type PlistArray interface {
	AddDict() PlistDict
	AddString(value string)
}

// PlistDocument is an editable property list file.
type PlistDocument interface {
	Root() PlistDict
	Save() error
}

// CapabilityManager appends entitlements and background modes.
type CapabilityManager interface {
	AddPushNotifications(development bool)
	AddRemoteNotificationsToBackgroundModes()
	Save() error
}

// AndroidHook runs the Android-specific post-build setup on an exported project.
type AndroidHook interface {
	OnPostBuild(ctx context.Context, projectPath string) error
}

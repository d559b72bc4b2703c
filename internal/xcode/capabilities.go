package xcode

import (
	"path/filepath"
)

const (
	apsEnvironment       = "aps-environment"
	backgroundModes      = "UIBackgroundModes"
	remoteNotification   = "remote-notification"
	codeSignEntitlements = "CODE_SIGN_ENTITLEMENTS"
)

// Capabilities edits the entitlements file, Info.plist and the
// CODE_SIGN_ENTITLEMENTS setting of one target.
type Capabilities struct {
	entitlementsRel string
	entitlements    *Plist
	info            *Plist
	project         *Project
}

// OpenCapabilities loads the project, Info.plist and the target's
// entitlements (created on save when missing).
func OpenCapabilities(outputPath, target string) (*Capabilities, error) {
	project, err := OpenProjectFile(filepath.Join(outputPath, DefaultTarget+".xcodeproj", "project.pbxproj"), target)
	if err != nil {
		return nil, err
	}
	info, err := OpenPlist(filepath.Join(outputPath, "Info.plist"))
	if err != nil {
		return nil, err
	}
	rel := filepath.ToSlash(filepath.Join(target, target+".entitlements"))
	entitlements, err := OpenOrCreatePlist(filepath.Join(outputPath, rel))
	if err != nil {
		return nil, err
	}
	return &Capabilities{
		entitlementsRel: rel,
		entitlements:    entitlements,
		info:            info,
		project:         project,
	}, nil
}

// AddPushNotifications sets the aps-environment entitlement and points
// the target at the entitlements file.
func (c *Capabilities) AddPushNotifications(development bool) {
	env := "production"
	if development {
		env = "development"
	}
	c.entitlements.Dict().SetString(apsEnvironment, env)
	c.project.SetBuildProperty(codeSignEntitlements, c.entitlementsRel)
}

// AddRemoteNotificationsToBackgroundModes adds remote-notification to
// UIBackgroundModes unless it is already listed.
func (c *Capabilities) AddRemoteNotificationsToBackgroundModes() {
	root := c.info.Dict()
	modes, ok := root.Array(backgroundModes)
	if !ok {
		root.CreateArray(backgroundModes).AddString(remoteNotification)
		return
	}
	if !modes.ContainsString(remoteNotification) {
		modes.AddString(remoteNotification)
	}
}

// Save writes the entitlements, Info.plist and project.
func (c *Capabilities) Save() error {
	if err := c.entitlements.Save(); err != nil {
		return err
	}
	if err := c.info.Save(); err != nil {
		return err
	}
	return c.project.Save()
}

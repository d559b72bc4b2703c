package xcode

import "github.com/moasq/appcenter-postbuild/internal/editors"

// Openers adapt the concrete editors to the collaborator interfaces.

func ProjectOpener(outputPath string) (editors.ProjectEditor, error) {
	p, err := OpenProject(outputPath)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func PlistOpener(path string) (editors.PlistDocument, error) {
	p, err := OpenPlist(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func CapabilitiesOpener(outputPath, target string) (editors.CapabilityManager, error) {
	c, err := OpenCapabilities(outputPath, target)
	if err != nil {
		return nil, err
	}
	return c, nil
}

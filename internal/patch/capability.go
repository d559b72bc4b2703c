package patch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

// Package.appxmanifest layout:
//
//	<Package>
//	  <Capabilities>
//	    <Capability Name="internetClient" />
//	  </Capabilities>
//	</Package>
const (
	AppManifestFileName     = "Package.appxmanifest"
	CapabilitiesElement     = "Capabilities"
	CapabilityElement       = "Capability"
	CapabilityNameAttribute = "Name"
	InternetClient          = "internetClient"

	deviceCapabilityElement = "DeviceCapability"
)

// FindFiles returns every regular file named name under root.
func FindFiles(root, name string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, ErrNotFound)
		}
		return nil, err
	}
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are not candidates.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if !d.IsDir() && d.Name() == name {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// EnsureCapability declares capabilityName in the single
// Package.appxmanifest found under outputPath.
func EnsureCapability(outputPath, capabilityName string) error {
	manifests, err := FindFiles(outputPath, AppManifestFileName)
	if err != nil {
		return fmt.Errorf("failed to add the `%s` capability: %w", capabilityName, err)
	}
	switch len(manifests) {
	case 0:
		return fmt.Errorf("failed to add the `%s` capability, file `%s`: %w", capabilityName, AppManifestFileName, ErrNotFound)
	case 1:
		return EnsureCapabilityInFile(manifests[0], capabilityName)
	default:
		return fmt.Errorf("failed to add the `%s` capability, multiple `%s` files found: %w", capabilityName, AppManifestFileName, ErrAmbiguous)
	}
}

// EnsureCapabilityInFile declares capabilityName in the manifest at path.
// The file is only rewritten when an element was added.
func EnsureCapabilityInFile(path, capabilityName string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%s has no root element: %w", path, ErrNotFound)
	}

	var containers []*etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == CapabilitiesElement {
			containers = append(containers, child)
		}
	}

	switch len(containers) {
	case 0:
		// Unprefixed elements inherit the root's default namespace.
		container := root.CreateElement(CapabilitiesElement)
		container.AddChild(newCapability(capabilityName))
	case 1:
		container := containers[0]
		if hasCapability(container, capabilityName) {
			return nil
		}
		insertCapability(container, newCapability(capabilityName))
	default:
		return fmt.Errorf("failed to add the `%s` capability, multiple `%s` elements found inside `%s`: %w",
			capabilityName, CapabilitiesElement, path, ErrAmbiguous)
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}
	return WriteFileAtomic(path, out)
}

func newCapability(name string) *etree.Element {
	el := etree.NewElement(CapabilityElement)
	el.CreateAttr(CapabilityNameAttribute, name)
	return el
}

func hasCapability(container *etree.Element, name string) bool {
	for _, el := range container.ChildElements() {
		if el.Tag == CapabilityElement && el.SelectAttrValue(CapabilityNameAttribute, "") == name {
			return true
		}
	}
	return false
}

// insertCapability keeps foundation Capability entries ahead of
// prefixed ones (uap:Capability, rescap:Capability) and of
// DeviceCapability entries, as the appx schema requires.
func insertCapability(container, el *etree.Element) {
	for _, child := range container.ChildElements() {
		if child.Space != "" || child.Tag == deviceCapabilityElement {
			container.InsertChildAt(child.Index(), el)
			return
		}
	}
	container.AddChild(el)
}

package patch

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Dependency is one packageId -> version entry of a dependencies block.
type Dependency struct {
	PackageID string
	Version   string
}

func (d Dependency) String() string {
	return d.PackageID + " " + d.Version
}

var dependenciesBlock = regexp.MustCompile(`"dependencies"\s*:\s*{`)

func quotedPair(packageID, version string) string {
	return `"` + packageID + `": "` + version + `"`
}

// UpsertDependency sets packageID to version inside the dependencies
// block of a project.json-like manifest. Only the matched entry, or the
// single inserted line, changes; indentation, comments and trailing
// commas elsewhere are preserved byte for byte.
func UpsertDependency(text, packageID, version string) (string, error) {
	key := `"` + regexp.QuoteMeta(packageID) + `"\s*:`

	existing := regexp.MustCompile(key + `\s*"[^"]*"`)
	if loc := existing.FindStringIndex(text); loc != nil {
		return text[:loc[0]] + quotedPair(packageID, version) + text[loc[1]:], nil
	}

	// Object-form entries ("id": { "version": ... }) are left alone
	// rather than shadowed by a duplicate key.
	if regexp.MustCompile(key).MatchString(text) {
		return text, fmt.Errorf("%s is declared in a form that cannot be updated in place: %w", packageID, ErrUnsupportedEntry)
	}

	loc := dependenciesBlock.FindStringIndex(text)
	if loc == nil {
		return text, fmt.Errorf("dependencies block: %w", ErrNotFound)
	}
	brace := loc[1]
	rest := text[brace:]

	line := "\n" + entryIndent(rest) + quotedPair(packageID, version)
	if !strings.HasPrefix(strings.TrimLeft(rest, " \t\r\n"), "}") {
		line += ","
	}
	return text[:brace] + line + rest, nil
}

// entryIndent returns the indentation of the first line after the
// opening brace, if that line holds an entry.
func entryIndent(rest string) string {
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return ""
	}
	next := rest[nl+1:]
	trimmed := strings.TrimLeft(next, " \t")
	if strings.HasPrefix(trimmed, "}") || trimmed == "" {
		return ""
	}
	return next[:len(next)-len(trimmed)]
}

// MergeDependencies upserts deps into the manifest at path, chaining
// each edit on the previous result. Entries that cannot be updated in
// place are skipped and reported together after the remaining ones are
// applied. The file is only written when its text changed.
func MergeDependencies(path string, deps []Dependency) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	original := string(data)
	text := original
	var skipped []error
	for _, dep := range deps {
		updated, err := UpsertDependency(text, dep.PackageID, dep.Version)
		if errors.Is(err, ErrUnsupportedEntry) {
			skipped = append(skipped, err)
			continue
		}
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		text = updated
	}

	changed := text != original
	if changed {
		if err := WriteFileAtomic(path, []byte(text)); err != nil {
			return false, err
		}
	}
	if len(skipped) > 0 {
		return changed, fmt.Errorf("%s: %w", path, errors.Join(skipped...))
	}
	return changed, nil
}

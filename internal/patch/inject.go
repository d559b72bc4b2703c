package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// SentinelComment marks a file that already carries injected push code.
const SentinelComment = "App Center Push code:"

var literalSpace = regexp.MustCompile(` `)

// WhitespacePattern makes each literal space in pattern match any run of
// whitespace, including none, so anchors survive formatter differences.
func WhitespacePattern(pattern string) string {
	return literalSpace.ReplaceAllLiteralString(pattern, `[\s]*`)
}

// Inject inserts template into filePath at the first match of anchor.
// A file that already contains SentinelComment is left untouched. When
// includeAnchor is set the matched text is kept in front of the block,
// otherwise it is replaced by it.
func Inject(filePath string, anchor *regexp.Regexp, template string, includeAnchor bool) error {
	if filePath == "" {
		return fmt.Errorf("injection target: %w", ErrNotFound)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filePath, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	text := string(data)

	if strings.Contains(text, SentinelComment) {
		return nil
	}

	loc := anchor.FindStringIndex(text)
	if loc == nil {
		return fmt.Errorf("unable to automatically modify file '%s', follow troubleshooting instructions at %s: %w",
			filePath, TroubleshootingURL, ErrPatternNotMatched)
	}

	block := "\n// " + SentinelComment + "\n" + template
	if includeAnchor {
		block = text[loc[0]:loc[1]] + block
	}

	var b strings.Builder
	b.Grow(len(text) + len(block))
	b.WriteString(text[:loc[0]])
	b.WriteString(block)
	b.WriteString(text[loc[1]:])

	return WriteFileAtomic(filePath, []byte(b.String()))
}

// WriteFileAtomic replaces path in full through a sibling temp file,
// keeping the original permissions.
func WriteFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

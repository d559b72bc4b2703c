package patch

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReplaceFile overwrites dst with the contents of src. Both src and the
// directory of dst must already exist; the generated tree is never
// created from scratch.
func ReplaceFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("replacement source %s: %w", src, ErrNotFound)
		}
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if info, err := os.Stat(filepath.Dir(dst)); err != nil || !info.IsDir() {
		return fmt.Errorf("generated directory %s: %w", filepath.Dir(dst), ErrNotFound)
	}
	return WriteFileAtomic(dst, data)
}

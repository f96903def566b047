package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tegdb/internal/dberr"
)

// DefaultExtension is the database file's canonical extension.
const DefaultExtension = ".teg"

// CheckExtension rejects a path naming a directory, or whose extension is
// neither absent nor ".teg".
func CheckExtension(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", dberr.ErrIO, path)
	}

	ext := filepath.Ext(path)
	if ext != "" && !strings.EqualFold(ext, DefaultExtension) {
		return fmt.Errorf("%w: %s (want none or %s)", dberr.ErrUnsupportedExtension, ext, DefaultExtension)
	}
	return nil
}

package assemble

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"campack/internal/fileutil"
)

// WriteManifest records a SHA-256 digest for every file under the
// package base (the manifest itself excluded) so the package can be
// fixity-checked after transfer.
func (a *Assembler) WriteManifest(layout Layout) error {
	manifestPath := filepath.Join(layout.MetadataDir, "manifest-sha256.txt")

	var builder strings.Builder
	err := filepath.WalkDir(layout.Base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || path == manifestPath {
			return nil
		}
		digest, err := fileutil.SHA256File(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(layout.Base, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(&builder, "%s  %s\n", digest, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}

	if err := os.WriteFile(manifestPath, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

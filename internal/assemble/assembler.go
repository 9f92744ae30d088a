package assemble

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"campack/internal/fileutil"
	"campack/internal/inventory"
	"campack/internal/logging"
)

// Layout is the created package directory structure.
type Layout struct {
	Base         string
	MetadataDir  string
	ReportsDir   string
	OriginalsDir string
	AIPDir       string
	TarDir       string
}

// Assembler builds the package on disk.
type Assembler struct {
	logger *slog.Logger
}

// New constructs an Assembler.
func New(logger *slog.Logger) *Assembler {
	return &Assembler{logger: logging.NewComponentLogger(logger, "assemble")}
}

// CreateLayout creates the package directory tree under dest/mediaID.
// A pre-existing package directory is a fatal precondition.
func (a *Assembler) CreateLayout(dest, mediaID string, strategy Strategy) (Layout, error) {
	base := filepath.Join(dest, mediaID)
	if _, err := os.Stat(base); err == nil {
		return Layout{}, fmt.Errorf("package directory %s already exists", base)
	}

	layout := Layout{
		Base:         base,
		MetadataDir:  filepath.Join(base, "metadata"),
		ReportsDir:   filepath.Join(base, "metadata", "reports"),
		OriginalsDir: filepath.Join(base, "metadata", "original_camera_files"),
	}
	dirs := []string{layout.ReportsDir, layout.OriginalsDir}
	if strategy.WantsAIP() {
		layout.AIPDir = filepath.Join(base, "objects", "AIP")
		dirs = append(dirs, layout.AIPDir)
	}
	if strategy.WantsTar() {
		layout.TarDir = filepath.Join(base, "objects", "TAR")
		dirs = append(dirs, layout.TarDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("create package directory %s: %w", dir, err)
		}
	}

	a.logger.Info("package layout created",
		logging.Args(logging.String("base", base), logging.String("strategy", strategy.String()))...)
	return layout, nil
}

// CopyNativeMetadata copies the profile's significant metadata rows
// into original_camera_files. Names are flattened; a basename
// collision falls back to a card-and-index prefix.
func (a *Assembler) CopyNativeMetadata(rows []inventory.Row, layout Layout) error {
	for _, row := range rows {
		if row.MediaType != inventory.MediaMetadata {
			continue
		}
		target := filepath.Join(layout.OriginalsDir, filepath.Base(row.Path))
		if _, err := os.Stat(target); err == nil {
			target = filepath.Join(layout.OriginalsDir,
				fmt.Sprintf("card%d_%d_%s", row.CardIndex, row.FileIndex, filepath.Base(row.Path)))
		}
		if err := fileutil.CopyFileVerified(row.Path, target); err != nil {
			return fmt.Errorf("copy native metadata %s: %w", row.Path, err)
		}
	}
	return nil
}

// CopyAudiovisual copies video and audio rows into the AIP directory.
// Used for General-profile cards, where there is no concatenated
// master covering the deposit.
func (a *Assembler) CopyAudiovisual(rows []inventory.Row, layout Layout) error {
	for _, row := range rows {
		if row.MediaType != inventory.MediaVideo && row.MediaType != inventory.MediaAudio {
			continue
		}
		target := filepath.Join(layout.AIPDir, filepath.Base(row.Path))
		if err := fileutil.CopyFileVerified(row.Path, target); err != nil {
			return fmt.Errorf("copy audiovisual %s: %w", row.Path, err)
		}
	}
	return nil
}

// PlaceMaster moves a finished preservation master into the AIP
// directory, falling back to a verified copy across filesystems.
func (a *Assembler) PlaceMaster(masterPath string, layout Layout) (string, error) {
	target := filepath.Join(layout.AIPDir, filepath.Base(masterPath))
	if err := os.Rename(masterPath, target); err != nil {
		if copyErr := fileutil.CopyFileVerified(masterPath, target); copyErr != nil {
			return "", fmt.Errorf("place master: %w", copyErr)
		}
		_ = os.Remove(masterPath)
	}
	return target, nil
}

// DuplicateBasenames returns the basenames shared by more than one
// audiovisual row. A non-empty result under the General profile aborts
// assembly before any audiovisual copy.
func DuplicateBasenames(rows []inventory.Row) []string {
	counts := make(map[string]int)
	for _, row := range rows {
		if row.MediaType != inventory.MediaVideo && row.MediaType != inventory.MediaAudio {
			continue
		}
		counts[filepath.Base(row.Path)]++
	}
	var duplicates []string
	for name, count := range counts {
		if count > 1 {
			duplicates = append(duplicates, name)
		}
	}
	sort.Strings(duplicates)
	return duplicates
}

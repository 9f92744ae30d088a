package card

import (
	"fmt"
	"os"
	"path/filepath"
)

// Classification pairs a resolved profile with its effective root.
// For AVCHD the effective root is narrowed to the nested stream
// directory; for every other profile it is the supplied root.
type Classification struct {
	Profile Profile
	// Root is the directory the operator supplied.
	Root string
	// EffectiveRoot is where the content walk starts.
	EffectiveRoot string
}

type rule struct {
	detect  func(root string) (bool, string)
	profile func() Profile
}

// Ordered: first match wins, General is the default arm.
var rules = []rule{
	{detect: detectAVCHD, profile: avchdProfile},
	{detect: detectCanonXF, profile: canonXFProfile},
	{detect: detectP2, profile: p2Profile},
	{detect: detectXAVC, profile: xavcProfile},
	{detect: detectXDCAMEX, profile: xdcamEXProfile},
}

// Classify resolves the layout profile for a deposit root. The root must
// be an existing directory.
func Classify(root string) (Classification, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Classification{}, fmt.Errorf("classify %s: %w", root, err)
	}
	if !info.IsDir() {
		return Classification{}, fmt.Errorf("classify %s: not a directory", root)
	}

	for _, r := range rules {
		if matched, effectiveRoot := r.detect(root); matched {
			if effectiveRoot == "" {
				effectiveRoot = root
			}
			return Classification{Profile: r.profile(), Root: root, EffectiveRoot: effectiveRoot}, nil
		}
	}
	return Classification{Profile: generalProfile(), Root: root, EffectiveRoot: root}, nil
}

// detectAVCHD looks for the BDMV/STREAM tree, possibly nested below an
// AVCHD or PRIVATE/AVCHD directory, and narrows the effective root to
// the stream directory it finds.
func detectAVCHD(root string) (bool, string) {
	candidates := []string{
		filepath.Join(root, "BDMV", "STREAM"),
		filepath.Join(root, "AVCHD", "BDMV", "STREAM"),
		filepath.Join(root, "PRIVATE", "AVCHD", "BDMV", "STREAM"),
	}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return true, candidate
		}
	}
	return false, ""
}

func detectCanonXF(root string) (bool, string) {
	return dirExists(filepath.Join(root, "CONTENTS", "CLIPS001")), ""
}

func detectP2(root string) (bool, string) {
	if !dirExists(filepath.Join(root, "CONTENTS")) {
		return false, ""
	}
	return fileExists(filepath.Join(root, "LASTCLIP.TXT")) ||
		fileExists(filepath.Join(root, "CONTENTS", "LASTCLIP.TXT")), ""
}

func detectXAVC(root string) (bool, string) {
	return dirExists(filepath.Join(root, "XDROOT")), ""
}

func detectXDCAMEX(root string) (bool, string) {
	return dirExists(filepath.Join(root, "BPAV")), ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package card

// Type names a recognized camera-card layout.
type Type string

const (
	TypeAVCHD   Type = "AVCHD"
	TypeCanonXF Type = "CANON_XF"
	TypeP2      Type = "P2"
	TypeXAVC    Type = "XAVC"
	TypeXDCAMEX Type = "XDCAM_EX"
	TypeGeneral Type = "GENERAL"
)

// Profile describes how to inventory a classified card.
type Profile struct {
	Type Type

	// ContentExts are the audiovisual content file extensions (upper case,
	// with dot) a pattern walk matches. Empty for General, which probes
	// every file instead.
	ContentExts []string

	// MetadataGlobs match the significant native metadata files retained
	// in the package's original_camera_files directory.
	MetadataGlobs []string

	// ExcludeDirs are directory basenames skipped during content walks
	// (proxy and sub-resolution material).
	ExcludeDirs []string

	// VideoSubpath and AudioSubpath restrict the content walk. P2 keeps
	// video and audio essence in separate trees and is the only profile
	// with a non-empty AudioSubpath.
	VideoSubpath string
	AudioSubpath string
}

// PatternBased reports whether the profile inventories by path pattern
// rather than per-file probing.
func (p Profile) PatternBased() bool {
	return p.Type != TypeGeneral
}

func avchdProfile() Profile {
	return Profile{
		Type:          TypeAVCHD,
		ContentExts:   []string{".MTS", ".M2TS"},
		MetadataGlobs: []string{"*.CPI", "*.BDM", "*.MPL"},
	}
}

func canonXFProfile() Profile {
	return Profile{
		Type:          TypeCanonXF,
		ContentExts:   []string{".MXF"},
		MetadataGlobs: []string{"*.XML", "*.CIF", "*.CPF", "*.MIF"},
		VideoSubpath:  "CONTENTS",
	}
}

func p2Profile() Profile {
	return Profile{
		Type:          TypeP2,
		ContentExts:   []string{".MXF"},
		MetadataGlobs: []string{"*.XML", "*.TXT"},
		VideoSubpath:  "CONTENTS/VIDEO",
		AudioSubpath:  "CONTENTS/AUDIO",
	}
}

func xavcProfile() Profile {
	return Profile{
		Type:          TypeXAVC,
		ContentExts:   []string{".MXF"},
		MetadataGlobs: []string{"*.XML", "*.BIM", "*.SMI"},
		ExcludeDirs:   []string{"Sub", "SUB"},
		VideoSubpath:  "XDROOT",
	}
}

func xdcamEXProfile() Profile {
	return Profile{
		Type:          TypeXDCAMEX,
		ContentExts:   []string{".MP4"},
		MetadataGlobs: []string{"*.XML", "*.SMI", "*.BIM", "*.PPN"},
		ExcludeDirs:   []string{"SUB", "Sub"},
		VideoSubpath:  "BPAV",
	}
}

func generalProfile() Profile {
	return Profile{Type: TypeGeneral}
}

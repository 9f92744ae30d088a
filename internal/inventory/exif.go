package inventory

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

var stillImageExts = map[string]struct{}{
	".JPG":  {},
	".JPEG": {},
	".THM":  {},
}

// exifTimestamp reads the capture time from camera stills and thumbnail
// sidecars so their rows carry a timestamp even though ffprobe has
// nothing to say about them. Any failure returns an empty string.
func exifTimestamp(path string) string {
	ext := strings.ToUpper(filepath.Ext(path))
	if _, ok := stillImageExts[ext]; !ok {
		return ""
	}
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	meta, err := exif.Decode(file)
	if err != nil {
		return ""
	}
	taken, err := meta.DateTime()
	if err != nil {
		return ""
	}
	return taken.Format(time.RFC3339)
}

// Package plan derives the concatenation order, chapter list, and
// run-level audio strategy from the inventory.
package plan

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"campack/internal/inventory"
	"campack/internal/media/ffmpeg"
	"campack/internal/selection"
)

// AudioStrategy is the run-level audio handling decision.
type AudioStrategy int

const (
	// AudioCopy passes every audio stream through untouched.
	AudioCopy AudioStrategy = iota
	// AudioPCM16 forces a transcode to 16-bit PCM.
	AudioPCM16
	// AudioPCM24 forces a transcode to 24-bit PCM.
	AudioPCM24
)

// Codec returns the ffmpeg audio codec argument, empty for copy.
func (s AudioStrategy) Codec() string {
	switch s {
	case AudioPCM16:
		return "pcm_s16le"
	case AudioPCM24:
		return "pcm_s24le"
	default:
		return ""
	}
}

func (s AudioStrategy) String() string {
	switch s {
	case AudioPCM16:
		return "transcode to 16-bit PCM"
	case AudioPCM24:
		return "transcode to 24-bit PCM"
	default:
		return "stream copy"
	}
}

// DetectAudioStrategy scans every inventory row (selection is
// immaterial to the codec scan) for the Blu-ray-family PCM trigger.
// The strategy applies uniformly to the single concatenation call.
func DetectAudioStrategy(rows []inventory.Row, outputFormat string) AudioStrategy {
	format := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(outputFormat)), ".")
	if format == "m2ts" || format == "mts" || format == "ts" {
		// The matching transport container carries Blu-ray PCM natively.
		return AudioCopy
	}
	for _, row := range rows {
		if !strings.EqualFold(row.AudioCodec, "pcm_bluray") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(row.AudioSampleFormat), "s16") {
			return AudioPCM16
		}
		return AudioPCM24
	}
	return AudioCopy
}

// Concat is the ordered concatenation plan with its parallel chapter
// list. Both are derived together in one pass and discarded after the
// run.
type Concat struct {
	Sources  []string
	Chapters []ffmpeg.Chapter
	// SelectedClips are the 1-based clip indices included, in order.
	SelectedClips []int
}

// TotalMillis returns the planned output duration.
func (c Concat) TotalMillis() int64 {
	if len(c.Chapters) == 0 {
		return 0
	}
	return c.Chapters[len(c.Chapters)-1].EndMillis
}

// Build walks the clip-ordered video rows once, advancing the source
// and chapter lists only for selected rows.
func Build(videos []inventory.Row, clips selection.Clips) Concat {
	var concat Concat
	var offset int64
	for _, row := range videos {
		if !clips.Includes(row.ClipIndex) {
			continue
		}
		durationMillis := int64(math.Round(row.Duration * 1000))
		concat.Sources = append(concat.Sources, row.Path)
		concat.Chapters = append(concat.Chapters, ffmpeg.Chapter{
			StartMillis: offset,
			EndMillis:   offset + durationMillis,
			Title:       chapterTitle(row),
		})
		concat.SelectedClips = append(concat.SelectedClips, row.ClipIndex)
		offset += durationMillis
	}
	return concat
}

// BuildAudio returns the ordered audio-only concat sources. Audio rows
// carry no clip indices, so selection does not apply.
func BuildAudio(rows []inventory.Row) []string {
	var sources []string
	for _, row := range inventory.AudioOnly(rows) {
		sources = append(sources, row.Path)
	}
	return sources
}

var titleCaser = cases.Title(language.Und)

// chapterTitle builds a display title from the clip filename plus the
// camera timecode or modification date when present.
func chapterTitle(row inventory.Row) string {
	base := strings.TrimSuffix(filepath.Base(row.Path), filepath.Ext(row.Path))
	title := titleCaser.String(strings.ToLower(base))
	switch {
	case row.Tags.Timecode != "":
		return fmt.Sprintf("%s (%s)", title, row.Tags.Timecode)
	case row.Tags.ModificationTimestamp != "":
		return fmt.Sprintf("%s (%s)", title, row.Tags.ModificationTimestamp)
	default:
		return title
	}
}

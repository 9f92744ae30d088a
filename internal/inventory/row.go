package inventory

import (
	"campack/internal/card"
	"campack/internal/media/ffprobe"
)

// MediaType categorizes an inventoried file.
type MediaType string

const (
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaMetadata MediaType = "metadata"
	MediaOther    MediaType = "other"
)

// ContainerTags carries the container-level tags extracted by probing.
type ContainerTags struct {
	Company               string
	Product               string
	ModificationTimestamp string
	Timecode              string
}

// Row is one inventoried file.
type Row struct {
	CardIndex int
	CardType  card.Type
	// ClipIndex is 1-based and meaningful only for video rows; zero
	// everywhere else.
	ClipIndex int
	// FileIndex increases strictly across all cards in one run.
	FileIndex int
	MediaType MediaType
	// Duration is in seconds; zero when probing failed or does not apply.
	Duration          float64
	Tags              ContainerTags
	Path              string
	AudioCodec        string
	AudioSampleFormat string

	// probe keeps the parsed result around for stream-count decisions
	// during the General build; empty when probing failed.
	probe ffprobe.Result
}

// Videos returns the video rows in inventory order.
func Videos(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if row.MediaType == MediaVideo {
			out = append(out, row)
		}
	}
	return out
}

// AudioOnly returns the audio rows in inventory order.
func AudioOnly(rows []Row) []Row {
	var out []Row
	for _, row := range rows {
		if row.MediaType == MediaAudio {
			out = append(out, row)
		}
	}
	return out
}

package plan

import (
	"strings"
	"testing"

	"campack/internal/inventory"
	"campack/internal/selection"
)

func videoRow(clip int, path string, duration float64) inventory.Row {
	return inventory.Row{
		MediaType: inventory.MediaVideo,
		ClipIndex: clip,
		Path:      path,
		Duration:  duration,
	}
}

func TestBuildAllClips(t *testing.T) {
	videos := []inventory.Row{
		videoRow(1, "/card/00000.MTS", 10),
		videoRow(2, "/card/00001.MTS", 5),
		videoRow(3, "/card/00002.MTS", 8),
	}

	concat := Build(videos, selection.Parse(""))

	if len(concat.Sources) != 3 || len(concat.Chapters) != 3 {
		t.Fatalf("expected 3 sources and chapters, got %d/%d", len(concat.Sources), len(concat.Chapters))
	}
	if concat.TotalMillis() != 23000 {
		t.Fatalf("expected 23000ms total, got %d", concat.TotalMillis())
	}

	var sum int64
	for i, chapter := range concat.Chapters {
		if chapter.EndMillis <= chapter.StartMillis {
			t.Fatalf("chapter %d not increasing: %#v", i, chapter)
		}
		if i > 0 && chapter.StartMillis != concat.Chapters[i-1].EndMillis {
			t.Fatalf("chapter %d overlaps or gaps: %#v", i, chapter)
		}
		sum += chapter.EndMillis - chapter.StartMillis
	}
	if sum != concat.TotalMillis() {
		t.Fatalf("chapters sum %d != total %d", sum, concat.TotalMillis())
	}
}

func TestBuildHonorsSelection(t *testing.T) {
	videos := []inventory.Row{
		videoRow(1, "/card/c1.MTS", 10),
		videoRow(2, "/card/c2.MTS", 10),
		videoRow(3, "/card/c3.MTS", 10),
		videoRow(4, "/card/c4.MTS", 10),
	}

	concat := Build(videos, selection.Parse("1,3"))

	if len(concat.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %v", concat.Sources)
	}
	if concat.Sources[0] != "/card/c1.MTS" || concat.Sources[1] != "/card/c3.MTS" {
		t.Fatalf("sources out of order: %v", concat.Sources)
	}
	if len(concat.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(concat.Chapters))
	}
	// Unselected rows advance neither list: clip 3 starts where clip 1 ended.
	if concat.Chapters[1].StartMillis != 10000 {
		t.Fatalf("unexpected second chapter start: %d", concat.Chapters[1].StartMillis)
	}
	if got := concat.SelectedClips; len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected selected clips: %v", got)
	}
}

func TestChapterTitleUsesTimecode(t *testing.T) {
	row := videoRow(1, "/card/CLIP0001.MXF", 10)
	row.Tags.Timecode = "01:02:03:04"

	concat := Build([]inventory.Row{row}, selection.Parse(""))
	title := concat.Chapters[0].Title
	if !strings.Contains(title, "01:02:03:04") {
		t.Fatalf("timecode missing from title: %q", title)
	}
	if !strings.HasPrefix(title, "Clip0001") {
		t.Fatalf("unexpected title casing: %q", title)
	}
}

func TestDetectAudioStrategy(t *testing.T) {
	bluray := inventory.Row{AudioCodec: "pcm_bluray", AudioSampleFormat: "s16"}
	bluray24 := inventory.Row{AudioCodec: "pcm_bluray", AudioSampleFormat: "s32"}
	plain := inventory.Row{AudioCodec: "aac", AudioSampleFormat: "fltp"}

	if got := DetectAudioStrategy([]inventory.Row{plain}, "mov"); got != AudioCopy {
		t.Fatalf("expected copy, got %v", got)
	}
	if got := DetectAudioStrategy([]inventory.Row{plain, bluray}, "mov"); got != AudioPCM16 {
		t.Fatalf("expected 16-bit transcode, got %v", got)
	}
	if got := DetectAudioStrategy([]inventory.Row{bluray24}, "mov"); got != AudioPCM24 {
		t.Fatalf("expected 24-bit transcode, got %v", got)
	}
	// A matching transport container keeps the codec as-is.
	if got := DetectAudioStrategy([]inventory.Row{bluray}, "m2ts"); got != AudioCopy {
		t.Fatalf("expected copy for m2ts, got %v", got)
	}
}

func TestBuildAudioCollectsAudioRows(t *testing.T) {
	rows := []inventory.Row{
		videoRow(1, "/card/v.MXF", 10),
		{MediaType: inventory.MediaAudio, Path: "/card/a1.MXF"},
		{MediaType: inventory.MediaAudio, Path: "/card/a2.MXF"},
		{MediaType: inventory.MediaMetadata, Path: "/card/m.XML"},
	}
	sources := BuildAudio(rows)
	if len(sources) != 2 || sources[0] != "/card/a1.MXF" {
		t.Fatalf("unexpected audio sources: %v", sources)
	}
}

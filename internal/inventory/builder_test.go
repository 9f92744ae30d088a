package inventory

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campack/internal/card"
	"campack/internal/logging"
	"campack/internal/media/ffprobe"
)

type fakeProber struct {
	results map[string]ffprobe.Result
	fail    map[string]bool
	calls   []string
}

func (f *fakeProber) Probe(_ context.Context, path string) (ffprobe.Result, error) {
	f.calls = append(f.calls, path)
	if f.fail[path] {
		return ffprobe.Result{}, errors.New("probe exploded")
	}
	if result, ok := f.results[path]; ok {
		return result, nil
	}
	return ffprobe.Result{}, nil
}

func videoResult(duration string) ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "video"},
			{CodecType: "audio", CodecName: "pcm_bluray", SampleFmt: "s16"},
		},
		Format: ffprobe.Format{Duration: duration},
	}
}

func audioResult(duration string) ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "pcm_s16le", SampleFmt: "s16"}},
		Format:  ffprobe.Format{Duration: duration},
	}
}

func write(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func classify(t *testing.T, root string) card.Classification {
	t.Helper()
	cls, err := card.Classify(root)
	if err != nil {
		t.Fatal(err)
	}
	return cls
}

func TestBuildCardAVCHDCoverage(t *testing.T) {
	root := t.TempDir()
	clip0 := write(t, root, "BDMV/STREAM/00000.MTS")
	clip1 := write(t, root, "BDMV/STREAM/00001.MTS")
	cpi := write(t, root, "BDMV/CLIPINF/00000.CPI")
	index := write(t, root, "BDMV/INDEX.BDM")
	stray := write(t, root, "misc/readme.txt")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		clip0: videoResult("10.0"),
		clip1: videoResult("5.0"),
	}}
	builder := NewBuilder(prober, logging.NewNop())

	rows, err := builder.BuildCard(context.Background(), classify(t, root), 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(rows) != 5 {
		t.Fatalf("expected 5 rows (full coverage), got %d", len(rows))
	}

	seen := map[string]int{}
	for _, row := range rows {
		seen[row.Path]++
	}
	for path, count := range seen {
		if count != 1 {
			t.Fatalf("path %s appears %d times", path, count)
		}
	}
	for _, path := range []string{clip0, clip1, cpi, index, stray} {
		if seen[path] != 1 {
			t.Fatalf("path %s missing from inventory", path)
		}
	}

	videos := Videos(rows)
	if len(videos) != 2 {
		t.Fatalf("expected 2 video rows, got %d", len(videos))
	}
	if videos[0].ClipIndex != 1 || videos[1].ClipIndex != 2 {
		t.Fatalf("clip indices wrong: %d, %d", videos[0].ClipIndex, videos[1].ClipIndex)
	}
	if videos[0].Duration != 10.0 {
		t.Fatalf("unexpected duration: %v", videos[0].Duration)
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].FileIndex <= rows[i-1].FileIndex {
			t.Fatalf("file index not strictly increasing at %d", i)
		}
	}

	var otherPaths []string
	for _, row := range rows {
		if row.MediaType == MediaOther {
			otherPaths = append(otherPaths, row.Path)
		}
	}
	if len(otherPaths) != 1 || otherPaths[0] != stray {
		t.Fatalf("catch-all rows wrong: %v", otherPaths)
	}
}

func TestBuildCardP2SeparateAudioWalk(t *testing.T) {
	root := t.TempDir()
	video := write(t, root, "CONTENTS/VIDEO/0001AB.MXF")
	audio := write(t, root, "CONTENTS/AUDIO/0001AB00.MXF")
	write(t, root, "CONTENTS/CLIP/0001AB.XML")
	write(t, root, "LASTCLIP.TXT")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		video: videoResult("8.0"),
		audio: audioResult("8.0"),
	}}
	builder := NewBuilder(prober, logging.NewNop())

	rows, err := builder.BuildCard(context.Background(), classify(t, root), 1)
	if err != nil {
		t.Fatal(err)
	}

	if len(Videos(rows)) != 1 {
		t.Fatalf("expected 1 video row, got %d", len(Videos(rows)))
	}
	audios := AudioOnly(rows)
	if len(audios) != 1 || audios[0].Path != audio {
		t.Fatalf("expected audio row for %s, got %v", audio, audios)
	}
	if audios[0].ClipIndex != 0 {
		t.Fatalf("audio rows must not carry clip indices, got %d", audios[0].ClipIndex)
	}

	metadata := 0
	for _, row := range rows {
		if row.MediaType == MediaMetadata {
			metadata++
		}
	}
	if metadata != 2 {
		t.Fatalf("expected XML and LASTCLIP.TXT metadata rows, got %d", metadata)
	}
}

func TestBuildCardGeneralProbesEveryFile(t *testing.T) {
	root := t.TempDir()
	movie := write(t, root, "A0001.MOV")
	sound := write(t, root, "A0001.WAV")
	notes := write(t, root, "notes.txt")

	prober := &fakeProber{
		results: map[string]ffprobe.Result{
			movie: videoResult("12.0"),
			sound: audioResult("12.0"),
		},
	}
	builder := NewBuilder(prober, logging.NewNop())

	rows, err := builder.BuildCard(context.Background(), classify(t, root), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	byPath := map[string]Row{}
	for _, row := range rows {
		byPath[row.Path] = row
	}
	if byPath[movie].MediaType != MediaVideo || byPath[movie].ClipIndex != 1 {
		t.Fatalf("movie row wrong: %#v", byPath[movie])
	}
	if byPath[sound].MediaType != MediaAudio {
		t.Fatalf("sound row wrong: %#v", byPath[sound])
	}
	if byPath[notes].MediaType != MediaMetadata {
		t.Fatalf("notes row wrong: %#v", byPath[notes])
	}
}

func TestBuildCardKeepsRowOnProbeFailure(t *testing.T) {
	root := t.TempDir()
	clip := write(t, root, "BDMV/STREAM/00000.MTS")

	prober := &fakeProber{fail: map[string]bool{clip: true}}
	builder := NewBuilder(prober, logging.NewNop())

	rows, err := builder.BuildCard(context.Background(), classify(t, root), 1)
	if err != nil {
		t.Fatal(err)
	}

	videos := Videos(rows)
	if len(videos) != 1 {
		t.Fatalf("expected failed-probe row to survive, got %d video rows", len(videos))
	}
	if videos[0].Duration != 0 || videos[0].AudioCodec != "" {
		t.Fatalf("expected empty technical fields, got %#v", videos[0])
	}

	flags := builder.ReviewFlags()
	if len(flags) != 1 || !strings.Contains(flags[0], clip) {
		t.Fatalf("expected review flag naming the file, got %v", flags)
	}
}

func TestFileIndexSharedAcrossCards(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	clipA := write(t, rootA, "BDMV/STREAM/00000.MTS")
	clipB := write(t, rootB, "BDMV/STREAM/00000.MTS")

	prober := &fakeProber{results: map[string]ffprobe.Result{
		clipA: videoResult("10.0"),
		clipB: videoResult("8.0"),
	}}
	builder := NewBuilder(prober, logging.NewNop())

	rowsA, err := builder.BuildCard(context.Background(), classify(t, rootA), 1)
	if err != nil {
		t.Fatal(err)
	}
	rowsB, err := builder.BuildCard(context.Background(), classify(t, rootB), 2)
	if err != nil {
		t.Fatal(err)
	}

	lastA := rowsA[len(rowsA)-1].FileIndex
	if rowsB[0].FileIndex <= lastA {
		t.Fatalf("file index must continue across cards: %d then %d", lastA, rowsB[0].FileIndex)
	}
	if Videos(rowsB)[0].ClipIndex != 1 {
		t.Fatalf("clip index must restart per card, got %d", Videos(rowsB)[0].ClipIndex)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.csv")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	row := Row{
		CardIndex: 1,
		CardType:  card.TypeAVCHD,
		ClipIndex: 1,
		FileIndex: 1,
		MediaType: MediaVideo,
		Duration:  10.5,
		Tags:      ContainerTags{Company: "Sony", Timecode: "01:00:00;00"},
		Path:      "/cards/a/00000.MTS",
	}
	if err := store.Append(row); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}
	if records[0][0] != "cardIndex" || records[0][4] != "mediaType" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][5] != "10.500" {
		t.Fatalf("unexpected duration field: %q", records[1][5])
	}

	// The store refuses to clobber an existing inventory.
	if _, err := OpenStore(path); err == nil {
		t.Fatal("expected error reopening existing store")
	}
}

package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeExecutor struct {
	binary string
	args   []string
	stdout []string
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string, onStdout func(string)) error {
	f.binary = binary
	f.args = append([]string(nil), args...)
	for _, line := range f.stdout {
		if onStdout != nil {
			onStdout(line)
		}
	}
	return f.err
}

func argsContain(args []string, sub ...string) bool {
	joined := " " + strings.Join(args, " ") + " "
	return strings.Contains(joined, " "+strings.Join(sub, " ")+" ")
}

func TestConcatBuildsCopyInvocation(t *testing.T) {
	dir := t.TempDir()
	exec := &fakeExecutor{}
	client := New("ffmpeg", WithExecutor(exec))

	req := ConcatRequest{
		Sources: []string{filepath.Join(dir, "00000.MTS"), filepath.Join(dir, "00001.MTS")},
		Output:  filepath.Join(dir, "master.mov"),
		MetadataDonor: filepath.Join(dir, "00000.MTS"),
		Chapters: []Chapter{
			{StartMillis: 0, EndMillis: 10000, Title: "00000"},
			{StartMillis: 10000, EndMillis: 15000, Title: "00001"},
		},
	}
	if err := client.Concat(context.Background(), req); err != nil {
		t.Fatalf("concat: %v", err)
	}

	if !argsContain(exec.args, "-f", "concat", "-safe", "0") {
		t.Fatalf("missing concat demuxer args: %v", exec.args)
	}
	if !argsContain(exec.args, "-c", "copy") {
		t.Fatalf("expected stream copy: %v", exec.args)
	}
	if argsContain(exec.args, "-c:a") {
		t.Fatalf("unexpected audio transcode: %v", exec.args)
	}
	if !argsContain(exec.args, "-map_metadata", "1") {
		t.Fatalf("metadata donor not mapped: %v", exec.args)
	}
	if !argsContain(exec.args, "-map_chapters", "2") {
		t.Fatalf("chapters not mapped: %v", exec.args)
	}

	list, err := os.ReadFile(filepath.Join(dir, "master.concat.txt"))
	if err != nil {
		t.Fatalf("concat list missing: %v", err)
	}
	if !strings.Contains(string(list), "00000.MTS") || !strings.Contains(string(list), "00001.MTS") {
		t.Fatalf("concat list incomplete: %s", list)
	}

	meta, err := os.ReadFile(filepath.Join(dir, "master.chapters.txt"))
	if err != nil {
		t.Fatalf("chapter file missing: %v", err)
	}
	if !strings.HasPrefix(string(meta), ";FFMETADATA1") {
		t.Fatalf("chapter file missing header: %s", meta)
	}
	if !strings.Contains(string(meta), "TIMEBASE=1/1000") {
		t.Fatalf("chapter file missing timebase: %s", meta)
	}
}

func TestConcatForcesAudioTranscode(t *testing.T) {
	dir := t.TempDir()
	exec := &fakeExecutor{}
	client := New("ffmpeg", WithExecutor(exec))

	req := ConcatRequest{
		Sources:    []string{filepath.Join(dir, "a.MTS")},
		Output:     filepath.Join(dir, "out.mov"),
		AudioCodec: "pcm_s24le",
	}
	if err := client.Concat(context.Background(), req); err != nil {
		t.Fatalf("concat: %v", err)
	}
	if !argsContain(exec.args, "-c:a", "pcm_s24le") {
		t.Fatalf("expected forced transcode: %v", exec.args)
	}
}

func TestConcatRejectsEmptyPlan(t *testing.T) {
	client := New("ffmpeg", WithExecutor(&fakeExecutor{}))
	if err := client.Concat(context.Background(), ConcatRequest{Output: "x.mov"}); err == nil {
		t.Fatal("expected error for empty source list")
	}
}

func TestMuxMapsBothStreams(t *testing.T) {
	exec := &fakeExecutor{}
	client := New("ffmpeg", WithExecutor(exec))
	if err := client.Mux(context.Background(), "v.mov", "a.wav", "final.mov"); err != nil {
		t.Fatalf("mux: %v", err)
	}
	if !argsContain(exec.args, "-map", "0:v") || !argsContain(exec.args, "-map", "1:a") {
		t.Fatalf("stream maps missing: %v", exec.args)
	}
	if !argsContain(exec.args, "-c", "copy") {
		t.Fatalf("expected copy-only mux: %v", exec.args)
	}
}

func TestStreamHashesParsesDigests(t *testing.T) {
	exec := &fakeExecutor{stdout: []string{
		"0,v,MD5=0a1b2c3d",
		"1,a,MD5=9f8e7d6c",
		"garbage line",
	}}
	client := New("ffmpeg", WithExecutor(exec))

	digests, err := client.StreamHashes(context.Background(), "master.mov")
	if err != nil {
		t.Fatalf("streamhash: %v", err)
	}
	if len(digests) != 2 {
		t.Fatalf("expected 2 digests, got %d", len(digests))
	}
	if digests[0].Type != "v" || digests[0].Digest != "0a1b2c3d" {
		t.Fatalf("unexpected video digest: %#v", digests[0])
	}
	if digests[1].Index != 1 || digests[1].Type != "a" {
		t.Fatalf("unexpected audio digest: %#v", digests[1])
	}
}

func TestStreamHashesErrorsWithoutDigests(t *testing.T) {
	client := New("ffmpeg", WithExecutor(&fakeExecutor{}))
	if _, err := client.StreamHashes(context.Background(), "master.mov"); err == nil {
		t.Fatal("expected error when no digests reported")
	}
}

func TestWriteConcatListEscapesQuotes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	if err := WriteConcatList(path, []string{"/cards/clip's.MTS"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `clip'\''s.MTS`) {
		t.Fatalf("quote not escaped: %s", data)
	}
}

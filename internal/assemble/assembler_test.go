package assemble

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campack/internal/card"
	"campack/internal/inventory"
	"campack/internal/logging"
)

func TestCreateLayoutPerStrategy(t *testing.T) {
	assembler := New(logging.NewNop())

	for _, tc := range []struct {
		strategy Strategy
		wantAIP  bool
		wantTar  bool
	}{
		{StrategyAIP, true, false},
		{StrategyTar, false, true},
		{StrategyBoth, true, true},
	} {
		dest := t.TempDir()
		layout, err := assembler.CreateLayout(dest, "M1", tc.strategy)
		if err != nil {
			t.Fatalf("%v: %v", tc.strategy, err)
		}
		for _, dir := range []string{layout.ReportsDir, layout.OriginalsDir} {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				t.Fatalf("%v: missing dir %s", tc.strategy, dir)
			}
		}
		if tc.wantAIP != (layout.AIPDir != "") {
			t.Fatalf("%v: AIP dir mismatch", tc.strategy)
		}
		if tc.wantTar != (layout.TarDir != "") {
			t.Fatalf("%v: TAR dir mismatch", tc.strategy)
		}
	}
}

func TestCreateLayoutRefusesExistingDestination(t *testing.T) {
	assembler := New(logging.NewNop())
	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dest, "M1"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := assembler.CreateLayout(dest, "M1", StrategyAIP); err == nil {
		t.Fatal("expected fail-fast on existing package directory")
	}
}

func TestCopyNativeMetadataFlattensWithCollisionFallback(t *testing.T) {
	assembler := New(logging.NewNop())
	src := t.TempDir()
	a := filepath.Join(src, "cardA", "CLIP.XML")
	b := filepath.Join(src, "cardB", "CLIP.XML")
	for _, path := range []string{a, b} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(path), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	layout, err := assembler.CreateLayout(t.TempDir(), "M1", StrategyAIP)
	if err != nil {
		t.Fatal(err)
	}
	rows := []inventory.Row{
		{CardIndex: 1, FileIndex: 3, MediaType: inventory.MediaMetadata, Path: a},
		{CardIndex: 2, FileIndex: 7, MediaType: inventory.MediaMetadata, Path: b},
		{CardIndex: 1, FileIndex: 1, MediaType: inventory.MediaVideo, Path: a},
	}
	if err := assembler.CopyNativeMetadata(rows, layout); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(layout.OriginalsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 copied files, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(layout.OriginalsDir, "CLIP.XML")); err != nil {
		t.Fatal("flat name missing")
	}
	if _, err := os.Stat(filepath.Join(layout.OriginalsDir, "card2_7_CLIP.XML")); err != nil {
		t.Fatal("collision fallback name missing")
	}
}

func TestDuplicateBasenames(t *testing.T) {
	rows := []inventory.Row{
		{MediaType: inventory.MediaVideo, Path: "/a/clip.mov"},
		{MediaType: inventory.MediaVideo, Path: "/b/clip.mov"},
		{MediaType: inventory.MediaAudio, Path: "/a/sound.wav"},
		{MediaType: inventory.MediaMetadata, Path: "/a/meta.xml"},
		{MediaType: inventory.MediaMetadata, Path: "/b/meta.xml"},
	}
	duplicates := DuplicateBasenames(rows)
	if len(duplicates) != 1 || duplicates[0] != "clip.mov" {
		t.Fatalf("expected only audiovisual duplicate, got %v", duplicates)
	}
}

func TestTarballRoundTrip(t *testing.T) {
	assembler := New(logging.NewNop())
	root := t.TempDir()
	cardDir := filepath.Join(root, "CARD01")
	if err := os.MkdirAll(filepath.Join(cardDir, "BDMV", "STREAM"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("stream bytes")
	if err := os.WriteFile(filepath.Join(cardDir, "BDMV", "STREAM", "00000.MTS"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "CARD01.tar.gz")
	if err := assembler.Tarball(cardDir, out); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gz)

	found := false
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if header.Name == "CARD01/BDMV/STREAM/00000.MTS" {
			data, err := io.ReadAll(tr)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != string(content) {
				t.Fatalf("content mismatch: %q", data)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("stream file missing from tarball")
	}
}

func TestTarballPreservesSymlinkTargets(t *testing.T) {
	assembler := New(logging.NewNop())
	root := t.TempDir()
	cardDir := filepath.Join(root, "CARD02")
	if err := os.MkdirAll(cardDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cardDir, "clip.mov"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink("clip.mov", filepath.Join(cardDir, "latest.mov")); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "CARD02.tar.gz")
	if err := assembler.Tarball(cardDir, out); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	gz, err := gzip.NewReader(file)
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gz)

	found := false
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if header.Name != "CARD02/latest.mov" {
			continue
		}
		found = true
		if header.Typeflag != tar.TypeSymlink {
			t.Fatalf("expected symlink entry, got typeflag %v", header.Typeflag)
		}
		if header.Linkname != "clip.mov" {
			t.Fatalf("symlink target lost: %q", header.Linkname)
		}
	}
	if !found {
		t.Fatal("symlink missing from tarball")
	}
}

func TestWriteManifestCoversPackage(t *testing.T) {
	assembler := New(logging.NewNop())
	layout, err := assembler.CreateLayout(t.TempDir(), "M1", StrategyAIP)
	if err != nil {
		t.Fatal(err)
	}
	master := filepath.Join(layout.AIPDir, "M1.mov")
	if err := os.WriteFile(master, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := assembler.WriteManifest(layout); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(layout.MetadataDir, "manifest-sha256.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "objects/AIP/M1.mov") {
		t.Fatalf("manifest missing master entry: %s", data)
	}
	if !strings.Contains(string(data), "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad") {
		t.Fatalf("manifest missing digest: %s", data)
	}
}

func TestPackageLogWriteAndFlags(t *testing.T) {
	log := NewPackageLog()
	log.Add("MEDIAID", "M2024-01")
	log.Add("CARD TYPE", string(card.TypeAVCHD))
	log.Flag("stream hash mismatch for final.mov, review manually")

	if log.FlagCount() != 1 {
		t.Fatalf("expected 1 flag, got %d", log.FlagCount())
	}

	path := filepath.Join(t.TempDir(), "M2024-01.log.txt")
	if err := log.Write(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "MEDIAID: M2024-01") {
		t.Fatalf("log missing media id: %s", text)
	}
	if !strings.Contains(text, "CARD TYPE: AVCHD") {
		t.Fatalf("log missing card type: %s", text)
	}
	if !strings.Contains(text, "POSSIBLE_ERROR_REVIEW: stream hash mismatch") {
		t.Fatalf("log missing review flag: %s", text)
	}

	// Appending a later entry must not clobber earlier ones.
	log.Add("FINISHED", "2026-01-01T00:00:00Z")
	if err := log.Write(path); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "MEDIAID") || !strings.Contains(string(data), "FINISHED") {
		t.Fatalf("append lost entries: %s", data)
	}
}

package inventory

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"campack/internal/card"
	"campack/internal/logging"
	"campack/internal/media/ffprobe"
)

// Prober is the external probing collaborator. A failed probe returns an
// error; the builder degrades to an empty-field row rather than dropping
// the file.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Builder accumulates inventory rows across cards, holding the
// run-global file index and duplicate-path suppression set.
type Builder struct {
	prober Prober
	logger *slog.Logger

	fileIndex int
	seen      map[string]struct{}
	flags     []string
}

// NewBuilder constructs a Builder.
func NewBuilder(prober Prober, logger *slog.Logger) *Builder {
	return &Builder{
		prober: prober,
		logger: logging.NewComponentLogger(logger, "inventory"),
		seen:   make(map[string]struct{}),
	}
}

// ReviewFlags returns the non-fatal issues accumulated so far.
func (b *Builder) ReviewFlags() []string {
	return slices.Clone(b.flags)
}

// BuildCard inventories one classified card. cardIndex is 1-based.
func (b *Builder) BuildCard(ctx context.Context, cls card.Classification, cardIndex int) ([]Row, error) {
	var rows []Row
	clipIndex := 0

	appendRow := func(row Row) {
		b.fileIndex++
		row.CardIndex = cardIndex
		row.CardType = cls.Profile.Type
		row.FileIndex = b.fileIndex
		rows = append(rows, row)
		b.seen[row.Path] = struct{}{}
	}

	if cls.Profile.PatternBased() {
		videoRoot := cls.EffectiveRoot
		if cls.Profile.VideoSubpath != "" && cls.EffectiveRoot == cls.Root {
			videoRoot = filepath.Join(cls.Root, filepath.FromSlash(cls.Profile.VideoSubpath))
		}

		videoPaths, err := contentWalk(videoRoot, cls.Profile)
		if err != nil {
			return nil, fmt.Errorf("content walk: %w", err)
		}
		for _, path := range videoPaths {
			clipIndex++
			row := b.probeRow(ctx, path, MediaVideo)
			row.ClipIndex = clipIndex
			appendRow(row)
		}

		if cls.Profile.AudioSubpath != "" {
			audioRoot := filepath.Join(cls.Root, filepath.FromSlash(cls.Profile.AudioSubpath))
			audioPaths, err := contentWalk(audioRoot, cls.Profile)
			if err != nil {
				return nil, fmt.Errorf("audio walk: %w", err)
			}
			for _, path := range audioPaths {
				appendRow(b.probeRow(ctx, path, MediaAudio))
			}
		}
	} else {
		paths, err := allFiles(cls.Root)
		if err != nil {
			return nil, fmt.Errorf("general walk: %w", err)
		}
		for _, path := range paths {
			if info, statErr := os.Lstat(path); statErr != nil || !info.Mode().IsRegular() {
				appendRow(Row{MediaType: MediaOther, Path: path})
				continue
			}
			row := b.probeRow(ctx, path, MediaMetadata)
			switch {
			case row.probe.VideoStreamCount() > 0:
				clipIndex++
				row.MediaType = MediaVideo
				row.ClipIndex = clipIndex
			case row.probe.AudioStreamCount() > 0:
				row.MediaType = MediaAudio
			}
			appendRow(row)
		}
	}

	// Significant-metadata pass.
	if len(cls.Profile.MetadataGlobs) > 0 {
		paths, err := globWalk(cls.Root, cls.Profile.MetadataGlobs)
		if err != nil {
			return nil, fmt.Errorf("metadata walk: %w", err)
		}
		for _, path := range paths {
			if _, ok := b.seen[path]; ok {
				continue
			}
			appendRow(Row{MediaType: MediaMetadata, Path: path})
		}
	}

	// Catch-all pass guarantees full, non-duplicated coverage.
	paths, err := allFiles(cls.Root)
	if err != nil {
		return nil, fmt.Errorf("catch-all walk: %w", err)
	}
	for _, path := range paths {
		if _, ok := b.seen[path]; ok {
			continue
		}
		row := Row{MediaType: MediaOther, Path: path}
		if stamp := exifTimestamp(path); stamp != "" {
			row.Tags.ModificationTimestamp = stamp
		}
		appendRow(row)
	}

	b.logger.Info("card inventoried",
		logging.Args(
			logging.Int(logging.FieldCard, cardIndex),
			logging.String("card_type", string(cls.Profile.Type)),
			logging.Int("rows", len(rows)),
			logging.Int("clips", clipIndex),
		)...)
	return rows, nil
}

// probeRow builds a row of the given type from a probe, degrading to
// empty technical fields when the probe fails.
func (b *Builder) probeRow(ctx context.Context, path string, mediaType MediaType) Row {
	row := Row{MediaType: mediaType, Path: path}
	result, err := b.prober.Probe(ctx, path)
	if err != nil {
		flag := fmt.Sprintf("probe failed for %s", path)
		b.flags = append(b.flags, flag)
		b.logger.Warn("probe failed; row retained with empty fields",
			logging.Args(logging.String("path", path), logging.Error(err))...)
		return row
	}
	row.probe = result
	row.Duration = result.DurationSeconds()
	row.Tags = ContainerTags{
		Company:               result.CompanyName(),
		Product:               result.ProductName(),
		ModificationTimestamp: result.ModificationTime(),
		Timecode:              result.Timecode(),
	}
	row.AudioCodec = result.AudioCodec()
	row.AudioSampleFormat = result.AudioSampleFormat()
	return row
}

// contentWalk collects content files under root per the profile's
// extension list, skipping excluded (proxy) directories. Results are in
// lexical walk order, which is clip order for every supported layout.
func contentWalk(root string, profile card.Profile) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if slices.Contains(profile.ExcludeDirs, entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToUpper(filepath.Ext(entry.Name()))
		if slices.Contains(profile.ContentExts, ext) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// globWalk collects files anywhere under root whose basename matches one
// of the patterns, case-insensitively.
func globWalk(root string, patterns []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		name := strings.ToUpper(entry.Name())
		for _, pattern := range patterns {
			if matched, _ := filepath.Match(pattern, name); matched {
				paths = append(paths, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// allFiles lists every regular file under root in lexical order.
func allFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Package report generates the sidecar technical reports that travel
// with every package: a directory-tree listing per card, and
// container, tag, and full-probe dumps for every audiovisual file in
// the full inventory, independent of clip selection.
package report

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"campack/internal/fileutil"
	"campack/internal/inventory"
	"campack/internal/logging"
	"campack/internal/media/ffprobe"
)

// Prober is the probing collaborator reports are generated from.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Reporter writes sidecar reports into a package's reports directory.
type Reporter struct {
	prober Prober
	logger *slog.Logger
}

// New constructs a Reporter.
func New(prober Prober, logger *slog.Logger) *Reporter {
	return &Reporter{prober: prober, logger: logging.NewComponentLogger(logger, "report")}
}

// Generate writes every report and returns review flags for reports
// that came out empty or missing. Individual failures degrade only
// their own report.
func (r *Reporter) Generate(ctx context.Context, mediaID string, cardRoots []string, rows []inventory.Row, dir string) []string {
	var expected []string

	for i, root := range cardRoots {
		treePath := filepath.Join(dir, fmt.Sprintf("%s_card%d_tree.txt", mediaID, i+1))
		if err := writeTreeListing(root, treePath); err != nil {
			r.logger.Warn("tree listing failed",
				logging.Args(logging.String("root", root), logging.Error(err))...)
		}
		expected = append(expected, treePath)
	}

	for _, row := range rows {
		if row.MediaType != inventory.MediaVideo && row.MediaType != inventory.MediaAudio {
			continue
		}
		expected = append(expected, r.generateFileReports(ctx, mediaID, row, dir)...)
	}

	var flags []string
	for _, path := range expected {
		if fileutil.IsEmptyFile(path) {
			flags = append(flags, fmt.Sprintf("empty or missing report %s", filepath.Base(path)))
		}
	}

	r.logger.Info("reports generated",
		logging.Args(logging.Int("reports", len(expected)), logging.Int("flagged", len(flags)))...)
	return flags
}

// generateFileReports writes the three per-file dumps and returns their
// paths for the after-the-fact emptiness check.
func (r *Reporter) generateFileReports(ctx context.Context, mediaID string, row inventory.Row, dir string) []string {
	base := strings.TrimSuffix(filepath.Base(row.Path), filepath.Ext(row.Path))
	prefix := filepath.Join(dir, fmt.Sprintf("%s_card%d_%s", mediaID, row.CardIndex, base))
	formatPath := prefix + "_format.txt"
	tagsPath := prefix + "_tags.txt"
	probePath := prefix + "_probe.json"
	paths := []string{formatPath, tagsPath, probePath}

	result, err := r.prober.Probe(ctx, row.Path)
	if err != nil {
		r.logger.Warn("probe for report failed",
			logging.Args(logging.String("path", row.Path), logging.Error(err))...)
		return paths
	}

	writeOrWarn := func(path, content string) {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			r.logger.Warn("report write failed",
				logging.Args(logging.String("path", path), logging.Error(err))...)
		}
	}

	writeOrWarn(formatPath, formatDump(row.Path, result))
	writeOrWarn(tagsPath, tagDump(result))
	writeOrWarn(probePath, string(result.RawJSON()))
	return paths
}

// formatDump renders the container-level technical summary.
func formatDump(path string, result ffprobe.Result) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "file: %s\n", path)
	fmt.Fprintf(&builder, "format: %s\n", result.Format.FormatName)
	fmt.Fprintf(&builder, "streams: %d\n", result.Format.NBStreams)
	fmt.Fprintf(&builder, "duration: %.3f\n", result.DurationSeconds())
	fmt.Fprintf(&builder, "size: %s\n", result.Format.Size)
	for _, stream := range result.Streams {
		fmt.Fprintf(&builder, "stream %d: %s %s", stream.Index, stream.CodecType, stream.CodecName)
		if stream.CodecType == "video" && stream.Width > 0 {
			fmt.Fprintf(&builder, " %dx%d", stream.Width, stream.Height)
		}
		if stream.CodecType == "audio" {
			fmt.Fprintf(&builder, " %s %sHz %dch", stream.SampleFmt, stream.SampleRate, stream.Channels)
		}
		builder.WriteByte('\n')
	}
	return builder.String()
}

// tagDump renders every container and stream tag, sorted for stable
// diffs between runs.
func tagDump(result ffprobe.Result) string {
	var lines []string
	for key, value := range result.Format.Tags {
		lines = append(lines, fmt.Sprintf("format.%s=%s", key, value))
	}
	for _, stream := range result.Streams {
		for key, value := range stream.Tags {
			lines = append(lines, fmt.Sprintf("stream.%d.%s=%s", stream.Index, key, value))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "(no tags)")
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n"
}

// writeTreeListing writes an indented listing of the whole card.
func writeTreeListing(root, outPath string) error {
	var builder strings.Builder
	builder.WriteString(root + "\n")
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		depth := strings.Count(rel, string(filepath.Separator))
		builder.WriteString(strings.Repeat("    ", depth+1))
		builder.WriteString(entry.Name())
		if entry.IsDir() {
			builder.WriteByte('/')
		}
		builder.WriteByte('\n')
		return nil
	})
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte(builder.String()), 0o644)
}

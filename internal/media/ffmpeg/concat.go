package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Chapter marks one source clip inside the concatenated master.
// Offsets are in the 1/1000-second timebase the chapter file declares.
type Chapter struct {
	StartMillis int64
	EndMillis   int64
	Title       string
}

// ConcatRequest describes a single concat/remux invocation.
type ConcatRequest struct {
	// Sources are concatenated in order; all streams are copied untouched
	// unless AudioCodec forces a transcode.
	Sources []string
	Output  string
	// MetadataDonor, when set, contributes container-level metadata to the
	// output via -map_metadata.
	MetadataDonor string
	// Chapters, when non-empty, are written to an FFMETADATA side file and
	// mapped onto the output.
	Chapters []Chapter
	// AudioCodec forces an audio transcode ("pcm_s16le", "pcm_s24le");
	// empty means copy.
	AudioCodec string
	// WorkDir receives the concat list and chapter side files. Defaults to
	// the output's directory.
	WorkDir string
}

// Concat runs a single concatenation, writing the side files it needs
// next to the output.
func (c *Client) Concat(ctx context.Context, req ConcatRequest) error {
	if len(req.Sources) == 0 {
		return errors.New("ffmpeg concat: no sources")
	}
	if strings.TrimSpace(req.Output) == "" {
		return errors.New("ffmpeg concat: no output path")
	}
	workDir := req.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(req.Output)
	}

	base := strings.TrimSuffix(filepath.Base(req.Output), filepath.Ext(req.Output))
	listPath := filepath.Join(workDir, base+".concat.txt")
	if err := WriteConcatList(listPath, req.Sources); err != nil {
		return err
	}

	args := []string{"-nostdin", "-loglevel", "error", "-f", "concat", "-safe", "0", "-i", listPath}
	inputIndex := 1

	donorIndex := -1
	if req.MetadataDonor != "" {
		args = append(args, "-i", req.MetadataDonor)
		donorIndex = inputIndex
		inputIndex++
	}

	chapterIndex := -1
	if len(req.Chapters) > 0 {
		metaPath := filepath.Join(workDir, base+".chapters.txt")
		if err := WriteChapterMetadata(metaPath, req.Chapters); err != nil {
			return err
		}
		args = append(args, "-f", "ffmetadata", "-i", metaPath)
		chapterIndex = inputIndex
		inputIndex++
	}

	args = append(args, "-map", "0", "-c", "copy")
	if req.AudioCodec != "" {
		args = append(args, "-c:a", req.AudioCodec)
	}
	if donorIndex >= 0 {
		args = append(args, "-map_metadata", strconv.Itoa(donorIndex))
	}
	if chapterIndex >= 0 {
		args = append(args, "-map_chapters", strconv.Itoa(chapterIndex))
	}
	args = append(args, req.Output)

	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

// Mux combines an already-concatenated video file and audio file into the
// final container, copying both streams.
func (c *Client) Mux(ctx context.Context, videoPath, audioPath, output string) error {
	if videoPath == "" || audioPath == "" || output == "" {
		return errors.New("ffmpeg mux: video, audio, and output paths required")
	}
	args := []string{
		"-nostdin", "-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v", "-map", "1:a",
		"-c", "copy",
		"-map_metadata", "0",
		output,
	}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return fmt.Errorf("ffmpeg mux: %w", err)
	}
	return nil
}

// WriteConcatList writes an ffconcat list file naming sources in order.
func WriteConcatList(path string, sources []string) error {
	var builder strings.Builder
	builder.WriteString("ffconcat version 1.0\n")
	for _, source := range sources {
		builder.WriteString("file '")
		builder.WriteString(escapeConcatPath(source))
		builder.WriteString("'\n")
	}
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

// WriteChapterMetadata writes an FFMETADATA1 chapter file in the 1/1000
// timebase.
func WriteChapterMetadata(path string, chapters []Chapter) error {
	var builder strings.Builder
	builder.WriteString(";FFMETADATA1\n")
	for _, chapter := range chapters {
		builder.WriteString("[CHAPTER]\n")
		builder.WriteString("TIMEBASE=1/1000\n")
		builder.WriteString("START=")
		builder.WriteString(strconv.FormatInt(chapter.StartMillis, 10))
		builder.WriteString("\nEND=")
		builder.WriteString(strconv.FormatInt(chapter.EndMillis, 10))
		builder.WriteString("\ntitle=")
		builder.WriteString(escapeMetadataValue(chapter.Title))
		builder.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(builder.String()), 0o644); err != nil {
		return fmt.Errorf("write chapter metadata: %w", err)
	}
	return nil
}

// escapeConcatPath quotes a path for the ffconcat single-quoted form.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// escapeMetadataValue escapes the characters FFMETADATA treats specially.
func escapeMetadataValue(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"=", `\=`,
		";", `\;`,
		"#", `\#`,
		"\n", `\`+"\n",
	)
	return replacer.Replace(value)
}

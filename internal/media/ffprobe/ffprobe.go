package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int               `json:"index"`
	CodecName  string            `json:"codec_name"`
	CodecType  string            `json:"codec_type"`
	Duration   string            `json:"duration"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	SampleFmt  string            `json:"sample_fmt"`
	SampleRate string            `json:"sample_rate"`
	Channels   int               `json:"channels"`
	Tags       map[string]string `json:"tags"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string            `json:"filename"`
	NBStreams  int               `json:"nb_streams"`
	Duration   string            `json:"duration"`
	Size       string            `json:"size"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, detail)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64); err == nil && parsed > 0 {
		return parsed
	}
	// Some camera containers only report per-stream durations.
	for _, stream := range r.Streams {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(stream.Duration), 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

// CompanyName returns the recording device vendor tag, when present.
func (r Result) CompanyName() string {
	return r.formatTag("company_name", "com.apple.quicktime.make", "make")
}

// ProductName returns the recording device product tag, when present.
func (r Result) ProductName() string {
	return r.formatTag("product_name", "com.apple.quicktime.model", "model")
}

// ModificationTime returns the container modification or creation timestamp
// tag, when present.
func (r Result) ModificationTime() string {
	return r.formatTag("modification_date", "modification_time", "creation_time")
}

// Timecode returns the start timecode recorded by the camera, when present.
// Cameras disagree about where the timecode lives: the container, the video
// stream, or a dedicated data stream.
func (r Result) Timecode() string {
	if tc := r.formatTag("timecode"); tc != "" {
		return tc
	}
	for _, stream := range r.Streams {
		if tc := strings.TrimSpace(stream.Tags["timecode"]); tc != "" {
			return tc
		}
	}
	return ""
}

// AudioCodec returns the codec name of the first audio stream.
func (r Result) AudioCodec() string {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return stream.CodecName
		}
	}
	return ""
}

// AudioSampleFormat returns the sample format of the first audio stream.
func (r Result) AudioSampleFormat() string {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return stream.SampleFmt
		}
	}
	return ""
}

func (r Result) formatTag(keys ...string) string {
	for _, key := range keys {
		for tag, value := range r.Format.Tags {
			if strings.EqualFold(tag, key) {
				if trimmed := strings.TrimSpace(value); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

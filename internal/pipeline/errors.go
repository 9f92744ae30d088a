package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks fatal conditions detected before or during a
	// run: missing roots, existing destination, duplicate basenames.
	ErrPrecondition = errors.New("precondition failed")
	// ErrExternalTool marks ffmpeg/ffprobe invocations that failed fatally.
	ErrExternalTool = errors.New("external tool error")
	// ErrInterrupted marks runs ended by cancellation.
	ErrInterrupted = errors.New("run interrupted")
)

// Wrap builds an error message that includes stage context while
// tagging it with the provided marker for later classification.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

// Package verify proves a concatenation was lossless by comparing
// per-elementary-stream digests taken before and after the merge step.
//
// Container and file hashes would differ trivially after repackaging;
// only the stream-level digests are evidence. A mismatch is reported
// for curator review and never blocks package delivery.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campack/internal/logging"
	"campack/internal/media/ffmpeg"
)

// Hasher is the stream-hash collaborator.
type Hasher interface {
	StreamHashes(ctx context.Context, path string) ([]ffmpeg.StreamDigest, error)
}

// Baseline is the digest snapshot taken immediately after the primary
// concatenation. It lives only for the duration of one run.
type Baseline struct {
	path    string
	digests []ffmpeg.StreamDigest
}

// Verifier compares stream digests across the merge step.
type Verifier struct {
	hasher Hasher
	logger *slog.Logger
}

// New constructs a Verifier.
func New(hasher Hasher, logger *slog.Logger) *Verifier {
	return &Verifier{hasher: hasher, logger: logging.NewComponentLogger(logger, "verify")}
}

// Capture records the baseline digests of the primary concatenated
// output.
func (v *Verifier) Capture(ctx context.Context, path string) (Baseline, error) {
	digests, err := v.hasher.StreamHashes(ctx, path)
	if err != nil {
		return Baseline{}, fmt.Errorf("baseline stream hash: %w", err)
	}
	return Baseline{path: path, digests: digests}, nil
}

// Check recomputes digests on the final output and compares the video
// streams against the baseline. It returns a review flag message when
// the outputs differ, and an error only when hashing itself failed.
func (v *Verifier) Check(ctx context.Context, baseline Baseline, finalPath string) (string, error) {
	finalDigests, err := v.hasher.StreamHashes(ctx, finalPath)
	if err != nil {
		return "", fmt.Errorf("final stream hash: %w", err)
	}

	baseVideo := videoDigests(baseline.digests)
	finalVideo := videoDigests(finalDigests)

	if len(baseVideo) == 0 || len(finalVideo) == 0 {
		return fmt.Sprintf("stream hash comparison impossible for %s (no video digests)", finalPath), nil
	}
	if !equalDigests(baseVideo, finalVideo) {
		v.logger.Warn("stream hash mismatch",
			logging.Args(
				logging.String("baseline", baseline.path),
				logging.String("final", finalPath),
			)...)
		return fmt.Sprintf("stream hash mismatch for %s, review manually", finalPath), nil
	}

	v.logger.Info("losslessness verified",
		logging.Args(logging.String("output", finalPath))...)
	return "", nil
}

func videoDigests(digests []ffmpeg.StreamDigest) []string {
	var out []string
	for _, digest := range digests {
		if strings.EqualFold(digest.Type, "v") {
			out = append(out, digest.Digest)
		}
	}
	return out
}

func equalDigests(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

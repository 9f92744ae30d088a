// Package ffmpeg drives the external concat/remux engine.
//
// The pipeline performs at most three invocations per run: the primary
// video concatenation, an audio-only concatenation when the card keeps
// audio in separate files, and a final copy-only mux of the two. The
// same client also computes per-elementary-stream digests through the
// streamhash muxer; those digests are the losslessness evidence for
// the integrity verifier.
//
// Command execution sits behind the Executor interface so tests can
// substitute a recorder without spawning processes.
package ffmpeg

// Package ffprobe wraps ffprobe invocations behind a typed adapter.
//
// Every piece of external-tool text parsing the pipeline relies on for
// durations, container tags, and stream properties lives here; callers
// only ever see a parsed Result or an error. Probe failures are
// non-fatal by contract: the inventory builder keeps the row and
// records a review flag instead of dropping the file.
package ffprobe

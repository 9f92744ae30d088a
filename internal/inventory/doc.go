// Package inventory builds the ordered, fully-covering record of every
// file under a classified card root.
//
// Rows are produced in three passes: a profile-specific content walk
// (or per-file probing for General cards), a significant-metadata glob
// pass, and a final catch-all pass. A path is recorded exactly once;
// later passes suppress anything an earlier pass already claimed. The
// file index increases globally across every card in a run, while the
// clip index restarts at 1 per card and only advances on video rows.
//
// Probe failures never drop a row: the file keeps its place in the
// inventory with empty technical fields and the failure is recorded as
// a review flag.
package inventory

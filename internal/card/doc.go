// Package card identifies which known camera-card layout a deposit
// root matches.
//
// Detection is an ordered rule list with first-match-wins semantics;
// a root matching no marker falls back to the General profile, which
// classifies per file by probing stream presence instead of by path
// pattern.
package card

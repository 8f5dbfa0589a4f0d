// Package logger is the central log of the emulation core.
//
// Entries are a tag and a detail string and are written as "tag: detail".
// Consecutive identical entries are collapsed into a single entry with a
// repeat count, which keeps hot paths such as on-demand bank loading from
// flooding the log. The log is bounded; the oldest entries are dropped.
//
// Every request carries a Permission. Components that can be silenced (the
// emulation session, for instance) implement Permission themselves; everything
// else passes logger.Allow.
package logger

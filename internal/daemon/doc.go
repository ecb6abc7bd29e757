// Package daemon runs the long-lived talknote process.
//
// It holds a flock-based single-instance lock, fails jobs abandoned by a
// previous crash, serves the HTTP API, and optionally watches an inbox
// directory for dropped audio files. Pipeline work itself belongs to the
// workflow package; the daemon only starts, stops, and drains it.
package daemon

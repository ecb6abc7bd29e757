// Package logs reads talknote log output for the CLI.
//
// StreamClient pages through the daemon's /api/logs endpoint, and Tail reads
// log files directly with bounded memory when the daemon is not running.
// Negative offsets mean "last N lines"; follow mode polls until the caller's
// context ends or the wait elapses.
package logs

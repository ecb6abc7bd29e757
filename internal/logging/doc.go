// Package logging builds the slog loggers shared by the talknote daemon and CLI.
//
// New and NewFromConfig return either a compact console handler or a JSON
// handler, optionally tee'd into a StreamHub so the daemon API can serve
// recent log lines to clients. Attribute helpers and the Field* keys keep job,
// stage, and step identifiers consistent across packages.
package logging

// Package services defines shared utilities consumed by the pipeline steps and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage and step names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper. The domain markers
//     (file system, tool invocation, transcription, service call, language
//     detection, irrelevant content) decide which failure category a job
//     records; they never change control flow.
//
// Use these helpers when wiring new step logic so error handling and
// observability stay uniform across the pipeline.
package services

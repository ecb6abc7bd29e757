// Package transcribe uploads audio files to an OpenAI-compatible
// /audio/transcriptions endpoint and returns the recognised text.
//
// Each request is a multipart form carrying the model name and the audio
// file. Transient failures (network errors, 408, 429, 5xx) are retried with
// exponential backoff up to the configured attempt budget; other client
// errors fail immediately.
package transcribe

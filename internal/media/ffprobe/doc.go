// Package ffprobe wraps ffprobe to inspect audio files.
//
// Inspect runs ffprobe with JSON output through a command.Runner and decodes
// stream and container metadata. Result helpers expose the duration used to
// size audio chunks and the audio stream count used to reject files that
// carry no sound.
package ffprobe

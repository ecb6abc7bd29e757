// Package chunk splits transcripts and audio files into bounded pieces.
//
// Text yields sentence-aligned chunks lazily so large transcripts can be
// summarized or translated piece by piece. SplitAudio divides an audio file
// into equal-duration segments whose count is derived from the upload size
// ceiling of the transcription service.
package chunk

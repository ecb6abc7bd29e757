// Package textutil cleans raw transcripts and names stored uploads.
//
// CleanTranscript normalizes whitespace, drops standalone filler words,
// collapses immediate word repetitions, and fixes spacing before punctuation.
// StoredName turns a client or inbox file name into the base name used under
// the upload directory.
package textutil

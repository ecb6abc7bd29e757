// Package language maps between ISO 639 codes and display names and detects
// the language of transcript text.
//
// Detection runs locally with whatlanggo on a leading sample of the text, so
// no network call is needed to decide whether a transcript requires
// translation.
package language

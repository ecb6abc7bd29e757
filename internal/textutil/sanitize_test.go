package textutil_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"talknote/internal/textutil"
)

func TestStoredName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  standup.mp3 ", "standup.mp3"},
		{"whitespace to underscore", "weekly  sync\tnotes.mp3", "weekly_sync_notes.mp3"},
		{"drops directories", "../../etc/weekly sync.mp3", "weekly_sync.mp3"},
		{"drops windows directories", `C:\Users\bo\call.m4a`, "call.m4a"},
		{"replaces colon and star", "10:30*review.wav", "10-30-review.wav"},
		{"removes unsafe", `what?"<>|.m4a`, "what.m4a"},
		{"removes control runes", "call\x00\x07.ogg", "call.ogg"},
		{"strips leading dots", "..hidden.wav", "hidden.wav"},
		{"keeps accents", "réunion équipe.mp3", "réunion_équipe.mp3"},
		{"dot only", ".", ""},
		{"parent only", "..", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textutil.StoredName(tt.input); got != tt.want {
				t.Fatalf("StoredName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStoredNameTruncatesOnRuneBoundary(t *testing.T) {
	got := textutil.StoredName(strings.Repeat("é", 200) + ".flac")
	if len(got) > 160 {
		t.Fatalf("name too long: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, ".flac") || !utf8.ValidString(got) {
		t.Fatalf("unexpected truncated name %q", got)
	}
}

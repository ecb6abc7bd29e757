package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	whitespacePattern    = regexp.MustCompile(`\s+`)
	fillerPattern        = regexp.MustCompile(`(?i)(um|uh|hmm|er|ah|eh|like|you know|i mean|so|well|right|okay|actually|basically|literally)`)
	wordPattern          = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	repeatGapPattern     = regexp.MustCompile("^[\\s,.!?\"'`\\-–—]{1,15}$")
	spaceBeforePunct     = regexp.MustCompile(`\s+([,.!?])`)
	repeatedSpacePattern = regexp.MustCompile(` +`)
)

// CleanTranscript removes transcription noise from raw speech-to-text output.
func CleanTranscript(text string) string {
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if text == "" {
		return ""
	}
	text = removeFillers(text)
	text = collapseRepeats(text)
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(repeatedSpacePattern.ReplaceAllString(text, " "))
}

// removeFillers deletes filler words that stand alone. A match counts only
// when the runes on both sides are not letters, digits or underscores, so
// fillers embedded in accented words ("ahí", "soñé") are left intact.
func removeFillers(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for cursor < len(text) {
		loc := fillerPattern.FindStringIndex(text[cursor:])
		if loc == nil {
			break
		}
		start, end := cursor+loc[0], cursor+loc[1]
		if !isWordRuneBefore(text, start) && !isWordRuneAt(text, end) {
			b.WriteString(text[cursor:start])
			cursor = end
			continue
		}
		// Resume one rune past the rejected match start.
		_, size := utf8.DecodeRuneInString(text[start:])
		b.WriteString(text[cursor : start+size])
		cursor = start + size
	}
	b.WriteString(text[cursor:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWordRuneBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

func isWordRuneAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

// collapseRepeats drops a word that immediately repeats the previous word
// when only short punctuation or spacing separates them. The separator after
// the kept word is preserved.
func collapseRepeats(text string) string {
	matches := wordPattern.FindAllStringIndex(text, -1)
	if len(matches) < 2 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	kept := matches[0]
	lastEnd := kept[1]
	pendingGap := ""
	for _, m := range matches[1:] {
		gap := pendingGap + text[lastEnd:m[0]]
		lastEnd = m[1]
		if repeatGapPattern.MatchString(gap) && strings.EqualFold(text[kept[0]:kept[1]], text[m[0]:m[1]]) {
			b.WriteString(text[cursor:m[0]])
			cursor = m[1]
			pendingGap = gap
			continue
		}
		kept = m
		pendingGap = ""
	}
	b.WriteString(text[cursor:])
	return b.String()
}

package chunk

import (
	"iter"
	"strings"
)

// Text yields chunks of at most limit runes. Each chunk ends after the last
// ". ", "? ", or "! " inside its window, or at the limit when the window has
// no sentence boundary. Chunks are trimmed and empty chunks are skipped.
func Text(text string, limit int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		runes := []rune(text)
		if limit <= 0 || len(runes) <= limit {
			yield(strings.TrimSpace(text))
			return
		}
		for pos := 0; pos < len(runes); {
			end := min(pos+limit, len(runes))
			if end < len(runes) {
				if cut := lastBoundary(runes, pos, end); cut >= 0 {
					end = cut + 1
				}
			}
			piece := strings.TrimSpace(string(runes[pos:end]))
			pos = end
			if piece == "" {
				continue
			}
			if !yield(piece) {
				return
			}
		}
	}
}

// SplitText collects Text into a slice.
func SplitText(text string, limit int) []string {
	var out []string
	for piece := range Text(text, limit) {
		out = append(out, piece)
	}
	return out
}

// lastBoundary returns the index of the terminal punctuation of the last
// sentence boundary fully inside runes[start:end], or -1.
func lastBoundary(runes []rune, start, end int) int {
	for i := end - 2; i >= start; i-- {
		if runes[i+1] != ' ' {
			continue
		}
		switch runes[i] {
		case '.', '?', '!':
			return i
		}
	}
	return -1
}

package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxStoredNameBytes bounds stored names well below common filesystem limits
// once the uuid prefix is added.
const maxStoredNameBytes = 160

// StoredName reduces a client or inbox file name to the base name kept under
// the upload directory. Directory parts are dropped, ':' and '*' become '-',
// other unsafe and control characters are removed, whitespace runs become a
// single '_', and leading dots are stripped. An empty result means the name
// was unusable.
func StoredName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == ':' || r == '*':
			b.WriteByte('-')
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r), r == utf8.RuneError:
		default:
			b.WriteRune(r)
		}
	}
	name = strings.Join(strings.Fields(b.String()), "_")
	name = strings.TrimLeft(name, ".")
	return truncateName(name, maxStoredNameBytes)
}

// truncateName shortens the stem on a rune boundary and keeps a short
// extension.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	for len(stem)+len(ext) > limit {
		_, size := utf8.DecodeLastRuneInString(stem)
		stem = stem[:len(stem)-size]
	}
	return stem + ext
}

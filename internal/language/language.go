package language

import (
	"strings"

	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"
)

type entry struct {
	code2   string
	code3   string
	alt3    string
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "cmn", "zho", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "arb", "ara", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"nb", "nob", "nor", "Norwegian"},
	{"fi", "fin", "", "Finnish"},
	{"tr", "tur", "", "Turkish"},
	{"uk", "ukr", "", "Ukrainian"},
	{"ur", "urd", "", "Urdu"},
	{"fa", "pes", "fas", "Persian"},
	{"id", "ind", "", "Indonesian"},
	{"vi", "vie", "", "Vietnamese"},
	{"he", "heb", "", "Hebrew"},
	{"el", "ell", "", "Greek"},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byName  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byName = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		byName[strings.ToLower(e.display)] = e
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byName[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts a recognized code or English language name to ISO 639-1.
// Unknown two-letter input passes through; anything else returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsAuto reports whether a requested target language means "keep the
// summary in the canonical language".
func IsAuto(target string) bool {
	target = strings.TrimSpace(target)
	return target == "" || strings.EqualFold(target, "auto")
}

var titleCaser = cases.Title(textlang.English)

// TargetName normalizes a requested target language to a display name such
// as "French". Codes are resolved through the table; free-form names are
// title cased.
func TargetName(target string) string {
	target = strings.TrimSpace(target)
	if IsAuto(target) {
		return ""
	}
	if e := lookup(target); e != nil {
		return e.display
	}
	return titleCaser.String(strings.ToLower(target))
}

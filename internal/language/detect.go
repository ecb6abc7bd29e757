package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"

	"talknote/internal/services"
)

// Detection is the outcome of language detection on a text sample.
type Detection struct {
	Code       string
	Name       string
	Confidence float64
	Reliable   bool
}

// Sample returns at most limit runes from the start of text.
func Sample(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// Detect identifies the language of the leading sampleSize runes of text.
// Empty input and undetectable or unreliable samples return an error marked
// services.ErrLanguageDetection.
func Detect(text string, sampleSize int) (Detection, error) {
	sample := Sample(text, sampleSize)
	if sample == "" {
		return Detection{}, services.Wrap(services.ErrLanguageDetection, "text_processing", "detect language", "no text to analyze", nil)
	}
	info := whatlanggo.Detect(sample)
	if info.Lang < 0 {
		return Detection{}, services.Wrap(services.ErrLanguageDetection, "text_processing", "detect language", "language could not be identified", nil)
	}
	code := info.Lang.Iso6391()
	if code == "" {
		code = ToISO2(info.Lang.Iso6393())
	}
	detection := Detection{
		Code:       code,
		Name:       info.Lang.String(),
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}
	if detection.Code == "" || !detection.Reliable {
		return detection, services.Wrap(services.ErrLanguageDetection, "text_processing", "detect language", "detection confidence too low", nil)
	}
	return detection, nil
}

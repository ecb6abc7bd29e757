package ledger

import "strings"

// Processing is the fixed result document of a job. Every field is optional
// so partial results can be merged in as steps complete.
type Processing struct {
	Audio         *AudioResult         `json:"audio,omitempty"`
	Transcription *TranscriptionResult `json:"transcription,omitempty"`
	Language      *LanguageResult      `json:"language,omitempty"`
	Summary       *SummaryResult       `json:"summary,omitempty"`
	Screening     *ScreeningResult     `json:"screening,omitempty"`
}

// AudioResult describes audio preparation.
type AudioResult struct {
	QualityPreset string `json:"qualityPreset,omitempty"`
	WasChunked    *bool  `json:"wasChunked,omitempty"`
	ChunkCount    *int   `json:"chunkCount,omitempty"`
}

// TranscriptionResult holds the transcript before and after cleaning.
type TranscriptionResult struct {
	RawTranscript     string `json:"rawTranscript,omitempty"`
	CleanedTranscript string `json:"cleanedTranscript,omitempty"`
}

// LanguageResult describes language handling.
type LanguageResult struct {
	DetectedLanguage string `json:"detectedLanguage,omitempty"`
	WasTranslated    *bool  `json:"wasTranslated,omitempty"`
	FinalTranscript  string `json:"finalTranscript,omitempty"`
}

// SummaryResult holds the report and its optional translation.
type SummaryResult struct {
	FullReport       string            `json:"fullReport,omitempty"`
	TranslatedReport *TranslatedReport `json:"translatedReport,omitempty"`
}

// TranslatedReport is the summary in the requested target language.
type TranslatedReport struct {
	Language string `json:"language,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ScreeningResult records content screening decisions.
type ScreeningResult struct {
	Required         *bool  `json:"required,omitempty"`
	MetadataDecision string `json:"metadataDecision,omitempty"`
	Relevance        string `json:"relevance,omitempty"`
	Warning          string `json:"warning,omitempty"`
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Empty reports whether no section is set.
func (p Processing) Empty() bool {
	return p.Audio == nil && p.Transcription == nil && p.Language == nil && p.Summary == nil && p.Screening == nil
}

// Merge overlays other onto p. Set fields in other overwrite; nil pointers
// and empty strings never erase what p already holds.
func (p *Processing) Merge(other Processing) {
	if other.Audio != nil {
		if p.Audio == nil {
			p.Audio = &AudioResult{}
		}
		p.Audio.QualityPreset = mergeString(p.Audio.QualityPreset, other.Audio.QualityPreset)
		p.Audio.WasChunked = mergePtr(p.Audio.WasChunked, other.Audio.WasChunked)
		p.Audio.ChunkCount = mergePtr(p.Audio.ChunkCount, other.Audio.ChunkCount)
	}
	if other.Transcription != nil {
		if p.Transcription == nil {
			p.Transcription = &TranscriptionResult{}
		}
		p.Transcription.RawTranscript = mergeString(p.Transcription.RawTranscript, other.Transcription.RawTranscript)
		p.Transcription.CleanedTranscript = mergeString(p.Transcription.CleanedTranscript, other.Transcription.CleanedTranscript)
	}
	if other.Language != nil {
		if p.Language == nil {
			p.Language = &LanguageResult{}
		}
		p.Language.DetectedLanguage = mergeString(p.Language.DetectedLanguage, other.Language.DetectedLanguage)
		p.Language.WasTranslated = mergePtr(p.Language.WasTranslated, other.Language.WasTranslated)
		p.Language.FinalTranscript = mergeString(p.Language.FinalTranscript, other.Language.FinalTranscript)
	}
	if other.Summary != nil {
		if p.Summary == nil {
			p.Summary = &SummaryResult{}
		}
		p.Summary.FullReport = mergeString(p.Summary.FullReport, other.Summary.FullReport)
		if tr := other.Summary.TranslatedReport; tr != nil {
			if p.Summary.TranslatedReport == nil {
				p.Summary.TranslatedReport = &TranslatedReport{}
			}
			p.Summary.TranslatedReport.Language = mergeString(p.Summary.TranslatedReport.Language, tr.Language)
			p.Summary.TranslatedReport.Text = mergeString(p.Summary.TranslatedReport.Text, tr.Text)
		}
	}
	if other.Screening != nil {
		if p.Screening == nil {
			p.Screening = &ScreeningResult{}
		}
		p.Screening.Required = mergePtr(p.Screening.Required, other.Screening.Required)
		p.Screening.MetadataDecision = mergeString(p.Screening.MetadataDecision, other.Screening.MetadataDecision)
		p.Screening.Relevance = mergeString(p.Screening.Relevance, other.Screening.Relevance)
		p.Screening.Warning = mergeString(p.Screening.Warning, other.Screening.Warning)
	}
}

func mergeString(current, incoming string) string {
	if strings.TrimSpace(incoming) == "" {
		return current
	}
	return incoming
}

func mergePtr[T any](current, incoming *T) *T {
	if incoming == nil {
		return current
	}
	v := *incoming
	return &v
}

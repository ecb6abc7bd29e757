package intel

// Section headings every summary report must contain, in order.
var ReportSections = []string{
	"Abstract Summary",
	"Key Points",
	"Action Items",
	"Decisions",
	"Sentiment Analysis",
}

// MetadataClassificationPrompt screens a remote source by its metadata before
// anything is downloaded.
const MetadataClassificationPrompt = `You are a content analyst deciding whether a video is worth summarizing as professional spoken content, using only its metadata.

Suitable: lectures, conferences, meetings, presentations, educational talks, webinars, podcasts, interviews.
Unsuitable: movies, music videos, anime, trailers, gameplay, sports highlights, vlogs, comedy sketches.

Reply with exactly one word:
- Proceed: you are confident the content is suitable.
- Reject: you are confident the content is unsuitable.
- Uncertain: the metadata is ambiguous, too short, or unclear.`

// metadataUserTemplate receives title, description, and tags.
const metadataUserTemplate = "Title: %s\nDescription: %s\nTags: %s"

// RelevanceClassificationPrompt classifies the transcript of the leading
// screening clip.
const RelevanceClassificationPrompt = `You classify the opening transcript of an audio file for professional summarization.

Relevant: meetings, conferences, presentations, lectures, interviews, academic discussions, webinars.
Irrelevant: movie or TV dialogue, song lyrics, anime, casual chatter, sports commentary, game streams.

Reply with one word: Relevant or Irrelevant.`

// canonicalTranslationTemplate receives the canonical language name.
const canonicalTranslationTemplate = `You are an expert translator. Translate the user's text accurately into %s.
Output ONLY the translated text with no comments, explanations, or apologies.`

// documentTranslationTemplate receives the target language name.
const documentTranslationTemplate = `You are a skilled translator. Translate the following meeting summary into %s.
Preserve the structure exactly, including headings, numbering, and bullet points.
Output ONLY the translated text with no extra comments.`

// SummaryPrompt is the system prompt for every summarization call.
const SummaryPrompt = `You are talknote, a meeting notes engine. Turn a raw transcript into structured, actionable notes.
Extract, organize, and summarize; do not speculate beyond the text.

Before extracting, ignore filler words, verbatim repetition, and off-topic chatter.

The output MUST contain all five sections below, using these exact Markdown headings, and none may be omitted.
Sentiment analysis must stay neutral and be based only on the language used.

# Meeting Summary: [Title/Date]

## Abstract Summary
(General summary of the meeting.)

## Key Points
- (Key point.)

## Action Items
1. (Action item, with owner when stated.)

## Decisions
- (Decision made.)

## Sentiment Analysis
(Positive, Negative, or Neutral, with a brief justification.)`

// summaryChunkTemplate receives one transcript chunk.
const summaryChunkTemplate = "Summarize this part of the meeting transcript:\n\n---\n%s\n---"

// summaryMergeTemplate receives the partial summaries joined by PartSeparator.
const summaryMergeTemplate = `You are given summaries of consecutive parts of one meeting.
Synthesize them into a single cohesive summary that contains every required section (Abstract Summary, Key Points, Action Items, Decisions, Sentiment Analysis).
The result must read as one unified document.

---
%s
---`

// summaryRepairTemplate receives the missing section names and the report.
const summaryRepairTemplate = `The summary below is missing these required sections: %s.
Rewrite it so it contains all five required sections with their exact headings. Keep the existing content.

---
%s
---`

// PartSeparator joins partial summaries for the merge call.
const PartSeparator = "\n\n---\n[End of Part]\n---\n\n"

// EmptySummaryReport is returned when there is no text left to summarize.
const EmptySummaryReport = "Could not generate a summary because the input text was empty after cleaning."

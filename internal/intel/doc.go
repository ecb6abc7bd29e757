// Package intel is the content intelligence layer of the pipeline.
//
// It pairs a chat-completion client with a speech-to-text client and owns the
// prompts and reply contracts for every AI-backed step: metadata screening,
// clip relevance, translation into the canonical language, structured
// summarization with hierarchical merge, and summary translation. Language
// detection runs locally.
//
// Transport failures surface as services.ErrServiceCall and transcription
// failures as services.ErrTranscription so the orchestrator can classify
// them. Metadata screening never fails; it degrades to DecisionUncertain.
package intel

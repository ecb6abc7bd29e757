// Package workflow runs jobs through the audio-to-summary pipeline.
//
// The Orchestrator owns one job from source acquisition to the final
// report: it sets up a private workspace, screens the content, prepares
// and transcribes the audio, normalizes the transcript language, and
// summarizes it. Every step goes through stageexec.Run so the ledger holds
// one audit event per step, and partial results are merged into the job's
// processing document as soon as they exist.
//
// The Manager starts one goroutine per submitted job and answers status
// polls straight from the ledger.
package workflow

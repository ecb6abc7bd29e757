package workflow_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"talknote/internal/intel"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/services/llm"
	"talknote/internal/testsupport"
	"talknote/internal/workflow"
)

const mergedReport = `# Meeting Summary: Launch

## Abstract Summary
Launch review.

## Key Points
- Budget approved

## Action Items
1. Prepare release notes

## Decisions
- Launch on Friday

## Sentiment Analysis
Positive.`

// scriptedCompleter answers by prompt family and counts each family.
type scriptedCompleter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	family, reply := "other", ""
	switch {
	case req.System == intel.RelevanceClassificationPrompt:
		family, reply = "relevance", "relevant"
	case strings.Contains(req.System, "Translate the user's text"):
		family, reply = "canonical", "Alpha team met today. Budget was approved. Launch moves to Friday."
	case strings.Contains(req.System, "Translate the following meeting summary"):
		family, reply = "document", "Resumen de la reunión"
	case req.System == intel.SummaryPrompt && strings.Contains(req.User, "[End of Part]"):
		family, reply = "merge", mergedReport
	case req.System == intel.SummaryPrompt:
		family, reply = "part", "partial summary"
	}
	s.mu.Lock()
	s.counts[family]++
	s.mu.Unlock()
	return reply, nil
}

type constantTranscriber string

func (c constantTranscriber) Transcribe(context.Context, string) (string, error) {
	return string(c), nil
}

// frenchIntel pins language detection so the test does not depend on
// detector confidence for a short sample.
type frenchIntel struct {
	*intel.Service
}

func (frenchIntel) DetectLanguage(string) (string, error) { return "fr", nil }

func TestRunFrenchMeetingTranslatesOnceAndMergesSummaryParts(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTextChunkSize(30))
	store := testsupport.MustOpenLedger(t, cfg)
	completer := &scriptedCompleter{counts: map[string]int{}}
	service := intel.New(completer, constantTranscriber("Bonjour à tous."), intel.SettingsFromConfig(cfg), logging.NewNop())
	media := &fakeMedia{}
	orch := workflow.NewOrchestrator(cfg, store, media, frenchIntel{service}, logging.NewNop(), workflow.WithNotifier(&fakeNotifier{}))

	source := cfg.Paths.UploadDir + "/standup.mp3"
	testsupport.WriteFile(t, source, 4096)

	result, err := orch.Run(context.Background(), workflow.Request{
		Source:         source,
		Owner:          owner,
		TargetLanguage: "spanish",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string]int{"relevance": 1, "canonical": 1, "part": 3, "merge": 1, "document": 1}
	for family, count := range want {
		if completer.counts[family] != count {
			t.Fatalf("%s calls = %d, want %d (all: %v)", family, completer.counts[family], count, completer.counts)
		}
	}
	if completer.counts["other"] != 0 {
		t.Fatalf("unexpected prompts: %v", completer.counts)
	}

	if result.Language.DetectedLanguage != "fr" || !*result.Language.WasTranslated {
		t.Fatalf("unexpected language result %+v", result.Language)
	}
	if result.Summary.FullReport != mergedReport {
		t.Fatalf("expected merged report, got %q", result.Summary.FullReport)
	}
	if result.Summary.TranslatedReport == nil || result.Summary.TranslatedReport.Language != "Spanish" {
		t.Fatalf("unexpected translated report %+v", result.Summary.TranslatedReport)
	}

	job, err := store.Get(context.Background(), mustOnlyJobID(t, store))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var translations int
	for _, event := range job.Events {
		if event.Step == "translate_to_english" {
			translations++
		}
	}
	if translations != 1 {
		t.Fatalf("expected one translate_to_english step, got %d", translations)
	}
	summary, _ := findEvent(job.Events, "generate_summary")
	if summary.Message != "3 part(s), merged" {
		t.Fatalf("unexpected summary note %q", summary.Message)
	}
	if _, ok := findEvent(job.Events, "translate_summary_to_Spanish"); !ok {
		t.Fatalf("expected final translation step, got %v", stepNames(job.Events))
	}
}

func mustOnlyJobID(t *testing.T, store *ledger.Store) string {
	t.Helper()
	jobs, err := store.ListVisible(context.Background(), owner)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("ListVisible = %d jobs, %v", len(jobs), err)
	}
	return jobs[0].ID
}

package intel

import (
	"context"
	"fmt"
	"strings"

	"talknote/internal/chunk"
	"talknote/internal/logging"
	"talknote/internal/services/llm"
)

// Summary is the outcome of hierarchical summarization. Report is the merge
// output when Merged is set, unless Repaired is also set: then the merge
// output lacked required sections and Report is the single repair reply.
type Summary struct {
	Report   string
	Parts    int
	Merged   bool
	Repaired bool
	Missing  []string
}

// ValidateReport returns the required section headings absent from report.
func ValidateReport(report string) []string {
	lower := strings.ToLower(report)
	var missing []string
	for _, section := range ReportSections {
		if !strings.Contains(lower, strings.ToLower(section)) {
			missing = append(missing, section)
		}
	}
	return missing
}

// Summarize produces a structured report. Text longer than the chunk size is
// summarized per part and then merged with one additional call. A report
// missing required sections is sent back once for repair.
func (s *Service) Summarize(ctx context.Context, text string) (Summary, error) {
	parts := chunk.SplitText(text, s.settings.ChunkSize)
	if len(parts) == 0 {
		return Summary{Report: EmptySummaryReport}, nil
	}

	logger := logging.WithContext(ctx, s.logger)
	partials := make([]string, 0, len(parts))
	for i, part := range parts {
		logger.Debug("summarizing part",
			logging.Int("part", i+1),
			logging.Int("parts", len(parts)),
			logging.String(logging.FieldEventType, "summary_part"),
		)
		reply, err := s.summarize(ctx, fmt.Sprintf(summaryChunkTemplate, part))
		if err != nil {
			return Summary{}, serviceError("summarization", fmt.Sprintf("summarize part %d", i+1), err)
		}
		partials = append(partials, reply)
	}

	result := Summary{Report: partials[0], Parts: len(parts)}
	if len(partials) > 1 {
		merged, err := s.summarize(ctx, fmt.Sprintf(summaryMergeTemplate, strings.Join(partials, PartSeparator)))
		if err != nil {
			return Summary{}, serviceError("summarization", "merge summaries", err)
		}
		result.Report = merged
		result.Merged = true
	}

	missing := ValidateReport(result.Report)
	if len(missing) > 0 {
		repaired, err := s.summarize(ctx, fmt.Sprintf(summaryRepairTemplate, strings.Join(missing, ", "), result.Report))
		if err != nil {
			return Summary{}, serviceError("summarization", "repair summary", err)
		}
		result.Report = repaired
		result.Repaired = true
		missing = ValidateReport(repaired)
	}
	if len(missing) > 0 {
		logging.WarnWithContext(logger, "summary is missing required sections", "summary_incomplete",
			logging.String("missing", strings.Join(missing, ", ")),
			logging.String(logging.FieldImpact, "report is stored without the missing sections"),
		)
		result.Missing = missing
	}
	return result, nil
}

func (s *Service) summarize(ctx context.Context, user string) (string, error) {
	reply, err := s.llm.Complete(ctx, llm.Request{
		Model:  s.settings.SummaryModel,
		System: SummaryPrompt,
		User:   user,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

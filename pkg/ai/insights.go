package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/querysense/querysense/pkg/llm"
	"github.com/querysense/querysense/pkg/models"
)

// insightSampleSize caps how many result rows are sent to the model. The
// total row count is still reported so the model knows what it is sampling.
const insightSampleSize = 10

// InsightsUnavailable is the fixed fallback returned whenever insight
// generation fails. Insights are best-effort enrichment and never fail the
// request.
const InsightsUnavailable = "Unable to generate insights at this time."

const insightsSystemPrompt = "You are a business analyst providing actionable insights from data."

// Insight generation runs warmer than conversion: variety matters more than
// determinism here.
const (
	insightsTemperature = 0.7
	insightsMaxTokens   = 400
)

// Summarizer produces business-oriented prose about query results.
type Summarizer struct {
	completer llm.Completer
}

// NewSummarizer creates a Summarizer over the given completion capability.
func NewSummarizer(completer llm.Completer) *Summarizer {
	return &Summarizer{completer: completer}
}

// Summarize returns insight text for the question and its result rows. It
// never returns an error: any underlying failure is logged and mapped to
// InsightsUnavailable.
func (s *Summarizer) Summarize(ctx context.Context, question string, rows []models.Row) string {
	sample := rows
	if len(sample) > insightSampleSize {
		sample = sample[:insightSampleSize]
	}

	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		slog.Warn("Failed to marshal result sample for insights", "error", err)
		return InsightsUnavailable
	}

	prompt := fmt.Sprintf(`You are a business analyst. Analyze the following SQL query results and provide actionable insights.

Original Question: %s

Query Results (first %d rows):
%s

Total Rows: %d

Provide:
1. Key findings (2-3 bullet points)
2. Business implications
3. Recommended actions

Keep it concise and business-focused.`, question, insightSampleSize, sampleJSON, len(rows))

	text, err := s.completer.Complete(ctx, llm.CompletionRequest{
		System:      insightsSystemPrompt,
		User:        prompt,
		Temperature: insightsTemperature,
		MaxTokens:   insightsMaxTokens,
	})
	if err != nil {
		slog.Warn("Insight generation failed", "error", err)
		return InsightsUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return InsightsUnavailable
	}

	return text
}

package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/querysense/querysense/pkg/llm"
)

// ExplanationUnavailable is the fallback when explanation fails. Like
// insights, explanation is best-effort and never surfaces an error.
const ExplanationUnavailable = "Unable to explain query at this time."

const (
	explainTemperature = 0.5
	explainMaxTokens   = 300
)

// Explainer describes SQL statements in plain language for business users.
type Explainer struct {
	completer llm.Completer
}

// NewExplainer creates an Explainer over the given completion capability.
func NewExplainer(completer llm.Completer) *Explainer {
	return &Explainer{completer: completer}
}

// Explain returns a non-technical description of the SQL statement.
func (e *Explainer) Explain(ctx context.Context, sqlQuery string) string {
	prompt := fmt.Sprintf(`Explain the following SQL query in simple, non-technical language:

%s

Explain:
1. What data is being retrieved
2. Which tables are involved
3. Any filters or conditions
4. The expected output

Use simple language that a business user can understand.`, sqlQuery)

	text, err := e.completer.Complete(ctx, llm.CompletionRequest{
		User:        prompt,
		Temperature: explainTemperature,
		MaxTokens:   explainMaxTokens,
	})
	if err != nil {
		slog.Warn("Query explanation failed", "error", err)
		return ExplanationUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return ExplanationUnavailable
	}

	return text
}

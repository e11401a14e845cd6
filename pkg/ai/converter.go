// Package ai contains the adapters between the query pipeline and the
// text-generation capability: natural-language to SQL conversion, result
// insight generation, and plain-language query explanation.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/querysense/querysense/pkg/llm"
)

// DefaultSchemaContext describes the sample analytics dataset. It is
// embedded in the conversion prompt unless the caller supplies a schema.
const DefaultSchemaContext = `
Available tables:
- customers (id, name, email, city, country, signup_date)
- orders (id, customer_id, product_id, quantity, total_amount, order_date, status)
- products (id, name, category, price, stock_quantity, supplier)

Use PostgreSQL syntax.
`

const conversionSystemPrompt = `You are a SQL expert. Always respond with valid JSON containing "sql" and "explanation" fields.`

// Conversion temperature is kept low to favor deterministic SQL over
// creative phrasing.
const (
	conversionTemperature = 0.3
	conversionMaxTokens   = 500
)

// fallbackExplanation is used when the SQL had to be recovered from
// unstructured model output.
const fallbackExplanation = "Auto-generated SQL query"

// ConversionError indicates the model produced no usable SQL. It terminates
// the request before any execution is attempted.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("AI conversion failed: %v", e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Conversion is the structured result of a successful conversion.
type Conversion struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// Converter turns natural-language questions into SELECT statements.
type Converter struct {
	completer llm.Completer
}

// NewConverter creates a Converter over the given completion capability.
func NewConverter(completer llm.Completer) *Converter {
	return &Converter{completer: completer}
}

// Convert asks the model for a SQL translation of the question. schemaContext
// overrides the default dataset description when non-empty.
//
// Model output is not guaranteed to be well-formed, so parsing is two-tier:
// strip code fences and parse as JSON; failing that, extract a SELECT-shaped
// substring and synthesize a generic explanation. Only when both tiers fail
// is a *ConversionError returned.
func (c *Converter) Convert(ctx context.Context, question, schemaContext string) (Conversion, error) {
	if schemaContext == "" {
		schemaContext = DefaultSchemaContext
	}

	prompt := fmt.Sprintf(`You are an expert SQL query generator. Convert the following natural language question into a valid PostgreSQL SELECT query.

Database Schema:
%s

User Question: %s

Requirements:
1. Generate ONLY SELECT queries (no INSERT, UPDATE, DELETE, DROP, etc.)
2. Use proper PostgreSQL syntax
3. Include appropriate JOINs if multiple tables are needed
4. Use aliases for readability
5. Return clean, executable SQL

Respond in JSON format:
{
  "sql": "SELECT query here",
  "explanation": "Brief explanation of what the query does"
}`, schemaContext, question)

	raw, err := c.completer.Complete(ctx, llm.CompletionRequest{
		System:      conversionSystemPrompt,
		User:        prompt,
		Temperature: conversionTemperature,
		MaxTokens:   conversionMaxTokens,
	})
	if err != nil {
		return Conversion{}, &ConversionError{Err: err}
	}

	conv, err := parseConversion(raw)
	if err != nil {
		return Conversion{}, &ConversionError{Err: err}
	}
	return conv, nil
}

var (
	codeFenceRe  = regexp.MustCompile("```(?:json)?\n?")
	selectLikeRe = regexp.MustCompile(`(?is)select[\s\S]+?(?:;|$)`)
)

// parseConversion applies the two-tier parsing policy to raw model output.
func parseConversion(raw string) (Conversion, error) {
	cleaned := strings.TrimSpace(codeFenceRe.ReplaceAllString(raw, ""))

	var conv Conversion
	if err := json.Unmarshal([]byte(cleaned), &conv); err == nil && conv.SQL != "" {
		return conv, nil
	}

	// Fallback: recover a SELECT-shaped substring from unstructured output.
	if match := selectLikeRe.FindString(raw); match != "" {
		return Conversion{
			SQL:         strings.TrimSuffix(strings.TrimSpace(match), ";"),
			Explanation: fallbackExplanation,
		}, nil
	}

	return Conversion{}, fmt.Errorf("failed to parse model response")
}

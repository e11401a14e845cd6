package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querysense/querysense/pkg/llm"
)

// fakeCompleter returns a canned response (or error) and records the request.
type fakeCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestConverter_ParsesCleanJSON(t *testing.T) {
	fake := &fakeCompleter{response: `{"sql": "SELECT * FROM customers", "explanation": "All customers"}`}
	conv, err := NewConverter(fake).Convert(context.Background(), "show customers", "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers", conv.SQL)
	assert.Equal(t, "All customers", conv.Explanation)
}

func TestConverter_StripsCodeFences(t *testing.T) {
	fenced := "```json\n{\"sql\": \"SELECT name FROM customers WHERE country = 'USA'\", \"explanation\": \"USA customers\"}\n```"
	plain := `{"sql": "SELECT name FROM customers WHERE country = 'USA'", "explanation": "USA customers"}`

	for _, response := range []string{fenced, plain} {
		fake := &fakeCompleter{response: response}
		conv, err := NewConverter(fake).Convert(context.Background(), "customers from USA", "")
		require.NoError(t, err)
		assert.Equal(t, "SELECT name FROM customers WHERE country = 'USA'", conv.SQL)
		assert.Equal(t, "USA customers", conv.Explanation)
	}
}

func TestConverter_FallbackExtraction(t *testing.T) {
	fake := &fakeCompleter{response: "Sure! Here is your query:\n\nSELECT id, name\nFROM customers\nWHERE country = 'USA';\n\nHope that helps."}
	conv, err := NewConverter(fake).Convert(context.Background(), "customers from USA", "")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name\nFROM customers\nWHERE country = 'USA'", conv.SQL)
	assert.Equal(t, "Auto-generated SQL query", conv.Explanation)
}

func TestConverter_FailsWhenNoSQLRecoverable(t *testing.T) {
	fake := &fakeCompleter{response: "I cannot answer that question."}
	_, err := NewConverter(fake).Convert(context.Background(), "nonsense", "")

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
}

func TestConverter_WrapsTransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	fake := &fakeCompleter{err: transportErr}
	_, err := NewConverter(fake).Convert(context.Background(), "anything", "")

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, transportErr)
}

func TestConverter_PromptEmbedsSchema(t *testing.T) {
	fake := &fakeCompleter{response: `{"sql": "SELECT 1", "explanation": "x"}`}
	converter := NewConverter(fake)

	_, err := converter.Convert(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Contains(t, fake.lastReq.User, "customers (id, name, email")
	assert.InDelta(t, 0.3, fake.lastReq.Temperature, 0.001)
	assert.Equal(t, 500, fake.lastReq.MaxTokens)

	_, err = converter.Convert(context.Background(), "q", "tables: widgets(id)")
	require.NoError(t, err)
	assert.Contains(t, fake.lastReq.User, "tables: widgets(id)")
	assert.NotContains(t, fake.lastReq.User, "customers (id, name, email")
}

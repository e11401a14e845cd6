package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/querysense/querysense/pkg/models"
)

func sampleRows(n int) []models.Row {
	rows := make([]models.Row, n)
	for i := range rows {
		rows[i] = models.Row{"id": int64(i + 1), "name": fmt.Sprintf("row-%d", i+1)}
	}
	return rows
}

func TestSummarizer_ReturnsModelText(t *testing.T) {
	fake := &fakeCompleter{response: "Sales are concentrated in the USA."}
	got := NewSummarizer(fake).Summarize(context.Background(), "where are sales?", sampleRows(3))
	assert.Equal(t, "Sales are concentrated in the USA.", got)
	assert.InDelta(t, 0.7, fake.lastReq.Temperature, 0.001)
	assert.Equal(t, 400, fake.lastReq.MaxTokens)
}

func TestSummarizer_SamplesFirstTenRows(t *testing.T) {
	fake := &fakeCompleter{response: "ok"}
	NewSummarizer(fake).Summarize(context.Background(), "q", sampleRows(25))

	assert.Contains(t, fake.lastReq.User, "row-10")
	assert.NotContains(t, fake.lastReq.User, "row-11")
	assert.Contains(t, fake.lastReq.User, "Total Rows: 25")
}

func TestSummarizer_FallsBackOnError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("upstream down")}
	got := NewSummarizer(fake).Summarize(context.Background(), "q", sampleRows(1))
	assert.Equal(t, InsightsUnavailable, got)
}

func TestSummarizer_FallsBackOnEmptyOutput(t *testing.T) {
	fake := &fakeCompleter{response: "   "}
	got := NewSummarizer(fake).Summarize(context.Background(), "q", sampleRows(1))
	assert.Equal(t, InsightsUnavailable, got)
}

func TestExplainer_FallsBackOnError(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("upstream down")}
	got := NewExplainer(fake).Explain(context.Background(), "SELECT 1")
	assert.Equal(t, ExplanationUnavailable, got)
}

func TestExplainer_ReturnsModelText(t *testing.T) {
	fake := &fakeCompleter{response: "This query counts customers."}
	got := NewExplainer(fake).Explain(context.Background(), "SELECT count(*) FROM customers")
	assert.Equal(t, "This query counts customers.", got)
	assert.Contains(t, fake.lastReq.User, "SELECT count(*) FROM customers")
}

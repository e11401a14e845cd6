// Package orchestrator drives a submitted question through the full query
// pipeline: persist, convert, execute, summarize. Each stage transition is
// announced over the event bus before the next stage begins.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/querysense/querysense/pkg/ai"
	"github.com/querysense/querysense/pkg/executor"
	"github.com/querysense/querysense/pkg/models"
)

// Stage names identify where in the pipeline a failure occurred.
const (
	StageCreate     = "create"
	StageConversion = "conversion"
	StageExecution  = "execution"
	StagePersist    = "persist"
)

// StageError wraps a pipeline failure with the stage it occurred in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// QueryStore is the persistence surface the pipeline writes through.
type QueryStore interface {
	CreateRequest(ctx context.Context, ownerID, question string) (*models.QueryRequest, error)
	SetGeneratedSQL(ctx context.Context, requestID, sqlQuery, explanation string) error
	CreateResult(ctx context.Context, requestID string, rows []models.Row, insights string, executionTimeMS int64) (*models.QueryResult, error)
}

// Converter translates a question into SQL.
type Converter interface {
	Convert(ctx context.Context, question, schemaContext string) (ai.Conversion, error)
}

// Executor runs validated SQL and returns rows with timing.
type Executor interface {
	Execute(ctx context.Context, sqlText string) (*executor.Result, error)
}

// Summarizer produces best-effort insight text. It never fails.
type Summarizer interface {
	Summarize(ctx context.Context, question string, rows []models.Row) string
}

// Notifier publishes stage events to the owner (and admins on completion).
type Notifier interface {
	QueryStart(userID, queryID, question string)
	SQLGenerated(userID, queryID, sql, explanation string)
	QueryExecuting(userID, queryID string)
	QueryResults(userID, queryID string, results []models.Row, executionTimeMS int64)
	QueryInsights(userID, queryID, insights string)
	QueryError(userID, queryID, message string)
	QueryComplete(userID, queryID string)
}

// Outcome is the synchronous response for a completed pipeline run. The same
// data also went out incrementally as stage events.
type Outcome struct {
	QueryID       string       `json:"queryId"`
	Question      string       `json:"question"`
	SQL           string       `json:"sql"`
	Explanation   string       `json:"explanation"`
	Results       []models.Row `json:"results"`
	RowCount      int          `json:"rowCount"`
	Insights      string       `json:"insights"`
	ExecutionTime int64        `json:"executionTime"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	store      QueryStore
	converter  Converter
	executor   Executor
	summarizer Summarizer
	notifier   Notifier
}

// New creates a Pipeline.
func New(store QueryStore, converter Converter, exec Executor, summarizer Summarizer, notifier Notifier) *Pipeline {
	return &Pipeline{
		store:      store,
		converter:  converter,
		executor:   exec,
		summarizer: summarizer,
		notifier:   notifier,
	}
}

// Run processes one question end to end for the given owner.
//
// Ordering matters throughout: every persistence write happens before the
// event announcing it, so a client reacting to an event can immediately read
// the state it describes. A conversion or execution failure emits query:error
// and stops; whatever was persisted before the failure stays persisted (in
// particular, generated SQL survives an execution failure). Insights are
// best-effort and cannot fail the run.
func (p *Pipeline) Run(ctx context.Context, owner models.Identity, question string) (*Outcome, error) {
	req, err := p.store.CreateRequest(ctx, owner.UserID, question)
	if err != nil {
		return nil, &StageError{Stage: StageCreate, Err: err}
	}
	p.notifier.QueryStart(owner.UserID, req.ID, question)

	conv, err := p.converter.Convert(ctx, question, "")
	if err != nil {
		slog.Error("SQL conversion failed", "query_id", req.ID, "error", err)
		p.notifier.QueryError(owner.UserID, req.ID, "AI conversion failed")
		return nil, &StageError{Stage: StageConversion, Err: err}
	}

	if err := p.store.SetGeneratedSQL(ctx, req.ID, conv.SQL, conv.Explanation); err != nil {
		p.notifier.QueryError(owner.UserID, req.ID, "failed to save generated SQL")
		return nil, &StageError{Stage: StagePersist, Err: err}
	}
	p.notifier.SQLGenerated(owner.UserID, req.ID, conv.SQL, conv.Explanation)

	p.notifier.QueryExecuting(owner.UserID, req.ID)
	result, err := p.executor.Execute(ctx, conv.SQL)
	if err != nil {
		slog.Error("Query execution failed", "query_id", req.ID, "error", err)
		p.notifier.QueryError(owner.UserID, req.ID, executionErrorMessage(err))
		return nil, &StageError{Stage: StageExecution, Err: err}
	}
	p.notifier.QueryResults(owner.UserID, req.ID, result.Rows, result.ExecutionTimeMS)

	insights := p.summarizer.Summarize(ctx, question, result.Rows)
	p.notifier.QueryInsights(owner.UserID, req.ID, insights)

	if _, err := p.store.CreateResult(ctx, req.ID, result.Rows, insights, result.ExecutionTimeMS); err != nil {
		p.notifier.QueryError(owner.UserID, req.ID, "failed to save query result")
		return nil, &StageError{Stage: StagePersist, Err: err}
	}
	p.notifier.QueryComplete(owner.UserID, req.ID)

	return &Outcome{
		QueryID:       req.ID,
		Question:      question,
		SQL:           conv.SQL,
		Explanation:   conv.Explanation,
		Results:       result.Rows,
		RowCount:      result.RowCount,
		Insights:      insights,
		ExecutionTime: result.ExecutionTimeMS,
	}, nil
}

// executionErrorMessage picks the client-facing message for an execution
// failure without leaking database internals.
func executionErrorMessage(err error) string {
	var safetyErr *executor.SafetyError
	switch {
	case errors.As(err, &safetyErr):
		return safetyErr.Reason
	case errors.Is(err, executor.ErrTimeout):
		return "query execution timed out"
	default:
		return "query execution failed"
	}
}

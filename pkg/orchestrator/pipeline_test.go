package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querysense/querysense/pkg/ai"
	"github.com/querysense/querysense/pkg/executor"
	"github.com/querysense/querysense/pkg/models"
)

type fakeStore struct {
	nextID      string
	createErr   error
	setSQLErr   error
	resultErr   error
	savedSQL    string
	savedExpl   string
	savedResult *models.QueryResult
}

func (f *fakeStore) CreateRequest(_ context.Context, ownerID, question string) (*models.QueryRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.QueryRequest{ID: f.nextID, OwnerID: ownerID, Question: question}, nil
}

func (f *fakeStore) SetGeneratedSQL(_ context.Context, _, sqlQuery, explanation string) error {
	if f.setSQLErr != nil {
		return f.setSQLErr
	}
	f.savedSQL = sqlQuery
	f.savedExpl = explanation
	return nil
}

func (f *fakeStore) CreateResult(_ context.Context, requestID string, rows []models.Row, insights string, executionTimeMS int64) (*models.QueryResult, error) {
	if f.resultErr != nil {
		return nil, f.resultErr
	}
	f.savedResult = &models.QueryResult{
		RequestID:       requestID,
		Rows:            rows,
		Insights:        insights,
		ExecutionTimeMS: executionTimeMS,
	}
	return f.savedResult, nil
}

type fakeConverter struct {
	conversion ai.Conversion
	err        error
}

func (f *fakeConverter) Convert(context.Context, string, string) (ai.Conversion, error) {
	return f.conversion, f.err
}

type fakeExecutor struct {
	result *executor.Result
	err    error
}

func (f *fakeExecutor) Execute(context.Context, string) (*executor.Result, error) {
	return f.result, f.err
}

type fakeSummarizer struct {
	insights string
}

func (f *fakeSummarizer) Summarize(context.Context, string, []models.Row) string {
	return f.insights
}

// recordingNotifier captures stage events in call order.
type recordingNotifier struct {
	events []string
	errMsg string
}

func (r *recordingNotifier) QueryStart(_, _, _ string) { r.events = append(r.events, "query:start") }
func (r *recordingNotifier) SQLGenerated(_, _, _, _ string) {
	r.events = append(r.events, "query:sql-generated")
}
func (r *recordingNotifier) QueryExecuting(_, _ string) {
	r.events = append(r.events, "query:executing")
}
func (r *recordingNotifier) QueryResults(_, _ string, _ []models.Row, _ int64) {
	r.events = append(r.events, "query:results")
}
func (r *recordingNotifier) QueryInsights(_, _, _ string) {
	r.events = append(r.events, "query:insights")
}
func (r *recordingNotifier) QueryError(_, _, message string) {
	r.events = append(r.events, "query:error")
	r.errMsg = message
}
func (r *recordingNotifier) QueryComplete(_, _ string) {
	r.events = append(r.events, "query:complete")
}

func testOwner() models.Identity {
	return models.Identity{UserID: "user-1", Email: "alice@example.com", Role: models.RoleUser}
}

func happyPipeline() (*Pipeline, *fakeStore, *recordingNotifier) {
	store := &fakeStore{nextID: "q-1"}
	notifier := &recordingNotifier{}
	p := New(
		store,
		&fakeConverter{conversion: ai.Conversion{SQL: "SELECT COUNT(*) FROM customers", Explanation: "Counts customers"}},
		&fakeExecutor{result: &executor.Result{
			Rows:            []models.Row{{"count": int64(5)}},
			RowCount:        1,
			ExecutionTimeMS: 17,
		}},
		&fakeSummarizer{insights: "Five customers."},
		notifier,
	)
	return p, store, notifier
}

func TestPipeline_SuccessEmitsOrderedEventsAndPersists(t *testing.T) {
	p, store, notifier := happyPipeline()

	outcome, err := p.Run(context.Background(), testOwner(), "how many customers?")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"query:start",
		"query:sql-generated",
		"query:executing",
		"query:results",
		"query:insights",
		"query:complete",
	}, notifier.events)

	assert.Equal(t, "q-1", outcome.QueryID)
	assert.Equal(t, "SELECT COUNT(*) FROM customers", outcome.SQL)
	assert.Equal(t, "Five customers.", outcome.Insights)
	assert.Equal(t, int64(17), outcome.ExecutionTime)
	assert.Equal(t, 1, outcome.RowCount)

	assert.Equal(t, "SELECT COUNT(*) FROM customers", store.savedSQL)
	require.NotNil(t, store.savedResult)
	assert.Equal(t, "Five customers.", store.savedResult.Insights)
	assert.Equal(t, int64(17), store.savedResult.ExecutionTimeMS)
}

func TestPipeline_ConversionFailureStopsAfterStart(t *testing.T) {
	store := &fakeStore{nextID: "q-1"}
	notifier := &recordingNotifier{}
	p := New(
		store,
		&fakeConverter{err: &ai.ConversionError{Err: errors.New("no usable SQL")}},
		&fakeExecutor{},
		&fakeSummarizer{},
		notifier,
	)

	_, err := p.Run(context.Background(), testOwner(), "gibberish")

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageConversion, stageErr.Stage)

	assert.Equal(t, []string{"query:start", "query:error"}, notifier.events)
	assert.Equal(t, "AI conversion failed", notifier.errMsg)
	assert.Empty(t, store.savedSQL)
	assert.Nil(t, store.savedResult)
}

func TestPipeline_ExecutionFailureKeepsGeneratedSQL(t *testing.T) {
	store := &fakeStore{nextID: "q-1"}
	notifier := &recordingNotifier{}
	p := New(
		store,
		&fakeConverter{conversion: ai.Conversion{SQL: "SELECT * FROM nowhere", Explanation: "Reads a missing table"}},
		&fakeExecutor{err: &executor.ExecError{Err: errors.New(`relation "nowhere" does not exist`)}},
		&fakeSummarizer{},
		notifier,
	)

	_, err := p.Run(context.Background(), testOwner(), "read the missing table")

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExecution, stageErr.Stage)

	assert.Equal(t, []string{
		"query:start",
		"query:sql-generated",
		"query:executing",
		"query:error",
	}, notifier.events)
	assert.Equal(t, "query execution failed", notifier.errMsg)

	// The conversion output survives the execution failure.
	assert.Equal(t, "SELECT * FROM nowhere", store.savedSQL)
	assert.Nil(t, store.savedResult)
}

func TestPipeline_SafetyRejectionSurfacesReason(t *testing.T) {
	store := &fakeStore{nextID: "q-1"}
	notifier := &recordingNotifier{}
	p := New(
		store,
		&fakeConverter{conversion: ai.Conversion{SQL: "DROP TABLE customers"}},
		&fakeExecutor{err: &executor.SafetyError{Reason: "only SELECT queries are allowed"}},
		&fakeSummarizer{},
		notifier,
	)

	_, err := p.Run(context.Background(), testOwner(), "drop everything")
	require.Error(t, err)
	assert.Equal(t, "only SELECT queries are allowed", notifier.errMsg)
}

func TestPipeline_TimeoutSurfacesTimeoutMessage(t *testing.T) {
	store := &fakeStore{nextID: "q-1"}
	notifier := &recordingNotifier{}
	p := New(
		store,
		&fakeConverter{conversion: ai.Conversion{SQL: "SELECT pg_sleep(60)"}},
		&fakeExecutor{err: executor.ErrTimeout},
		&fakeSummarizer{},
		notifier,
	)

	_, err := p.Run(context.Background(), testOwner(), "something slow")
	require.Error(t, err)
	assert.Equal(t, "query execution timed out", notifier.errMsg)
}

func TestPipeline_InsightFallbackStillCompletes(t *testing.T) {
	store := &fakeStore{nextID: "q-1"}
	notifier := &recordingNotifier{}
	p := New(
		store,
		&fakeConverter{conversion: ai.Conversion{SQL: "SELECT 1", Explanation: "Selects one"}},
		&fakeExecutor{result: &executor.Result{Rows: []models.Row{{"?column?": int64(1)}}, RowCount: 1, ExecutionTimeMS: 2}},
		&fakeSummarizer{insights: ai.InsightsUnavailable},
		notifier,
	)

	outcome, err := p.Run(context.Background(), testOwner(), "select one")
	require.NoError(t, err)

	assert.Equal(t, ai.InsightsUnavailable, outcome.Insights)
	assert.Contains(t, notifier.events, "query:complete")
	require.NotNil(t, store.savedResult)
	assert.Equal(t, ai.InsightsUnavailable, store.savedResult.Insights)
}

func TestPipeline_CreateRequestFailure(t *testing.T) {
	store := &fakeStore{createErr: errors.New("connection refused")}
	notifier := &recordingNotifier{}
	p := New(store, &fakeConverter{}, &fakeExecutor{}, &fakeSummarizer{}, notifier)

	_, err := p.Run(context.Background(), testOwner(), "anything")

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageCreate, stageErr.Stage)
	assert.Empty(t, notifier.events)
}

func TestPipeline_ResubmissionCreatesDistinctRequests(t *testing.T) {
	p, store, _ := happyPipeline()

	first, err := p.Run(context.Background(), testOwner(), "same question")
	require.NoError(t, err)

	store.nextID = "q-2"
	second, err := p.Run(context.Background(), testOwner(), "same question")
	require.NoError(t, err)

	assert.NotEqual(t, first.QueryID, second.QueryID)
}

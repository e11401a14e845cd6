// Package executor runs model-generated SQL behind a safety gate: only
// SELECT-shaped statements with no mutating keywords are ever handed to the
// database, and every statement runs under a hard timeout.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/querysense/querysense/pkg/models"
)

// DefaultStatementTimeout bounds how long a statement may run.
const DefaultStatementTimeout = 10 * time.Second

// denylist contains keywords that disqualify a statement outright. The check
// is substring containment against the whole normalized statement, not
// tokenized: a string literal containing "delete" is rejected too. That
// over-rejection is an accepted tradeoff; the gate errs conservative.
var denylist = []string{
	"drop", "delete", "update", "insert", "alter",
	"create", "truncate", "grant", "revoke",
}

// ErrTimeout is returned when a statement exceeds the configured bound.
var ErrTimeout = errors.New("query execution timed out")

// SafetyError is a policy rejection. It is raised before the statement
// touches the database and is never retried.
type SafetyError struct {
	Reason string
}

func (e *SafetyError) Error() string {
	return e.Reason
}

// ExecError wraps an underlying database fault (anything that is neither a
// policy rejection nor a timeout).
type ExecError struct {
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Result holds the rows and timing of a successful execution.
type Result struct {
	Rows            []models.Row
	RowCount        int
	ExecutionTimeMS int64
}

// Executor validates and runs read-only statements.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
}

// New creates an Executor. A non-positive timeout falls back to
// DefaultStatementTimeout.
func New(db *sql.DB, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultStatementTimeout
	}
	return &Executor{db: db, timeout: timeout}
}

// Validate applies the safety gate to a statement without running it.
// Each check is a hard gate; the first failure short-circuits.
func Validate(sqlText string) error {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))

	if !strings.HasPrefix(normalized, "select") {
		return &SafetyError{Reason: "only SELECT queries are allowed"}
	}
	for _, keyword := range denylist {
		if strings.Contains(normalized, keyword) {
			return &SafetyError{Reason: "query contains forbidden operations"}
		}
	}
	return nil
}

// Execute validates the statement, runs it under the configured timeout, and
// returns the rows with timing. Failures are classified: *SafetyError for
// policy rejections, ErrTimeout when the bound is exceeded, *ExecError for
// any other database fault.
func (e *Executor) Execute(ctx context.Context, sqlText string) (*Result, error) {
	if err := Validate(sqlText); err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryContext(execCtx, sqlText)
	if err != nil {
		return nil, classify(execCtx, err)
	}
	defer rows.Close()

	collected, err := scanRows(rows)
	if err != nil {
		return nil, classify(execCtx, err)
	}

	return &Result{
		Rows:            collected,
		RowCount:        len(collected),
		ExecutionTimeMS: time.Since(start).Milliseconds(),
	}, nil
}

// classify maps a database error to the executor's error taxonomy.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	// Server-side cancellation (statement_timeout / query_canceled).
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "57014" {
		return ErrTimeout
	}
	return &ExecError{Err: err}
}

// scanRows collects all rows as column-keyed maps, normalizing byte slices
// to strings for JSON round-tripping.
func scanRows(rows *sql.Rows) ([]models.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	collected := make([]models.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		collected = append(collected, row)
	}
	return collected, rows.Err()
}

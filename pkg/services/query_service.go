package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/querysense/querysense/pkg/models"
)

// QueryService persists query requests and their results.
type QueryService struct {
	db *sql.DB
}

// NewQueryService creates a QueryService.
func NewQueryService(db *sql.DB) *QueryService {
	if db == nil {
		panic("NewQueryService: db must not be nil")
	}
	return &QueryService{db: db}
}

// CreateRequest persists a new request with empty SQL/explanation and
// returns it. Every submission creates a fresh request; identical questions
// are never deduplicated.
func (s *QueryService) CreateRequest(ctx context.Context, ownerID, question string) (*models.QueryRequest, error) {
	req := &models.QueryRequest{
		ID:       uuid.New().String(),
		OwnerID:  ownerID,
		Question: question,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO queries (id, user_id, question, sql_query, explanation) VALUES ($1, $2, $3, '', '') RETURNING created_at`,
		req.ID, req.OwnerID, req.Question,
	).Scan(&req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}
	return req, nil
}

// SetGeneratedSQL records the conversion output on the request. Called
// exactly once per request, after conversion succeeds; the SQL is never
// re-derived afterwards.
func (s *QueryService) SetGeneratedSQL(ctx context.Context, requestID, sqlQuery, explanation string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE queries SET sql_query = $1, explanation = $2 WHERE id = $3`,
		sqlQuery, explanation, requestID,
	)
	if err != nil {
		return fmt.Errorf("failed to update query request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateResult persists the final outcome of a completed request. At most
// one result exists per request (enforced by a unique constraint).
func (s *QueryService) CreateResult(ctx context.Context, requestID string, rows []models.Row, insights string, executionTimeMS int64) (*models.QueryResult, error) {
	if rows == nil {
		rows = []models.Row{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result rows: %w", err)
	}

	result := &models.QueryResult{
		ID:              uuid.New().String(),
		RequestID:       requestID,
		Rows:            rows,
		Insights:        insights,
		ExecutionTimeMS: executionTimeMS,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO query_results (id, query_id, result_data, insights, execution_time_ms) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		result.ID, result.RequestID, data, result.Insights, result.ExecutionTimeMS,
	).Scan(&result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create query result: %w", err)
	}
	return result, nil
}

const detailColumns = `
	q.id, q.user_id, q.question, q.sql_query, q.explanation, q.created_at,
	qr.id, qr.result_data, qr.insights, qr.execution_time_ms, qr.created_at`

// GetDetail returns a request joined with its result, if any. Authorization
// (owner-or-admin) is the caller's concern; the detail carries the owner id
// for that check.
func (s *QueryService) GetDetail(ctx context.Context, requestID string) (*models.QueryDetail, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+detailColumns+`
		 FROM queries q
		 LEFT JOIN query_results qr ON q.id = qr.query_id
		 WHERE q.id = $1`, requestID)

	detail, err := scanDetail(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch query: %w", err)
	}
	return detail, nil
}

// ListHistory returns the owner's requests, newest first, each joined with
// its result when one exists.
func (s *QueryService) ListHistory(ctx context.Context, ownerID string, limit, offset int) ([]models.QueryDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+detailColumns+`
		 FROM queries q
		 LEFT JOIN query_results qr ON q.id = qr.query_id
		 WHERE q.user_id = $1
		 ORDER BY q.created_at DESC
		 LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list query history: %w", err)
	}
	defer rows.Close()

	history := make([]models.QueryDetail, 0)
	for rows.Next() {
		detail, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query history row: %w", err)
		}
		history = append(history, *detail)
	}
	return history, rows.Err()
}

// scanDetail scans one request+result join row. Result columns are nullable
// because the join is a LEFT JOIN.
func scanDetail(scan func(dest ...any) error) (*models.QueryDetail, error) {
	var (
		detail     models.QueryDetail
		resultID   sql.NullString
		resultData []byte
		insights   sql.NullString
		execMS     sql.NullInt64
		resultAt   sql.NullTime
	)
	err := scan(
		&detail.Request.ID, &detail.Request.OwnerID, &detail.Request.Question,
		&detail.Request.GeneratedSQL, &detail.Request.Explanation, &detail.Request.CreatedAt,
		&resultID, &resultData, &insights, &execMS, &resultAt,
	)
	if err != nil {
		return nil, err
	}

	if resultID.Valid {
		result := &models.QueryResult{
			ID:              resultID.String,
			RequestID:       detail.Request.ID,
			Insights:        insights.String,
			ExecutionTimeMS: execMS.Int64,
			CreatedAt:       resultAt.Time,
		}
		if len(resultData) > 0 {
			if err := json.Unmarshal(resultData, &result.Rows); err != nil {
				return nil, fmt.Errorf("failed to decode result rows: %w", err)
			}
		}
		detail.Result = result
	}
	return &detail, nil
}

package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/querysense/querysense/pkg/models"
)

// AdminService serves the admin dashboard: platform analytics, user listings,
// and the cross-user query feed. Authorization is enforced at the API layer.
type AdminService struct {
	db *sql.DB
}

// NewAdminService creates an AdminService.
func NewAdminService(db *sql.DB) *AdminService {
	if db == nil {
		panic("NewAdminService: db must not be nil")
	}
	return &AdminService{db: db}
}

// Analytics assembles the full dashboard payload: headline totals, query
// volume per day over the last week, the top users by volume, and the most
// recent queries across all users.
func (s *AdminService) Analytics(ctx context.Context) (*models.Analytics, error) {
	analytics := &models.Analytics{
		QueriesPerDay: []models.DailyQueryCount{},
		ActiveUsers:   []models.ActiveUser{},
		RecentQueries: []models.RecentQuery{},
	}

	var avgExec sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM queries),
			(SELECT COUNT(*) FROM queries WHERE created_at >= CURRENT_DATE),
			(SELECT AVG(execution_time_ms) FROM query_results)`,
	).Scan(
		&analytics.Summary.TotalUsers,
		&analytics.Summary.TotalQueries,
		&analytics.Summary.QueriesToday,
		&avgExec,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute analytics summary: %w", err)
	}
	if avgExec.Valid {
		analytics.Summary.AvgExecutionTimeMS = int64(avgExec.Float64)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DATE(created_at)::text, COUNT(*)
		FROM queries
		WHERE created_at >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day models.DailyQueryCount
		if err := rows.Scan(&day.Date, &day.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		analytics.QueriesPerDay = append(analytics.QueriesPerDay, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT u.id, u.email, COUNT(q.id)
		FROM users u
		JOIN queries q ON q.user_id = u.id
		GROUP BY u.id, u.email
		ORDER BY COUNT(q.id) DESC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var user models.ActiveUser
		if err := rows.Scan(&user.ID, &user.Email, &user.QueryCount); err != nil {
			return nil, fmt.Errorf("failed to scan active user: %w", err)
		}
		analytics.ActiveUsers = append(analytics.ActiveUsers, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT q.id, q.question, u.email, qr.execution_time_ms, q.created_at
		FROM queries q
		JOIN users u ON u.id = q.user_id
		LEFT JOIN query_results qr ON qr.query_id = q.id
		ORDER BY q.created_at DESC
		LIMIT 20`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			recent models.RecentQuery
			execMS sql.NullInt64
		)
		if err := rows.Scan(&recent.ID, &recent.Question, &recent.UserEmail, &execMS, &recent.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent query: %w", err)
		}
		if execMS.Valid {
			recent.ExecutionTimeMS = &execMS.Int64
		}
		analytics.RecentQueries = append(analytics.RecentQueries, recent)
	}
	return analytics, rows.Err()
}

// ListUsers returns every registered user with their query count, newest
// account first.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.role, u.created_at, COUNT(q.id)
		FROM users u
		LEFT JOIN queries q ON q.user_id = u.id
		GROUP BY u.id, u.email, u.role, u.created_at
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserSummary, 0)
	for rows.Next() {
		var user models.UserSummary
		if err := rows.Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt, &user.QueryCount); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListAllQueries returns a page of queries across all users, newest first,
// along with the total count for pagination.
func (s *AdminService) ListAllQueries(ctx context.Context, limit, offset int) ([]models.QueryDetail, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count queries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+detailColumns+`
		 FROM queries q
		 LEFT JOIN query_results qr ON q.id = qr.query_id
		 ORDER BY q.created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	queries := make([]models.QueryDetail, 0)
	for rows.Next() {
		detail, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan query row: %w", err)
		}
		queries = append(queries, *detail)
	}
	return queries, total, rows.Err()
}

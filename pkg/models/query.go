package models

import "time"

// Row is a single result row keyed by column name. Values are driver
// scalars (string, int64, float64, bool, time.Time, nil).
type Row map[string]any

// QueryRequest is a submitted question. GeneratedSQL and Explanation are
// empty at creation and set exactly once after conversion succeeds.
type QueryRequest struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Question     string    `json:"question"`
	GeneratedSQL string    `json:"sql"`
	Explanation  string    `json:"explanation"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueryResult is the persisted outcome of a completed request. At most one
// exists per QueryRequest and it is never updated after creation.
type QueryResult struct {
	ID              string    `json:"id"`
	RequestID       string    `json:"request_id"`
	Rows            []Row     `json:"rows"`
	Insights        string    `json:"insights"`
	ExecutionTimeMS int64     `json:"execution_time_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// QueryDetail joins a request with its result (nil when the request never
// completed).
type QueryDetail struct {
	Request QueryRequest `json:"request"`
	Result  *QueryResult `json:"result,omitempty"`
}

// AnalyticsSummary holds the headline numbers for the admin dashboard.
type AnalyticsSummary struct {
	TotalUsers         int   `json:"total_users"`
	TotalQueries       int   `json:"total_queries"`
	QueriesToday       int   `json:"queries_today"`
	AvgExecutionTimeMS int64 `json:"avg_execution_time_ms"`
}

// DailyQueryCount is one day's query volume.
type DailyQueryCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ActiveUser is a user ranked by query volume.
type ActiveUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	QueryCount int    `json:"query_count"`
}

// RecentQuery is one entry in the admin recent-activity feed.
type RecentQuery struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	UserEmail       string    `json:"user_email"`
	ExecutionTimeMS *int64    `json:"execution_time_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Analytics is the full admin dashboard payload.
type Analytics struct {
	Summary       AnalyticsSummary  `json:"summary"`
	QueriesPerDay []DailyQueryCount `json:"queries_per_day"`
	ActiveUsers   []ActiveUser      `json:"active_users"`
	RecentQueries []RecentQuery     `json:"recent_queries"`
}

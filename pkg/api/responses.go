package api

import (
	"github.com/querysense/querysense/pkg/database"
	"github.com/querysense/querysense/pkg/models"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ExplainResponse is returned by POST /api/v1/queries/explain.
type ExplainResponse struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// HistoryResponse is returned by GET /api/v1/queries/history.
type HistoryResponse struct {
	Queries []models.QueryDetail `json:"queries"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// AdminQueriesResponse is returned by GET /api/v1/admin/queries.
type AdminQueriesResponse struct {
	Queries []models.QueryDetail `json:"queries"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// BroadcastResponse is returned by POST /api/v1/admin/broadcast.
type BroadcastResponse struct {
	Message    string `json:"message"`
	Recipients int    `json:"recipients"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Database    *database.HealthStatus `json:"database,omitempty"`
	Connections int                    `json:"connections"`
}

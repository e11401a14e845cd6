package events

import "github.com/querysense/querysense/pkg/models"

// QueryStartPayload is the payload for query:start events.
type QueryStartPayload struct {
	Type      string `json:"type"`
	QueryID   string `json:"queryId"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// SQLGeneratedPayload is the payload for query:sql-generated events.
type SQLGeneratedPayload struct {
	Type        string `json:"type"`
	QueryID     string `json:"queryId"`
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	Timestamp   string `json:"timestamp"`
}

// QueryExecutingPayload is the payload for query:executing events.
type QueryExecutingPayload struct {
	Type      string `json:"type"`
	QueryID   string `json:"queryId"`
	Timestamp string `json:"timestamp"`
}

// QueryResultsPayload is the payload for query:results events.
type QueryResultsPayload struct {
	Type          string       `json:"type"`
	QueryID       string       `json:"queryId"`
	Results       []models.Row `json:"results"`
	ExecutionTime int64        `json:"executionTime"` // milliseconds
	Timestamp     string       `json:"timestamp"`
}

// QueryInsightsPayload is the payload for query:insights events.
type QueryInsightsPayload struct {
	Type      string `json:"type"`
	QueryID   string `json:"queryId"`
	Insights  string `json:"insights"`
	Timestamp string `json:"timestamp"`
}

// QueryErrorPayload is the payload for query:error events.
type QueryErrorPayload struct {
	Type      string `json:"type"`
	QueryID   string `json:"queryId"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// QueryCompletePayload is the payload for query:complete events.
type QueryCompletePayload struct {
	Type      string `json:"type"`
	QueryID   string `json:"queryId"`
	Timestamp string `json:"timestamp"`
}

// AdminNewQueryPayload is the payload for admin:new-query events, delivered
// to the admin channel once per successfully completed request.
type AdminNewQueryPayload struct {
	Type      string `json:"type"`
	UserID    string `json:"userId"`
	QueryID   string `json:"queryId"`
	Timestamp string `json:"timestamp"`
}

// SystemMessagePayload is the payload for system:message broadcasts.
type SystemMessagePayload struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

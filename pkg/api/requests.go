package api

// RegisterRequest is the HTTP request body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest is the HTTP request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SubmitQueryRequest is the HTTP request body for POST /api/v1/queries.
type SubmitQueryRequest struct {
	Question string `json:"question"`
}

// ExplainQueryRequest is the HTTP request body for POST /api/v1/queries/explain.
type ExplainQueryRequest struct {
	SQL string `json:"sql"`
}

// BroadcastRequest is the HTTP request body for POST /api/v1/admin/broadcast.
type BroadcastRequest struct {
	Message string `json:"message"`
}

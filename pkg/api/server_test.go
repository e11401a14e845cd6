package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/querysense/querysense/pkg/ai"
	"github.com/querysense/querysense/pkg/auth"
	"github.com/querysense/querysense/pkg/database"
	"github.com/querysense/querysense/pkg/events"
	"github.com/querysense/querysense/pkg/llm"
	"github.com/querysense/querysense/pkg/models"
	"github.com/querysense/querysense/pkg/orchestrator"
	"github.com/querysense/querysense/pkg/services"
)

// fakePipeline satisfies QueryPipeline for handler tests.
type fakePipeline struct {
	outcome     *orchestrator.Outcome
	err         error
	gotOwner    models.Identity
	gotQuestion string
}

func (f *fakePipeline) Run(_ context.Context, owner models.Identity, question string) (*orchestrator.Outcome, error) {
	f.gotOwner = owner
	f.gotQuestion = question
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

// fakeCompleter satisfies llm.Completer for the explain handler.
type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return f.response, f.err
}

type testServer struct {
	server   *Server
	mock     sqlmock.Sqlmock
	tokens   *auth.TokenService
	pipeline *fakePipeline
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret", nil)
	require.NoError(t, err)

	connManager := events.NewConnectionManager(5 * time.Second)
	emitter := events.NewEmitter(connManager, nil)
	pipeline := &fakePipeline{outcome: &orchestrator.Outcome{QueryID: "q-1"}}

	server := NewServer(
		database.NewClientFromDB(db),
		tokens,
		services.NewUserService(db),
		services.NewQueryService(db),
		services.NewAdminService(db),
		pipeline,
		ai.NewExplainer(&fakeCompleter{response: "This query counts customers."}),
		connManager,
		emitter,
	)

	return &testServer{server: server, mock: mock, tokens: tokens, pipeline: pipeline}
}

func (ts *testServer) tokenFor(t *testing.T, identity models.Identity) string {
	t.Helper()
	token, err := ts.tokens.Issue(identity)
	require.NoError(t, err)
	return token
}

// doJSON issues a request against the router and decodes the JSON response.
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func userIdentity() models.Identity {
	return models.Identity{UserID: "user-1", Email: "alice@example.com", Role: models.RoleUser}
}

func adminIdentity() models.Identity {
	return models.Identity{UserID: "admin-1", Email: "root@example.com", Role: models.RoleAdmin}
}

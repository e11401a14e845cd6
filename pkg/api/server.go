// Package api exposes the HTTP and WebSocket surface: authentication,
// query submission, history, admin analytics, and the event stream.
package api

import (
	"context"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/querysense/querysense/pkg/ai"
	"github.com/querysense/querysense/pkg/auth"
	"github.com/querysense/querysense/pkg/database"
	"github.com/querysense/querysense/pkg/events"
	"github.com/querysense/querysense/pkg/models"
	"github.com/querysense/querysense/pkg/orchestrator"
	"github.com/querysense/querysense/pkg/services"
)

// QueryPipeline is the submission entry point the query handler drives.
type QueryPipeline interface {
	Run(ctx context.Context, owner models.Identity, question string) (*orchestrator.Outcome, error)
}

// Server wires handlers to services and owns the HTTP listener.
type Server struct {
	dbClient     *database.Client
	tokenService *auth.TokenService
	userService  *services.UserService
	queryService *services.QueryService
	adminService *services.AdminService
	pipeline     QueryPipeline
	explainer    *ai.Explainer
	connManager  *events.ConnectionManager
	emitter      *events.Emitter

	echo       *echo.Echo
	httpServer *http.Server
}

// NewServer creates the API server and registers all routes.
func NewServer(
	dbClient *database.Client,
	tokenService *auth.TokenService,
	userService *services.UserService,
	queryService *services.QueryService,
	adminService *services.AdminService,
	pipeline QueryPipeline,
	explainer *ai.Explainer,
	connManager *events.ConnectionManager,
	emitter *events.Emitter,
) *Server {
	s := &Server{
		dbClient:     dbClient,
		tokenService: tokenService,
		userService:  userService,
		queryService: queryService,
		adminService: adminService,
		pipeline:     pipeline,
		explainer:    explainer,
		connManager:  connManager,
		emitter:      emitter,
		echo:         echo.New(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.Use(securityHeaders())

	e.GET("/", s.rootHandler)
	e.GET("/health", s.healthHandler)
	e.GET("/ws", s.wsHandler)

	v1 := e.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", s.registerHandler)
	authGroup.POST("/login", s.loginHandler)
	authGroup.GET("/profile", s.profileHandler, s.requireAuth())

	queries := v1.Group("/queries")
	queries.Use(s.requireAuth())
	queries.POST("", s.submitQueryHandler)
	queries.GET("/history", s.queryHistoryHandler)
	queries.GET("/:id", s.getQueryHandler)
	queries.POST("/explain", s.explainQueryHandler)

	admin := v1.Group("/admin")
	admin.Use(s.requireAuth(), s.requireAdmin())
	admin.GET("/analytics", s.analyticsHandler)
	admin.GET("/users", s.listUsersHandler)
	admin.GET("/queries", s.listAllQueriesHandler)
	admin.POST("/broadcast", s.broadcastHandler)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start begins serving on addr. Blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

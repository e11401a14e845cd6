package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/querysense/querysense/pkg/database"
	"github.com/querysense/querysense/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// rootHandler handles GET /. Returns basic service identification.
func (s *Server) rootHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": version.AppName,
		"version": version.GitCommit,
		"status":  "running",
	})
}

// healthHandler handles GET /health. Suitable for unauthenticated probes:
// only the database is checked, and nothing sensitive is reported.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	connections := 0
	if s.connManager != nil {
		connections = s.connManager.ActiveConnections()
	}

	dbHealth, err := database.Health(reqCtx, s.dbClient.DB())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status:      healthStatusUnhealthy,
			Version:     version.GitCommit,
			Database:    dbHealth,
			Connections: connections,
		})
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:      healthStatusHealthy,
		Version:     version.GitCommit,
		Database:    dbHealth,
		Connections: connections,
	})
}

package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// analyticsHandler handles GET /api/v1/admin/analytics.
func (s *Server) analyticsHandler(c *echo.Context) error {
	analytics, err := s.adminService.Analytics(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, analytics)
}

// listUsersHandler handles GET /api/v1/admin/users.
func (s *Server) listUsersHandler(c *echo.Context) error {
	users, err := s.adminService.ListUsers(c.Request().Context())
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, users)
}

// listAllQueriesHandler handles GET /api/v1/admin/queries.
func (s *Server) listAllQueriesHandler(c *echo.Context) error {
	limit, offset := parsePagination(c)
	queries, total, err := s.adminService.ListAllQueries(c.Request().Context(), limit, offset)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &AdminQueriesResponse{
		Queries: queries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// broadcastHandler handles POST /api/v1/admin/broadcast. Sends a
// system:message event to every connected client.
func (s *Server) broadcastHandler(c *echo.Context) error {
	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	s.emitter.SystemMessage(message)
	return c.JSON(http.StatusOK, &BroadcastResponse{
		Message:    "broadcast sent",
		Recipients: s.connManager.ActiveConnections(),
	})
}

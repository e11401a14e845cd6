package api

import (
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// maxQuestionLength bounds submitted questions. Anything longer is almost
// certainly pasted content, not a question.
const maxQuestionLength = 2000

// submitQueryHandler handles POST /api/v1/queries.
// Runs the full pipeline synchronously; the caller also receives stage
// events over the WebSocket as the pipeline progresses.
func (s *Server) submitQueryHandler(c *echo.Context) error {
	identity, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req SubmitQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}
	if len(question) > maxQuestionLength {
		return echo.NewHTTPError(http.StatusBadRequest, "question is too long")
	}

	outcome, err := s.pipeline.Run(c.Request().Context(), identity, question)
	if err != nil {
		return mapPipelineError(err)
	}

	return c.JSON(http.StatusOK, outcome)
}

// queryHistoryHandler handles GET /api/v1/queries/history.
func (s *Server) queryHistoryHandler(c *echo.Context) error {
	identity, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	limit, offset := parsePagination(c)
	history, err := s.queryService.ListHistory(c.Request().Context(), identity.UserID, limit, offset)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &HistoryResponse{Queries: history, Limit: limit, Offset: offset})
}

// getQueryHandler handles GET /api/v1/queries/:id. Owners see their own
// queries; admins see everyone's.
func (s *Server) getQueryHandler(c *echo.Context) error {
	identity, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	queryID := c.Param("id")
	if queryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query id is required")
	}

	detail, err := s.queryService.GetDetail(c.Request().Context(), queryID)
	if err != nil {
		return mapServiceError(err)
	}

	if detail.Request.OwnerID != identity.UserID && !identity.IsAdmin() {
		// Report not-found rather than forbidden so query ids are not probeable.
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}

	return c.JSON(http.StatusOK, detail)
}

// explainQueryHandler handles POST /api/v1/queries/explain.
func (s *Server) explainQueryHandler(c *echo.Context) error {
	var req ExplainQueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.SQL) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "sql is required")
	}

	explanation := s.explainer.Explain(c.Request().Context(), req.SQL)
	return c.JSON(http.StatusOK, &ExplainResponse{SQL: req.SQL, Explanation: explanation})
}

// parsePagination reads limit/offset query params with sane bounds.
func parsePagination(c *echo.Context) (limit, offset int) {
	limit = 20
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

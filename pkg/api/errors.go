package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/querysense/querysense/pkg/orchestrator"
	"github.com/querysense/querysense/pkg/services"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return echo.NewHTTPError(http.StatusBadRequest, validErr.Error())
	}
	if errors.Is(err, services.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, services.ErrAlreadyExists) {
		return echo.NewHTTPError(http.StatusConflict, "resource already exists")
	}
	if errors.Is(err, services.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// mapPipelineError maps a pipeline failure to an HTTP error response. The
// client also received a query:error event; the HTTP status mirrors it.
func mapPipelineError(err error) *echo.HTTPError {
	var stageErr *orchestrator.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case orchestrator.StageConversion:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to convert question to SQL")
		case orchestrator.StageExecution:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to execute query")
		}
	}
	slog.Error("Unexpected pipeline error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

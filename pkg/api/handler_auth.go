package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/querysense/querysense/pkg/models"
)

// registerHandler handles POST /api/v1/auth/register.
func (s *Server) registerHandler(c *echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := s.userService.Register(c.Request().Context(), req.Email, req.Password, req.Role)
	if err != nil {
		return mapServiceError(err)
	}

	token, err := s.tokenService.Issue(models.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, &AuthResponse{Token: token, User: user})
}

// loginHandler handles POST /api/v1/auth/login.
func (s *Server) loginHandler(c *echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	identity, err := s.userService.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapServiceError(err)
	}

	token, err := s.tokenService.Issue(identity)
	if err != nil {
		return mapServiceError(err)
	}

	user, err := s.userService.GetProfile(c.Request().Context(), identity.UserID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, &AuthResponse{Token: token, User: user})
}

// profileHandler handles GET /api/v1/auth/profile.
func (s *Server) profileHandler(c *echo.Context) error {
	identity, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	user, err := s.userService.GetProfile(c.Request().Context(), identity.UserID)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, user)
}

// Package services implements the persistence layer: narrow, short-lived
// request/response operations over the shared connection pool. No service
// holds locks or long transactions.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/querysense/querysense/pkg/models"
)

// bcryptCost matches the work factor used for all stored credential hashes.
const bcryptCost = 10

// UserService handles registration, authentication, and profile lookups.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a UserService.
func NewUserService(db *sql.DB) *UserService {
	if db == nil {
		panic("NewUserService: db must not be nil")
	}
	return &UserService{db: db}
}

// Register creates a new user with a bcrypt-hashed credential and returns
// the stored record. A duplicate email yields ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, role string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, NewValidationError("email", "email is required")
	}
	if password == "" {
		return nil, NewValidationError("password", "password is required")
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, NewValidationError("role", "role must be user or admin")
	}

	var existing string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&existing)
	if err == nil {
		return nil, ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		user.ID, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies an email/password pair and returns the verified
// identity. Unknown email and wrong password are indistinguishable to the
// caller: both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var (
		id, hash, role string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, role FROM users WHERE email = $1`, email,
	).Scan(&id, &hash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.Identity{}, ErrInvalidCredentials
	}

	return models.Identity{UserID: id, Email: email, Role: role}, nil
}

// GetProfile returns the public profile for a user id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, role, created_at FROM users WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Email, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return user, nil
}

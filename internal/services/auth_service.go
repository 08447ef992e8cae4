package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jwpark-dev/auth-backend/internal/models"
	"github.com/jwpark-dev/auth-backend/internal/repositories"
	"github.com/jwpark-dev/auth-backend/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailNotFound indicates no account exists for the given email.
var ErrEmailNotFound = errors.New("no user found for this email")

// ErrWrongPassword indicates the password did not match the stored hash.
var ErrWrongPassword = errors.New("wrong password")

// ErrInvalidToken indicates the presented session token could not be
// verified, either because the signature is bad or because it no longer
// matches the token stored for the user.
var ErrInvalidToken = errors.New("invalid session token")

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter carries the record to persist; its PasswordHash field
	// must already hold the hashed password, and its ID is assigned on insert.
	//
	// If a user with the same email already exists, ErrDuplicateEmail is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByEmail retrieves a user by email.
	//
	// If no user with such email exists, ErrUserNotFound is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByIDAndToken retrieves a user only if both the ID and the
	// stored session token match.
	//
	// If no such pair exists, ErrUserNotFound is returned together with "nil" value.
	GetByIDAndToken(ctx context.Context, userID, token string) (*models.User, error)
	// Method UpdateToken overwrites the stored session token for a user.
	// Passing an empty token invalidates the session.
	UpdateToken(ctx context.Context, userID, token string) error
}

// authService implements AuthService
type authService struct {
	userRepo   UserRepository
	tokenGen   *token.Generator
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, tokenGen *token.Generator, logger *zap.Logger, bcryptCost int) *authService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:   userRepo,
		tokenGen:   tokenGen,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// Register validates the request, hashes the password and creates the user.
// The plaintext password never reaches the repository.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(req.Email))
	if normalizedEmail == "" {
		return nil, fmt.Errorf("email cannot be empty")
	}

	if utf8.RuneCountInString(req.Password) < 5 {
		return nil, fmt.Errorf("password must be at least 5 characters long")
	}

	if utf8.RuneCountInString(req.Name) > 50 {
		return nil, fmt.Errorf("name must be at most 50 characters long")
	}

	// Hash password
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        normalizedEmail,
		PasswordHash: string(passwordHash),
		Role:         req.Role,
		Image:        req.Image,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and issues a new session token. The issued
// token replaces whatever token was stored before, so a user holds at most
// one live session.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(req.Email))
	if normalizedEmail == "" {
		return nil, "", fmt.Errorf("email cannot be empty")
	}

	if req.Password == "" {
		return nil, "", fmt.Errorf("password cannot be empty")
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, "", ErrEmailNotFound
	}
	if err != nil {
		return nil, "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrWrongPassword
		}
		return nil, "", fmt.Errorf("failed to compare password: %w", err)
	}

	// Issue a session token and persist it so later verification can
	// cross-check server state, not just signature validity
	sessionToken, err := s.tokenGen.Generate(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	if err := s.userRepo.UpdateToken(ctx, user.ID, sessionToken); err != nil {
		return nil, "", err
	}

	user.Token = sessionToken
	return user, sessionToken, nil
}

// Authenticate resolves a session token to a live user. A token whose
// signature checks out but which no longer matches the stored one (cleared
// by logout or replaced by a newer login) is rejected the same way as a
// forged one. Store faults are returned as-is so callers can tell them apart
// from a plain unauthenticated outcome.
func (s *authService) Authenticate(ctx context.Context, sessionToken string) (*models.User, error) {
	if sessionToken == "" {
		return nil, ErrInvalidToken
	}

	userID, err := s.tokenGen.Validate(sessionToken)
	if err != nil {
		s.logger.Debug("session token failed verification", zap.Error(err))
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByIDAndToken(ctx, userID, sessionToken)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Logout clears the stored session token for a user. The client cookie is
// left alone; the stale token simply stops matching server state.
func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.userRepo.UpdateToken(ctx, userID, "")
}

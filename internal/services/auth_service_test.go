package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jwpark-dev/auth-backend/internal/models"
	"github.com/jwpark-dev/auth-backend/internal/repositories"
	"github.com/jwpark-dev/auth-backend/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user           *models.User
	getErr         error
	createErr      error
	updateTokenErr error

	created       *models.User
	updatedUserID string
	updatedToken  string
	tokenUpdated  bool
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "generated-user-id"
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByIDAndToken(ctx context.Context, userID, sessionToken string) (*models.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserRepository) UpdateToken(ctx context.Context, userID, sessionToken string) error {
	if m.updateTokenErr != nil {
		return m.updateTokenErr
	}
	m.updatedUserID = userID
	m.updatedToken = sessionToken
	m.tokenUpdated = true
	return nil
}

func TestNewAuthService(t *testing.T) {
	logger := zap.NewNop()
	userRepo := &mockUserRepository{}
	tokenGen := token.NewGenerator("secret")

	svc := NewAuthService(userRepo, tokenGen, logger, 10)

	assert.NotNil(t, svc)
	assert.Equal(t, userRepo, svc.userRepo)
	assert.Equal(t, tokenGen, svc.tokenGen)
	assert.Equal(t, logger, svc.logger)
	assert.Equal(t, 10, svc.bcryptCost)
}

func TestNewAuthService_CostOutOfRange(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, token.NewGenerator("secret"), zap.NewNop(), 99)

	assert.Equal(t, bcrypt.DefaultCost, svc.bcryptCost)
}

func TestAuthService_Register(t *testing.T) {
	logger := zap.NewNop()
	tokenGen := token.NewGenerator("test-secret")

	tests := []struct {
		name          string
		req           *models.RegisterRequest
		userRepo      *mockUserRepository
		expectedError bool
		errorIs       error
		errorContains string
	}{
		{
			name: "success",
			req: &models.RegisterRequest{
				Name:     "Test User",
				Email:    "  Test@Example.COM ",
				Password: "secret1",
				Image:    "avatar.png",
			},
			userRepo: &mockUserRepository{},
		},
		{
			name: "password too short",
			req: &models.RegisterRequest{
				Email:    "test@example.com",
				Password: "abcd",
			},
			userRepo:      &mockUserRepository{},
			expectedError: true,
			errorContains: "at least 5 characters",
		},
		{
			name: "empty email",
			req: &models.RegisterRequest{
				Email:    "   ",
				Password: "secret1",
			},
			userRepo:      &mockUserRepository{},
			expectedError: true,
			errorContains: "email cannot be empty",
		},
		{
			name: "name too long",
			req: &models.RegisterRequest{
				Name:     strings.Repeat("a", 51),
				Email:    "test@example.com",
				Password: "secret1",
			},
			userRepo:      &mockUserRepository{},
			expectedError: true,
			errorContains: "at most 50 characters",
		},
		{
			name: "duplicate email",
			req: &models.RegisterRequest{
				Email:    "taken@example.com",
				Password: "secret1",
			},
			userRepo:      &mockUserRepository{createErr: repositories.ErrDuplicateEmail},
			expectedError: true,
			errorIs:       repositories.ErrDuplicateEmail,
		},
		{
			name: "repository error",
			req: &models.RegisterRequest{
				Email:    "test@example.com",
				Password: "secret1",
			},
			userRepo:      &mockUserRepository{createErr: errors.New("database error")},
			expectedError: true,
			errorContains: "database error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.userRepo, tokenGen, logger, bcrypt.MinCost)

			user, err := svc.Register(context.Background(), tt.req)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, user)
				if tt.errorIs != nil {
					assert.ErrorIs(t, err, tt.errorIs)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, user)
			require.NotNil(t, tt.userRepo.created)

			// Email is trimmed and lowercased before persisting
			assert.Equal(t, "test@example.com", tt.userRepo.created.Email)
			assert.Equal(t, tt.req.Name, tt.userRepo.created.Name)
			assert.Equal(t, tt.req.Image, tt.userRepo.created.Image)

			// The stored value is a salted hash, never the plaintext
			assert.NotEqual(t, tt.req.Password, tt.userRepo.created.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(tt.userRepo.created.PasswordHash), []byte(tt.req.Password)))
			assert.Error(t, bcrypt.CompareHashAndPassword([]byte(tt.userRepo.created.PasswordHash), []byte("some-other-password")))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	logger := zap.NewNop()
	tokenGen := token.NewGenerator("test-secret")

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	storedUser := &models.User{
		ID:           "user-id-1",
		Email:        "test@example.com",
		PasswordHash: string(passwordHash),
	}

	tests := []struct {
		name          string
		req           *models.LoginRequest
		userRepo      *mockUserRepository
		expectedError bool
		errorIs       error
	}{
		{
			name:     "success",
			req:      &models.LoginRequest{Email: "test@example.com", Password: "secret1"},
			userRepo: &mockUserRepository{user: storedUser},
		},
		{
			name:          "no user for email",
			req:           &models.LoginRequest{Email: "missing@example.com", Password: "secret1"},
			userRepo:      &mockUserRepository{getErr: repositories.ErrUserNotFound},
			expectedError: true,
			errorIs:       ErrEmailNotFound,
		},
		{
			name:          "wrong password",
			req:           &models.LoginRequest{Email: "test@example.com", Password: "not-the-password"},
			userRepo:      &mockUserRepository{user: storedUser},
			expectedError: true,
			errorIs:       ErrWrongPassword,
		},
		{
			name:          "empty email",
			req:           &models.LoginRequest{Email: "", Password: "secret1"},
			userRepo:      &mockUserRepository{user: storedUser},
			expectedError: true,
		},
		{
			name:          "empty password",
			req:           &models.LoginRequest{Email: "test@example.com", Password: ""},
			userRepo:      &mockUserRepository{user: storedUser},
			expectedError: true,
		},
		{
			name:          "token persistence failure",
			req:           &models.LoginRequest{Email: "test@example.com", Password: "secret1"},
			userRepo:      &mockUserRepository{user: storedUser, updateTokenErr: errors.New("database error")},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.userRepo, tokenGen, logger, bcrypt.MinCost)

			user, sessionToken, err := svc.Login(context.Background(), tt.req)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Empty(t, sessionToken)
				if tt.errorIs != nil {
					assert.ErrorIs(t, err, tt.errorIs)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, user)
			require.NotEmpty(t, sessionToken)

			// The issued token embeds the user ID
			userID, err := tokenGen.Validate(sessionToken)
			require.NoError(t, err)
			assert.Equal(t, "user-id-1", userID)

			// The token is persisted so later verification can cross-check
			// server state
			assert.True(t, tt.userRepo.tokenUpdated)
			assert.Equal(t, "user-id-1", tt.userRepo.updatedUserID)
			assert.Equal(t, sessionToken, tt.userRepo.updatedToken)
			assert.Equal(t, sessionToken, user.Token)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	logger := zap.NewNop()
	tokenGen := token.NewGenerator("test-secret")

	validToken, err := tokenGen.Generate("user-id-1")
	require.NoError(t, err)

	foreignToken, err := token.NewGenerator("other-secret").Generate("user-id-1")
	require.NoError(t, err)

	storedUser := &models.User{
		ID:    "user-id-1",
		Email: "test@example.com",
		Token: validToken,
	}

	tests := []struct {
		name          string
		token         string
		userRepo      *mockUserRepository
		expectedError bool
		invalidToken  bool
	}{
		{
			name:     "success",
			token:    validToken,
			userRepo: &mockUserRepository{user: storedUser},
		},
		{
			name:          "empty token",
			token:         "",
			userRepo:      &mockUserRepository{user: storedUser},
			expectedError: true,
			invalidToken:  true,
		},
		{
			name:          "malformed token",
			token:         "not-a-token",
			userRepo:      &mockUserRepository{user: storedUser},
			expectedError: true,
			invalidToken:  true,
		},
		{
			name:          "token signed with different secret",
			token:         foreignToken,
			userRepo:      &mockUserRepository{user: storedUser},
			expectedError: true,
			invalidToken:  true,
		},
		{
			name:          "valid signature but token cleared server-side",
			token:         validToken,
			userRepo:      &mockUserRepository{getErr: repositories.ErrUserNotFound},
			expectedError: true,
			invalidToken:  true,
		},
		{
			name:          "store fault is not an unauthenticated outcome",
			token:         validToken,
			userRepo:      &mockUserRepository{getErr: errors.New("database error")},
			expectedError: true,
			invalidToken:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.userRepo, tokenGen, logger, bcrypt.MinCost)

			user, err := svc.Authenticate(context.Background(), tt.token)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, user)
				if tt.invalidToken {
					assert.ErrorIs(t, err, ErrInvalidToken)
				} else {
					assert.NotErrorIs(t, err, ErrInvalidToken)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, storedUser, user)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	logger := zap.NewNop()
	tokenGen := token.NewGenerator("test-secret")

	t.Run("clears the stored token", func(t *testing.T) {
		userRepo := &mockUserRepository{}
		svc := NewAuthService(userRepo, tokenGen, logger, bcrypt.MinCost)

		err := svc.Logout(context.Background(), "user-id-1")

		require.NoError(t, err)
		assert.True(t, userRepo.tokenUpdated)
		assert.Equal(t, "user-id-1", userRepo.updatedUserID)
		assert.Equal(t, "", userRepo.updatedToken)
	})

	t.Run("repository error", func(t *testing.T) {
		userRepo := &mockUserRepository{updateTokenErr: errors.New("database error")}
		svc := NewAuthService(userRepo, tokenGen, logger, bcrypt.MinCost)

		err := svc.Logout(context.Background(), "user-id-1")

		assert.Error(t, err)
	})
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jwpark-dev/auth-backend/internal/models"
	"go.uber.org/zap"
)

// ErrUserNotFound indicates no user matched the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateEmail indicates a uniqueness conflict on the email column.
var ErrDuplicateEmail = errors.New("email already exists")

// mysqlDuplicateEntry is the MySQL error number for unique index violations
const mysqlDuplicateEntry = 1062

// userRepository implements UserRepository
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user into the database. The ID is generated here; the
// caller must provide the password already hashed.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, image, token)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	user.ID = uuid.New().String()
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Image, user.Token); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, image, token, token_exp
		FROM users
		WHERE email = ?
		LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Image,
		&user.Token,
		&user.TokenExp,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByIDAndToken retrieves a user only if both the ID and the currently
// stored session token match. A token cleared by logout or replaced by a
// newer login no longer matches.
func (r *userRepository) GetByIDAndToken(ctx context.Context, userID, token string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, role, image, token, token_exp
		FROM users
		WHERE id = ? AND token = ?
		LIMIT 1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userID, token).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Image,
		&user.Token,
		&user.TokenExp,
	)

	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by id and token", zap.Error(err), zap.String("user_id", userID))
		return nil, fmt.Errorf("failed to get user by id and token: %w", err)
	}

	return user, nil
}

// UpdateToken overwrites the stored session token. An empty token invalidates
// the session. The write is a single statement, so concurrent logins for the
// same user are last-write-wins on this column.
func (r *userRepository) UpdateToken(ctx context.Context, userID, token string) error {
	query := `UPDATE users SET token = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, token, userID); err != nil {
		r.logger.Error("failed to update user token", zap.Error(err), zap.String("user_id", userID))
		return fmt.Errorf("failed to update user token: %w", err)
	}

	return nil
}

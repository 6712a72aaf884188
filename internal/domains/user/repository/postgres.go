package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Eoic/Shelf/internal/domains/user"
)

const userColumns = `id, username, email, password_hash, is_active, preferences, created_at, updated_at`

// postgresRepository là concrete implementation của user.Repository interface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository - Constructor, return interface thay vì concrete type
func NewPostgresRepository(pool *pgxpool.Pool) user.Repository {
	return &postgresRepository{pool: pool}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var prefsJSON []byte

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.IsActive, &prefsJSON, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Preferences = map[string]interface{}{}
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &u.Preferences); err != nil {
			return nil, fmt.Errorf("failed to decode preferences: %w", err)
		}
	}

	return &u, nil
}

// Create tạo user mới. Unique violations map về domain errors.
func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]interface{}{}
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, is_active, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsActive, prefsJSON, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			if strings.Contains(pgErr.ConstraintName, "email") {
				return user.ErrEmailAlreadyExists
			}
			return user.ErrUsernameAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// FindByUsernameOrEmail - login accepts cả username lẫn email
func (r *postgresRepository) FindByUsernameOrEmail(ctx context.Context, login string) (*user.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 OR email = $1`, userColumns)

	u, err := scanUser(r.pool.QueryRow(ctx, query, login))
	if err == pgx.ErrNoRows {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}

	return u, nil
}

func (r *postgresRepository) UpdatePreferences(ctx context.Context, id uuid.UUID, preferences map[string]interface{}) error {
	if preferences == nil {
		preferences = map[string]interface{}{}
	}
	prefsJSON, err := json.Marshal(preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	result, err := r.pool.Exec(ctx,
		`UPDATE users SET preferences = $1, updated_at = NOW() WHERE id = $2`,
		prefsJSON, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	if result.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

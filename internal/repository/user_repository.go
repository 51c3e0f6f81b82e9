package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/utfpr/todo-users/internal/database"
	"github.com/utfpr/todo-users/shared/models"
)

const userColumns = `id, username, name, email, password_hash, created_at, updated_at`

// UserWriteRepository handles all state-mutating operations for users.
// It operates exclusively against the relational write store (source of truth).
type UserWriteRepository struct {
	db     *sql.DB
	driver string
}

func NewUserWriteRepository(db *sql.DB, driver string) *UserWriteRepository {
	return &UserWriteRepository{db: db, driver: driver}
}

func (r *UserWriteRepository) Create(ctx context.Context, user *models.User) error {
	query := database.Rebind(r.driver, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Name, user.Email, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID fetches the full write model (including PasswordHash) for internal operations.
func (r *UserWriteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := database.Rebind(r.driver, `SELECT `+userColumns+` FROM users WHERE id = ?`)
	return r.getOne(ctx, query, id)
}

// GetByUsername is an exact-match lookup.
func (r *UserWriteRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := database.Rebind(r.driver, `SELECT `+userColumns+` FROM users WHERE username = ?`)
	return r.getOne(ctx, query, username)
}

func (r *UserWriteRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Name, &user.Email, &user.PasswordHash,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Update writes every mutable column. id and created_at are never touched.
func (r *UserWriteRepository) Update(ctx context.Context, user *models.User) error {
	query := database.Rebind(r.driver, `
		UPDATE users
		SET username = ?, name = ?, email = ?, password_hash = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Name, user.Email, user.PasswordHash, user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result)
}

func (r *UserWriteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := database.Rebind(r.driver, `DELETE FROM users WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// either supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/utfpr/todo-users/internal/database"
	"github.com/utfpr/todo-users/shared/models"
	sharedredis "github.com/utfpr/todo-users/shared/redis"
)

const userViewKeyPrefix = "user:view:"

// UserViewTTL bounds how long a view can outlive a failed invalidation.
const UserViewTTL = 5 * time.Minute

// UserViewCache is satisfied by sharedredis.ViewCache[models.UserView].
type UserViewCache interface {
	Get(ctx context.Context, key string) (*models.UserView, bool)
	Set(ctx context.Context, key string, value *models.UserView)
	Delete(ctx context.Context, key string)
}

// NewUserViewCache returns the Redis view cache used by the read repository.
func NewUserViewCache(client *goredis.Client) *sharedredis.ViewCache[models.UserView] {
	return sharedredis.NewViewCache[models.UserView](client, UserViewTTL)
}

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to the relational store on a miss.
type UserReadRepository struct {
	db     *sql.DB
	driver string
	cache  UserViewCache
}

func NewUserReadRepository(db *sql.DB, driver string, cache UserViewCache) *UserReadRepository {
	return &UserReadRepository{db: db, driver: driver, cache: cache}
}

// GetByID returns a UserView from Redis first, then the database.
func (r *UserReadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, viewKey(id)); ok {
		return view, nil
	}

	query := database.Rebind(r.driver, `
		SELECT id, username, name, email, created_at, updated_at
		FROM users
		WHERE id = ?
	`)
	var view models.UserView
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&view.ID, &view.Username, &view.Name, &view.Email, &view.CreatedAt, &view.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Warm the cache
	r.CacheUserView(ctx, &view)
	return &view, nil
}

// ListAll always reads the database; an empty table yields an empty, non-nil slice.
func (r *UserReadRepository) ListAll(ctx context.Context) ([]models.UserView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, name, email, created_at, updated_at
		FROM users
		ORDER BY created_at, username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	views := []models.UserView{}
	for rows.Next() {
		var view models.UserView
		if err := rows.Scan(
			&view.ID, &view.Username, &view.Name, &view.Email, &view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return views, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, viewKey(view.ID), view)
}

// InvalidateUserView removes the Redis read model entry for a user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, id uuid.UUID) {
	r.cache.Delete(ctx, viewKey(id))
}

func viewKey(id uuid.UUID) string {
	return userViewKeyPrefix + id.String()
}

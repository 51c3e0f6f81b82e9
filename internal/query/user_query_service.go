package query

import (
	"context"

	"github.com/google/uuid"
	"github.com/utfpr/todo-users/shared/cqrs"
	"github.com/utfpr/todo-users/shared/models"
)

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserView, error)
	ListAll(ctx context.Context) ([]models.UserView, error)
}

// UserQueryService reads user views from the Redis cache (with a database fallback).
type UserQueryService struct {
	readRepo UserReader
}

func NewUserQueryService(readRepo UserReader) *UserQueryService {
	return &UserQueryService{readRepo: readRepo}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	return s.readRepo.GetByID(ctx, q.UserID)
}

// ListUsers returns an empty slice, not an error, when there are no users.
func (s *UserQueryService) ListUsers(ctx context.Context, _ cqrs.ListUsersQuery) ([]models.UserView, error) {
	views, err := s.readRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []models.UserView{}
	}
	return views, nil
}

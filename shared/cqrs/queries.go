package cqrs

import "github.com/google/uuid"

// GetUserQuery fetches a single user by ID.
type GetUserQuery struct {
	UserID uuid.UUID
}

// ListUsersQuery fetches every user.
type ListUsersQuery struct{}

package cqrs

import "github.com/google/uuid"

type CreateUserCommand struct {
	Username string
	Name     string
	Email    string
	Password string
}

// UpdateUserCommand replaces every mutable field of the user.
type UpdateUserCommand struct {
	UserID   uuid.UUID
	Username string
	Name     string
	Email    string
	Password string
}

// PatchUserCommand merges only the non-nil fields into the stored user.
type PatchUserCommand struct {
	UserID   uuid.UUID
	Username *string
	Name     *string
	Email    *string
	Password *string
}

type DeleteUserCommand struct {
	UserID uuid.UUID
}

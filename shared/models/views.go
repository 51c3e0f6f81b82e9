package models

import (
	"time"

	"github.com/google/uuid"
)

// UserView is the read-optimised projection of a user.
// It never exposes PasswordHash and is what the Redis read model stores.
type UserView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

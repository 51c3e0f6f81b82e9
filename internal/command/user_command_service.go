package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/utfpr/todo-users/shared/cqrs"
	"github.com/utfpr/todo-users/shared/events"
	"github.com/utfpr/todo-users/shared/models"
	"github.com/utfpr/todo-users/shared/utils"
)

// UserStore is the write store. Lookups return models.ErrUserNotFound on a
// miss; Create and Update return models.ErrDuplicateUsername when the store's
// unique constraint rejects the username.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ViewProjector keeps the read model in step with the write store.
type ViewProjector interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserView(ctx context.Context, id uuid.UUID)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService writes user state to the relational store and keeps the
// Redis read model up to date.
type UserCommandService struct {
	store     UserStore
	views     ViewProjector
	publisher EventPublisher
}

func NewUserCommandService(store UserStore, views ViewProjector, publisher EventPublisher) *UserCommandService {
	return &UserCommandService{
		store:     store,
		views:     views,
		publisher: publisher,
	}
}

func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	if err := s.ensureUsernameAvailable(ctx, cmd.Username, uuid.Nil); err != nil {
		return nil, err
	}
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     cmd.Username,
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	view := user.View()
	s.views.CacheUserView(ctx, view)
	s.publish(ctx, events.UserCreated, events.UserCreatedEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
	})
	return view, nil
}

// UpdateUser replaces username, name, email and password unconditionally.
func (s *UserCommandService) UpdateUser(ctx context.Context, cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	user, err := s.store.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUsernameAvailable(ctx, cmd.Username, user.ID); err != nil {
		return nil, err
	}
	passwordHash, err := utils.HashPassword(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Username = cmd.Username
	user.Name = cmd.Name
	user.Email = cmd.Email
	user.PasswordHash = passwordHash
	return s.save(ctx, user)
}

// PatchUser merges the non-nil fields of cmd. The username check only runs
// when a username is supplied.
func (s *UserCommandService) PatchUser(ctx context.Context, cmd cqrs.PatchUserCommand) (*models.UserView, error) {
	user, err := s.store.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if cmd.Username != nil {
		if err := s.ensureUsernameAvailable(ctx, *cmd.Username, user.ID); err != nil {
			return nil, err
		}
		user.Username = *cmd.Username
	}
	if cmd.Name != nil {
		user.Name = *cmd.Name
	}
	if cmd.Email != nil {
		user.Email = *cmd.Email
	}
	if cmd.Password != nil {
		passwordHash, err := utils.HashPassword(*cmd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = passwordHash
	}
	return s.save(ctx, user)
}

func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	if err := s.store.Delete(ctx, cmd.UserID); err != nil {
		return err
	}
	s.views.InvalidateUserView(ctx, cmd.UserID)
	s.publish(ctx, events.UserDeleted, events.UserDeletedEvent{UserID: cmd.UserID})
	return nil
}

// HandleUserEvent is the Redis stream subscriber handler. It repairs the read
// model from the write store, covering cache writes that failed inline.
func (s *UserCommandService) HandleUserEvent(ctx context.Context, event events.Event) error {
	log.Debug().Str("type", event.Type).Msg("Received user event")
	switch event.Type {
	case events.UserCreated, events.UserUpdated:
		var data events.UserUpdatedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return err
		}
		user, err := s.store.GetByID(ctx, data.UserID)
		if errors.Is(err, models.ErrUserNotFound) {
			s.views.InvalidateUserView(ctx, data.UserID)
			return nil
		}
		if err != nil {
			return err
		}
		s.views.CacheUserView(ctx, user.View())
	case events.UserDeleted:
		var data events.UserDeletedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return err
		}
		s.views.InvalidateUserView(ctx, data.UserID)
	}
	return nil
}

// ensureUsernameAvailable fails when username belongs to a user other than self.
// Pass uuid.Nil as self when creating.
func (s *UserCommandService) ensureUsernameAvailable(ctx context.Context, username string, self uuid.UUID) error {
	owner, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if owner.ID != self {
		return models.ErrDuplicateUsername
	}
	return nil
}

func (s *UserCommandService) save(ctx context.Context, user *models.User) (*models.UserView, error) {
	user.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return nil, err
	}
	view := user.View()
	s.views.CacheUserView(ctx, view)
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
	})
	return view, nil
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to publish user event")
	}
}

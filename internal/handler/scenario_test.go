package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utfpr/todo-users/internal/command"
	"github.com/utfpr/todo-users/internal/database"
	"github.com/utfpr/todo-users/internal/query"
	"github.com/utfpr/todo-users/internal/repository"
	"github.com/utfpr/todo-users/shared/models"
	"github.com/utfpr/todo-users/shared/utils"
)

type noopViewCache struct{}

func (noopViewCache) Get(context.Context, string) (*models.UserView, bool) { return nil, false }
func (noopViewCache) Set(context.Context, string, *models.UserView)        {}
func (noopViewCache) Delete(context.Context, string)                       {}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }

// newSQLiteRouter wires the real services over a throwaway SQLite database.
func newSQLiteRouter(t *testing.T) (*gin.Engine, *repository.UserWriteRepository) {
	t.Helper()
	db, err := database.Open(database.SQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, database.SQLite))

	writeRepo := repository.NewUserWriteRepository(db, database.SQLite)
	readRepo := repository.NewUserReadRepository(db, database.SQLite, noopViewCache{})
	commandSvc := command.NewUserCommandService(writeRepo, readRepo, noopPublisher{})
	querySvc := query.NewUserQueryService(readRepo)

	return newUserTestRouter(commandSvc, querySvc), writeRepo
}

func decodeView(t *testing.T, body []byte) models.UserView {
	t.Helper()
	var view models.UserView
	require.NoError(t, json.Unmarshal(body, &view))
	return view
}

func TestUsernameLifecycleScenario(t *testing.T) {
	router, writeRepo := newSQLiteRouter(t)

	w := userDoRequest(router, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No users found", errorMessage(w))

	w = userDoRequest(router, http.MethodPost, "/users", map[string]string{"username": "alice", "password": "p1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	alice := decodeView(t, w.Body.Bytes())
	assert.NotContains(t, w.Body.String(), "password")

	stored, err := writeRepo.GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("p1", stored.PasswordHash))

	w = userDoRequest(router, http.MethodPost, "/users", map[string]string{"username": "alice", "password": "p2"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already exists", errorMessage(w))

	w = userDoRequest(router, http.MethodPatch, "/users/"+alice.ID.String(), map[string]string{"username": "alice2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "alice2", decodeView(t, w.Body.Bytes()).Username)

	w = userDoRequest(router, http.MethodPost, "/users", map[string]string{"username": "alice", "password": "p3"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	carol := decodeView(t, w.Body.Bytes())
	assert.NotEqual(t, alice.ID, carol.ID)

	w = userDoRequest(router, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []models.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 2)
}

func TestDeleteThenCreateScenario(t *testing.T) {
	router, _ := newSQLiteRouter(t)

	w := userDoRequest(router, http.MethodDelete, "/users/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", errorMessage(w))

	w = userDoRequest(router, http.MethodPost, "/users", map[string]string{"username": "bob", "name": "Bob", "password": "p1"})
	require.Equal(t, http.StatusCreated, w.Code)
	bob := decodeView(t, w.Body.Bytes())

	w = userDoRequest(router, http.MethodDelete, "/users/"+bob.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = userDoRequest(router, http.MethodGet, "/users/"+bob.ID.String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = userDoRequest(router, http.MethodPost, "/users", map[string]string{"username": "bob", "name": "Bob Two", "password": "p2"})
	require.Equal(t, http.StatusCreated, w.Code)
	bobTwo := decodeView(t, w.Body.Bytes())

	w = userDoRequest(router, http.MethodGet, "/users/"+bobTwo.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeView(t, w.Body.Bytes())
	assert.Equal(t, bobTwo.ID, got.ID)
	assert.Equal(t, "Bob Two", got.Name)
}

func TestFullUpdateScenario(t *testing.T) {
	router, writeRepo := newSQLiteRouter(t)

	w := userDoRequest(router, http.MethodPost, "/users", map[string]string{
		"username": "dave", "name": "Dave", "email": "dave@example.com", "password": "p1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	dave := decodeView(t, w.Body.Bytes())

	w = userDoRequest(router, http.MethodPost, "/users", map[string]string{"username": "erin", "password": "p1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = userDoRequest(router, http.MethodPut, "/users/"+dave.ID.String(), map[string]string{"username": "erin", "password": "p2"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = userDoRequest(router, http.MethodPut, "/users/"+dave.ID.String(), map[string]string{"username": "dave", "password": "p2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeView(t, w.Body.Bytes())
	assert.Empty(t, updated.Name)
	assert.Empty(t, updated.Email)
	assert.True(t, dave.CreatedAt.Equal(updated.CreatedAt))

	stored, err := writeRepo.GetByID(context.Background(), dave.ID)
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("p2", stored.PasswordHash))
}

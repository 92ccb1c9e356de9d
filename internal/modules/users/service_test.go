package users

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"authgate/internal/database"
	"authgate/internal/domain"
	"authgate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupRepo(t *testing.T) *repository.UserRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := database.Connect(dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return repository.NewUserRepository(db)
}

func TestCreateUser_PrimesReplica(t *testing.T) {
	repo := setupRepo(t)

	var got createUserPayload
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]any{"id": 77, "username": got.Username})
	}))
	defer upstream.Close()

	svc := NewService(upstream.URL, upstream.Client(), repo)
	user, err := svc.CreateUser(context.Background(), "luigi", "Luigi", "Verdi", "luigi@example.com", "plumber-pass")
	require.NoError(t, err)
	assert.Equal(t, int64(77), user.ID)

	// The password travels hashed, never in the clear.
	assert.NotEqual(t, "plumber-pass", got.HashedPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.HashedPassword), []byte("plumber-pass")))

	// Replica can serve the profile straight away.
	replica, err := repo.GetByID(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, "luigi", replica.Username)
}

func TestCreateUser_UpstreamDown(t *testing.T) {
	repo := setupRepo(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	svc := NewService(upstream.URL, upstream.Client(), repo)
	_, err := svc.CreateUser(context.Background(), "luigi", "Luigi", "Verdi", "luigi@example.com", "plumber-pass")
	assert.ErrorIs(t, err, ErrUsersUnavailable)
}

func TestChangePassword_Rejected(t *testing.T) {
	repo := setupRepo(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/change_password", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer upstream.Close()

	svc := NewService(upstream.URL, upstream.Client(), repo)
	err := svc.ChangePassword(context.Background(), 1, "old", "new-password")
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestChangePassword_OK(t *testing.T) {
	repo := setupRepo(t)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p changePasswordPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		assert.Equal(t, int64(5), p.UserID)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	svc := NewService(upstream.URL, upstream.Client(), repo)
	assert.NoError(t, svc.ChangePassword(context.Background(), 5, "old", "new-password"))
}

func TestGetProfile_NotFound(t *testing.T) {
	svc := NewService("http://users.invalid", nil, setupRepo(t))
	_, err := svc.GetProfile(context.Background(), 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetProfile_FromReplica(t *testing.T) {
	repo := setupRepo(t)
	require.NoError(t, repo.Upsert(context.Background(), &domain.User{
		ID:           3,
		Username:     "peach",
		Email:        "peach@example.com",
		PasswordHash: "x",
	}))

	svc := NewService("http://users.invalid", nil, repo)
	user, err := svc.GetProfile(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "peach", user.Username)
}

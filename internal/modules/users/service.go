package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"authgate/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUsersUnavailable — the users microservice did not answer.
	ErrUsersUnavailable = errors.New("users service unavailable")
	// ErrUserRejected — the users microservice refused the request
	// (duplicate username, wrong old password, validation).
	ErrUserRejected = errors.New("users service rejected request")
	// ErrUserNotFound — no such user in the local replica.
	ErrUserNotFound = errors.New("user not found")
)

// Service proxies user management to the users microservice. The gateway
// never owns user records; it only primes its local replica with what the
// directory returns so login can verify credentials without a synchronous
// hop.
type Service struct {
	baseURL string
	client  *http.Client
	users   UserRepositoryInterface
}

func NewService(baseURL string, client *http.Client, users UserRepositoryInterface) *Service {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		users:   users,
	}
}

type createUserPayload struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password"`
}

type createUserReply struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateUser registers the user in the directory and upserts the replica
// row immediately, so the auto-login after register does not have to wait
// for broker replication. Passwords are hashed before they leave the
// gateway.
func (s *Service) CreateUser(ctx context.Context, username, name, surname, email, password string) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	reply := createUserReply{}
	err = s.post(ctx, "/users/", createUserPayload{
		Username:       username,
		Name:           name,
		Surname:        surname,
		Email:          email,
		HashedPassword: string(hash),
	}, &reply)
	if err != nil {
		return nil, err
	}
	if reply.ID == 0 {
		return nil, fmt.Errorf("%w: no user id in response", ErrUserRejected)
	}

	user := &domain.User{
		ID:           reply.ID,
		Username:     username,
		Email:        email,
		Name:         name,
		Surname:      surname,
		PasswordHash: string(hash),
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

type changePasswordPayload struct {
	UserID      int64  `json:"user_id"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword proxies the change to the directory; the replica row
// catches up through the user.updated broker event.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	return s.post(ctx, "/users/change_password", changePasswordPayload{
		UserID:      userID,
		OldPassword: oldPassword,
		NewPassword: newPassword,
	}, nil)
}

// GetProfile serves the profile from the local replica.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsersUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUsersUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrUserRejected, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsersUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: bad response body", ErrUsersUnavailable)
	}
	return nil
}

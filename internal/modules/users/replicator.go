package users

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"authgate/internal/broker"
	"authgate/internal/domain"
)

// UsersExchange is the fanout exchange the users microservice emits on.
const UsersExchange = "users"

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type userEvent struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Surname        string `json:"surname"`
	HashedPassword string `json:"hashed_password"`
}

// ReplicaWriter is the replica mutation surface replication needs.
type ReplicaWriter interface {
	Upsert(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// Replicator applies user.* broker events to the local replica, keeping
// it eventually consistent with the users directory.
type Replicator struct {
	users ReplicaWriter
}

func NewReplicator(users ReplicaWriter) *Replicator {
	return &Replicator{users: users}
}

// Apply is the broker.Handler for the users exchange. Unknown event types
// are skipped so the directory can grow its vocabulary without breaking
// the gateway.
func (r *Replicator) Apply(ctx context.Context, ev broker.Event) error {
	var payload userEvent
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		return fmt.Errorf("users replication: bad %s payload: %w", ev.Type, err)
	}
	if payload.ID == 0 {
		return fmt.Errorf("users replication: %s event without user id", ev.Type)
	}

	switch ev.Type {
	case EventUserCreated, EventUserUpdated:
		return r.users.Upsert(ctx, &domain.User{
			ID:           payload.ID,
			Username:     payload.Username,
			Email:        payload.Email,
			Name:         payload.Name,
			Surname:      payload.Surname,
			PasswordHash: payload.HashedPassword,
		})
	case EventUserDeleted:
		return r.users.Delete(ctx, payload.ID)
	default:
		log.Printf("users replication: ignoring event type=%s", ev.Type)
		return nil
	}
}

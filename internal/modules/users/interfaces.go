package users

import (
	"context"

	"authgate/internal/domain"
)

// UserRepositoryInterface — replica access the proxy needs.
type UserRepositoryInterface interface {
	Upsert(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

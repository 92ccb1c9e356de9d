package auth

import (
	"context"
	"time"

	"authgate/internal/domain"
	"authgate/internal/pkg/token"

	"gorm.io/gorm"
)

// TokenIssuer mints and verifies signed tokens. The rotation engine treats
// issued strings as opaque.
type TokenIssuer interface {
	Issue(userID, sessionID int64, username string, ttl time.Duration) (string, error)
	Verify(tokenStr string) (*token.Claims, error)
}

// UserRepositoryInterface — only what the rotation engine needs from the
// user replica. DB gives access to the shared handle for transactions.
type UserRepositoryInterface interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	DB() *gorm.DB
}

// SessionRepositoryInterface reads session rows outside rotation
// transactions (logout, validation).
type SessionRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*domain.Session, error)
}

// TokenRepositoryInterface reads the token ledger for access-token checks.
type TokenRepositoryInterface interface {
	GetAccessByToken(ctx context.Context, tokenStr string) (*domain.AccessToken, error)
}

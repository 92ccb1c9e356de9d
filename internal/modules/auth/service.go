package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"authgate/internal/domain"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenTypeBearer is the token_type reported with every issued pair.
const TokenTypeBearer = "Bearer"

// Service is the rotation engine: it owns the session store and the token
// ledger, and is the only place that mutates either. Login creates a
// session with one live pair, Refresh rotates the pair and watches for
// replays, Logout retires everything.
type Service struct {
	users    UserRepositoryInterface
	sessions SessionRepositoryInterface
	tokens   TokenRepositoryInterface
	issuer   TokenIssuer

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewService(
	users UserRepositoryInterface,
	sessions SessionRepositoryInterface,
	tokens TokenRepositoryInterface,
	issuer TokenIssuer,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Login verifies credentials against the user replica and, in a single
// transaction, creates the session and its first token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, upstream(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	var pair *TokenPair
	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session := &domain.Session{
			UserID:    user.ID,
			IsActive:  true,
			ExpiresAt: now.Add(s.refreshTTL),
		}
		if err := tx.Create(session).Error; err != nil {
			return err
		}

		p, err := s.mintPair(tx, user.ID, user.Username, session.ID, s.refreshTTL)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, upstream(err)
	}

	return pair, nil
}

// Refresh validates a presented refresh token and rotates its pair.
//
// A refresh token that the ledger already marks expired was rotated away
// before: someone is replaying it. The session gets blocked and every
// token under it retired; those writes commit even though the request
// itself fails. The is_expired flip on the happy path is a compare-and-set
// so that two racing calls on the same live token cannot both rotate —
// the loser observes zero affected rows and falls into the same replay
// handling.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (*TokenPair, error) {
	claims, err := s.issuer.Verify(refreshRaw)
	if err != nil {
		return nil, ErrInvalidToken
	}

	now := time.Now()
	var (
		pair     *TokenPair
		replayed bool
		rejected bool
	)

	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current domain.RefreshToken
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token = ?", refreshRaw).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rejected = true
				return nil
			}
			return err
		}

		var session domain.Session
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&session, current.SessionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rejected = true
				return nil
			}
			return err
		}
		if !session.Usable(now) {
			rejected = true
			return nil
		}

		if current.IsExpired {
			replayed = true
			return s.blockSession(tx, session.ID)
		}

		res := tx.Model(&domain.RefreshToken{}).
			Where("id = ? AND is_expired = ?", current.ID, false).
			Update("is_expired", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race to a concurrent rotation of the same token.
			replayed = true
			return s.blockSession(tx, session.ID)
		}
		if err := tx.Model(&domain.AccessToken{}).
			Where("id = ?", current.AccessTokenID).
			Update("is_expired", true).Error; err != nil {
			return err
		}

		// A rotated refresh token never outlives the session it belongs to.
		refreshTTL := s.refreshTTL
		if remaining := session.Remaining(now); remaining < refreshTTL {
			refreshTTL = remaining
		}

		p, err := s.mintPair(tx, claims.UserID, claims.Username, session.ID, refreshTTL)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, upstream(err)
	}

	if replayed {
		log.Printf("auth: refresh token replay detected, session blocked session_id=%d user_id=%d", claims.SessionID, claims.UserID)
		return nil, ErrInvalidToken
	}
	if rejected {
		return nil, ErrInvalidToken
	}

	return pair, nil
}

// Logout deactivates the session named by a valid access token and retires
// its whole ledger. Repeating it on an already-inactive session is a no-op,
// not an error.
func (s *Service) Logout(ctx context.Context, accessRaw string) error {
	claims, err := s.issuer.Verify(accessRaw)
	if err != nil {
		return ErrInvalidToken
	}

	if _, err := s.sessions.GetByID(ctx, claims.SessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidSession
		}
		return upstream(err)
	}

	err = s.users.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Session{}).
			Where("id = ?", claims.SessionID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return expireLedger(tx, claims.SessionID)
	})
	if err != nil {
		return upstream(err)
	}

	return nil
}

// ValidateSession checks an access token end to end: signature, ledger
// liveness, session liveness. Used by the request middleware. Presenting a
// retired access token is rejected but does not block the session; only
// refresh replay does that.
func (s *Service) ValidateSession(ctx context.Context, accessRaw string) (int64, int64, error) {
	claims, err := s.issuer.Verify(accessRaw)
	if err != nil {
		return 0, 0, ErrInvalidToken
	}

	record, err := s.tokens.GetAccessByToken(ctx, accessRaw)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrInvalidToken
		}
		return 0, 0, upstream(err)
	}
	if record.IsExpired {
		return 0, 0, ErrInvalidToken
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, 0, ErrInvalidSession
		}
		return 0, 0, upstream(err)
	}
	if !session.Usable(time.Now()) {
		return 0, 0, ErrInvalidToken
	}

	return claims.UserID, claims.SessionID, nil
}

// mintPair issues a linked access/refresh pair and records it in the
// ledger within the caller's transaction.
func (s *Service) mintPair(tx *gorm.DB, userID int64, username string, sessionID int64, refreshTTL time.Duration) (*TokenPair, error) {
	accessRaw, err := s.issuer.Issue(userID, sessionID, username, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshRaw, err := s.issuer.Issue(userID, sessionID, username, refreshTTL)
	if err != nil {
		return nil, err
	}

	access := &domain.AccessToken{SessionID: sessionID, Token: accessRaw}
	if err := tx.Create(access).Error; err != nil {
		return nil, err
	}
	refresh := &domain.RefreshToken{
		SessionID:     sessionID,
		Token:         refreshRaw,
		AccessTokenID: access.ID,
	}
	if err := tx.Create(refresh).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessRaw,
		RefreshToken: refreshRaw,
		TokenType:    TokenTypeBearer,
	}, nil
}

// blockSession marks the session blocked and retires its whole ledger.
// Blocked implies inactive.
func (s *Service) blockSession(tx *gorm.DB, sessionID int64) error {
	if err := tx.Model(&domain.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{"is_active": false, "is_blocked": true}).Error; err != nil {
		return err
	}
	return expireLedger(tx, sessionID)
}

func expireLedger(tx *gorm.DB, sessionID int64) error {
	if err := tx.Model(&domain.AccessToken{}).
		Where("session_id = ? AND is_expired = ?", sessionID, false).
		Update("is_expired", true).Error; err != nil {
		return err
	}
	return tx.Model(&domain.RefreshToken{}).
		Where("session_id = ? AND is_expired = ?", sessionID, false).
		Update("is_expired", true).Error
}

func upstream(err error) error {
	if err == nil {
		return nil
	}
	log.Printf("auth: upstream failure: %v", err)
	return ErrUpstreamUnavailable
}

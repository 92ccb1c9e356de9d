package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrVerificationFailed = errors.New("token verification failed")

// Claims carried by every token this gateway mints. Consumers treat the
// signed string as opaque; only this package looks inside.
type Claims struct {
	UserID    int64  `json:"user_id"`
	SessionID int64  `json:"session_id"`
	Username  string `json:"username,omitempty"`
	jwtlib.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret)}
}

// Issue mints a signed token for the given identity with the given
// lifetime.
func (i *Issuer) Issue(userID, sessionID int64, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		Username:  username,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the embedded claims.
// Every failure mode collapses into ErrVerificationFailed; callers never
// learn whether the token was forged, malformed or merely stale.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrVerificationFailed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrVerificationFailed
	}

	return claims, nil
}

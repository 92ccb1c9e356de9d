package domain

import "time"

// Session is one authenticated login. Tokens come and go through rotation,
// the session row is the durable anchor they all hang off.
type Session struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`

	IsActive  bool `json:"is_active" gorm:"not null;default:true"`
	IsBlocked bool `json:"is_blocked" gorm:"not null;default:false"`

	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Usable reports whether the session may still mint tokens.
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && !s.IsBlocked && !s.IsExpired(now)
}

// Remaining is how much lifetime the session has left. Rotated refresh
// tokens must never outlive this.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

package domain

import "time"

// AccessToken is one issued access token. Rows are never deleted by the
// rotation flow, only flipped to expired.
type AccessToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	SessionID int64   `json:"session_id" gorm:"index;not null"`
	Session   Session `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	Token string `json:"-" gorm:"uniqueIndex;not null"`

	IsExpired bool `json:"is_expired" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RefreshToken is one issued refresh token, paired 1:1 with the access
// token minted alongside it. At most one row per session has
// is_expired = false; that row is the only one rotation will accept.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	SessionID int64   `json:"session_id" gorm:"index;not null"`
	Session   Session `json:"-" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	Token string `json:"-" gorm:"uniqueIndex;not null"`

	AccessTokenID int64       `json:"access_token_id" gorm:"index;not null"`
	AccessToken   AccessToken `json:"-" gorm:"foreignKey:AccessTokenID"`

	IsExpired bool `json:"is_expired" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package domain

import "time"

// User is the local replica of the users directory. The users microservice
// is the source of truth; rows here arrive through broker events (or the
// register proxy) and exist so login can verify credentials without a
// synchronous hop.
type User struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`

	PasswordHash string `json:"-" gorm:"column:hashed_password;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

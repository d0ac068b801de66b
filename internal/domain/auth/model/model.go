package model

import (
	"time"
)

const (
	AccessTokenTTL = 24 * time.Hour
	ResetTokenTTL  = time.Hour
)

type User struct {
	ID               int64      `gorm:"primaryKey;autoIncrement"`
	FirstName        string     `gorm:"size:100;not null"`
	LastName         string     `gorm:"size:100;not null"`
	Email            string     `gorm:"size:120;not null;uniqueIndex"`
	PasswordHash     string     `gorm:"size:255;not null"`
	ResetToken       *string    `gorm:"size:255;index"`
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IssuedToken is a freshly signed bearer token.
type IssuedToken struct {
	Token     string
	JTI       string
	UserID    int64
	ExpiresAt time.Time
}

// Session is the outcome of register and login.
type Session struct {
	Token IssuedToken
	User  User
}

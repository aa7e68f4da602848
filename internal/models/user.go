package models

import (
	"time"
)

// User represents an account. Email is the login identifier.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email" validate:"required,email"`
	PasswordHash string    `gorm:"not null" json:"-" swaggerignore:"true"`
	Name         string    `gorm:"size:255;not null;default:''" json:"name"`
	IsActive     bool      `gorm:"not null;default:false" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"-"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// ProfilePatch lists the user attributes a caller may change on their own account.
// Nil fields are left untouched.
type ProfilePatch struct {
	Email    *string
	Name     *string
	Password *string
}

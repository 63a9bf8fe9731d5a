package models

import "strings"

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the two closed roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

type User struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	Email      string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name       string `gorm:"not null" json:"name"`
	Role       Role   `gorm:"size:16;not null" json:"role"`
	IsVerified bool   `gorm:"default:false" json:"isVerified"`
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Name       *string `json:"name,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	IsVerified *bool   `json:"is_verified,omitempty"`
}

// Profile is the public view of a user returned by the API.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// NormalizeEmail trims and lower-cases an address so lookups by email are unique.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package models

import (
	"strings"
	"time"
)

const UserTable = "cl_users"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User 是校园账号，Email 即登录名，也是失物匹配通知的收件地址
type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'student'" json:"role"`
	IsVerified   bool   `gorm:"not null;default:false" json:"isVerified"`

	LastSeenAt *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return UserTable }

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// ContactEmail returns the address notifications go to, or "" when the user
// has none on file.
func (u *User) ContactEmail() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.Email)
}

// PublicUser is the subset returned by auth endpoints.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

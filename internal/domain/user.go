package domain

import "time"

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
)

func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case StatusActive, StatusInactive:
		return UserStatus(s), true
	default:
		return "", false
	}
}

type User struct {
	ID           int64      `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Token        string     `json:"-"`
	Phone        string     `json:"phone"`
	Avatar       string     `json:"avatar"`
	Status       UserStatus `json:"status"`
	Deleted      bool       `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (u *User) CanLogin() bool {
	return u != nil && !u.Deleted && u.Status == StatusActive
}

type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token  string `json:"token"`
	CartID int64  `json:"cartId,omitempty"`
}

// ProfileUpdate holds optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
	Avatar   *string `json:"avatar"`
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ListFilter struct {
	Keyword string
	Status  string
	Limit   int
	Offset  int
}

const MinPasswordLength = 6

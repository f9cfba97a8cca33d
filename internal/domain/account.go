package domain

import "time"

// Account is an admin-console user. Its permissions come from its role.
type Account struct {
	ID           int64      `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Token        string     `json:"-"`
	Phone        string     `json:"phone"`
	Avatar       string     `json:"avatar"`
	RoleID       *int64     `json:"roleId"`
	Status       UserStatus `json:"status"`
	Deleted      bool       `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (a *Account) CanLogin() bool {
	return a != nil && !a.Deleted && a.Status == StatusActive
}

type AccountInput struct {
	FullName string     `json:"fullName"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Phone    string     `json:"phone"`
	Avatar   string     `json:"avatar"`
	RoleID   *int64     `json:"roleId"`
	Status   UserStatus `json:"status"`
}

// AccountProfile is what /auth/me returns.
type AccountProfile struct {
	Account     *Account `json:"account"`
	Role        *Role    `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

package model

import "fmt"

// Role is the privilege level of a user.
type Role int

const (
	Regular Role = iota
	Superuser
)

func (r Role) String() string {
	switch r {
	case Regular:
		return "regular"
	case Superuser:
		return "superuser"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// User holds account information. PasswordHash is an argon2id hash.
type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	Role         Role
}

// IsSuperuser reports whether u bypasses escaping and rate limits.
func (u User) IsSuperuser() bool {
	return u.Role == Superuser
}

// UserView is the public form of a User; it never carries the password.
type UserView struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	UserType Role   `json:"user_type"`
}

func (u User) View() UserView {
	return UserView{
		UserID:   u.UserID,
		Username: u.Username,
		UserType: u.Role,
	}
}

// ClaimCode binds a reserved username to a one-time code.
type ClaimCode struct {
	Code     string `json:"claim_code"`
	Username string `json:"username"`
}

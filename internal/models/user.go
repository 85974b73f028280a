package models

import "time"

// UserRole represents the available roles, strictly ordered by privilege.
type UserRole string

const (
	RoleAdmin  UserRole = "Admin"
	RoleEditor UserRole = "Editor"
	RoleReader UserRole = "Reader"
)

// KnownRole reports whether the role is one of the three defined roles.
func KnownRole(r UserRole) bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleReader
}

// User represents account credentials stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile carries the authorisation attributes of a user. Office is set
// only for Readers; a missing profile row is not an error and defaults
// to Reader with no office, which makes no data visible anywhere.
type Profile struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Role      UserRole  `db:"role" json:"role"`
	Office    *Office   `db:"office" json:"office,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserAccount is the admin listing row: account joined with its profile.
type UserAccount struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	Role      *UserRole `db:"role" json:"role,omitempty"`
	Office    *Office   `db:"office" json:"office,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt; never serialized
	Role         string // "user" or "admin"
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// UserFilter narrows a directory listing. Nil/empty fields impose no constraint.
type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
}

// UserUpdate is a partial update. Only non-nil fields are written.
type UserUpdate struct {
	Name         *string
	Email        *string
	Role         *string
	IsActive     *bool
	PasswordHash *string
	LastLogin    *time.Time
}

// IsEmpty reports whether the update carries no fields.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil &&
		u.IsActive == nil && u.PasswordHash == nil && u.LastLogin == nil
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination computes page metadata for a listing of total records.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalUsers:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

type UserPage struct {
	Users      []*User
	Pagination Pagination
}

// UserStats are the directory-wide counts shown on the admin dashboard.
type UserStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	ActiveUsers  int64 `json:"activeUsers"`
	AdminUsers   int64 `json:"adminUsers"`
	RegularUsers int64 `json:"regularUsers"`
}

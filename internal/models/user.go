package models

import "time"

// DefaultAdminGroup is the group whose members may use the helpdesk.
const DefaultAdminGroup = "IFMIS_ADMIN"

// StaffUser is a staff account stored in staff_users.
type StaffUser struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// StaffPrincipal identifies the authenticated staff member behind a request.
type StaffPrincipal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// NewPagination clamps page into [1, pages] and reports the offset to read from.
func NewPagination(page, pageSize, total int) (Pagination, int) {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: pages}, (page - 1) * pageSize
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

const staffUserColumns = `id, username, password_hash, is_active, last_login, created_at`

// StaffUserRepository provides access to staff accounts and their groups.
type StaffUserRepository struct {
	db *sqlx.DB
}

// NewStaffUserRepository creates a new instance of StaffUserRepository.
func NewStaffUserRepository(db *sqlx.DB) *StaffUserRepository {
	return &StaffUserRepository{db: db}
}

// FindByUsername returns an account by its login name.
func (r *StaffUserRepository) FindByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	query := `SELECT ` + staffUserColumns + ` FROM staff_users WHERE username = $1 LIMIT 1`
	var user models.StaffUser
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find staff user by username: %w", err)
	}
	return &user, nil
}

// Create inserts a new account.
func (r *StaffUserRepository) Create(ctx context.Context, user *models.StaffUser) error {
	const query = `INSERT INTO staff_users (username, password_hash, is_active) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, user.Username, user.PasswordHash, user.IsActive).Scan(&user.ID, &user.CreatedAt); err != nil {
		return fmt.Errorf("create staff user: %w", err)
	}
	return nil
}

// UpdateLastLogin records a successful sign-in.
func (r *StaffUserRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE staff_users SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// IsMember reports whether the user belongs to group.
func (r *StaffUserRepository) IsMember(ctx context.Context, userID int64, group string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM staff_groups WHERE user_id = $1 AND group_name = $2)`
	var member bool
	if err := r.db.GetContext(ctx, &member, query, userID, group); err != nil {
		return false, fmt.Errorf("check staff group membership: %w", err)
	}
	return member, nil
}

// AddToGroup grants membership; granting twice is a no-op.
func (r *StaffUserRepository) AddToGroup(ctx context.Context, userID int64, group string) error {
	const query = `INSERT INTO staff_groups (user_id, group_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, group); err != nil {
		return fmt.Errorf("add staff group membership: %w", err)
	}
	return nil
}

// RemoveFromGroup revokes membership.
func (r *StaffUserRepository) RemoveFromGroup(ctx context.Context, userID int64, group string) error {
	const query = `DELETE FROM staff_groups WHERE user_id = $1 AND group_name = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, group); err != nil {
		return fmt.Errorf("remove staff group membership: %w", err)
	}
	return nil
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

type groupMembership interface {
	IsMember(ctx context.Context, userID int64, group string) (bool, error)
}

// AdminGuard decides whether a staff member may use the helpdesk.
type AdminGuard struct {
	groups groupMembership
	logger *zap.Logger
	group  string
}

// NewAdminGuard builds the guard for group (IFMIS_ADMIN when empty).
func NewAdminGuard(groups groupMembership, logger *zap.Logger, group string) *AdminGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if group == "" {
		group = models.DefaultAdminGroup
	}
	return &AdminGuard{groups: groups, logger: logger, group: group}
}

// Group returns the name of the admin group.
func (g *AdminGuard) Group() string {
	return g.group
}

// IsAdmin reports current membership of the admin group. Lookup failures deny access.
func (g *AdminGuard) IsAdmin(ctx context.Context, principal *models.StaffPrincipal) bool {
	if g == nil || principal == nil || g.groups == nil {
		return false
	}
	member, err := g.groups.IsMember(ctx, principal.ID, g.group)
	if err != nil {
		g.logger.Warn("admin group lookup failed", zap.Int64("user_id", principal.ID), zap.Error(err))
		return false
	}
	return member
}

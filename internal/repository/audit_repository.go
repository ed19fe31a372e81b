package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

const auditSelect = `SELECT a.id, a.admin_id, u.username AS admin_username, a.action, a.ref_code, a.detail,
       host(a.ip_address) AS ip_address, a.timestamp
	FROM audit_logs a LEFT JOIN staff_users u ON u.id = a.admin_id`

// AuditRepository is the write-once store for the staff action ledger.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends a new entry. Entries that already carry an id are rejected.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID != 0 {
		return appErrors.ErrImmutable
	}
	var ip interface{}
	if entry.IPAddress != nil && *entry.IPAddress != "" {
		ip = *entry.IPAddress
	}
	const query = `INSERT INTO audit_logs (admin_id, action, ref_code, detail, ip_address)
	VALUES ($1, $2, $3, $4, $5::inet)
	RETURNING id, timestamp`
	if err := r.db.QueryRowxContext(ctx, query, entry.AdminID, entry.Action, entry.RefCode, entry.Detail, ip).Scan(&entry.ID, &entry.Timestamp); err != nil {
		if pqCode(err) == pqRestrictViolation {
			return appErrors.ErrImmutable
		}
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// Update always fails: ledger entries cannot change once written.
func (r *AuditRepository) Update(context.Context, *models.AuditLogEntry) error {
	return appErrors.ErrImmutable
}

// Delete always fails: ledger entries cannot be removed.
func (r *AuditRepository) Delete(context.Context, int64) error {
	return appErrors.ErrImmutable
}

// Count returns how many entries match the query filters.
func (r *AuditRepository) Count(ctx context.Context, q models.AuditQuery) (int, error) {
	where, args := auditConditions(q)
	query := `SELECT COUNT(*) FROM audit_logs a LEFT JOIN staff_users u ON u.id = a.admin_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return total, nil
}

// List returns matching entries newest first. A non-positive Limit returns every match.
func (r *AuditRepository) List(ctx context.Context, q models.AuditQuery) ([]models.AuditLogEntry, error) {
	where, args := auditConditions(q)
	query := auditSelect + where + ` ORDER BY a.timestamp DESC, a.id DESC`
	if q.Limit > 0 {
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, offset)
	}
	entries := make([]models.AuditLogEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}

func auditConditions(q models.AuditQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if admin := strings.TrimSpace(q.Admin); admin != "" {
		args = append(args, containsPattern(admin))
		conditions = append(conditions, fmt.Sprintf("u.username ILIKE $%d", len(args)))
	}
	if q.Action != "" {
		args = append(args, q.Action)
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", len(args)))
	}
	if ref := strings.TrimSpace(q.Ref); ref != "" {
		args = append(args, containsPattern(ref))
		conditions = append(conditions, fmt.Sprintf("a.ref_code ILIKE $%d", len(args)))
	}
	if q.Date != nil {
		tz := q.TimeZone
		if tz == "" {
			tz = "UTC"
		}
		args = append(args, tz, q.Date.Format("2006-01-02"))
		conditions = append(conditions, fmt.Sprintf("(a.timestamp AT TIME ZONE $%d)::date = $%d::date", len(args)-1, len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

package models

import "time"

// AuditAction enumerates the staff actions recorded in the ledger.
type AuditAction string

const (
	AuditActionLogin         AuditAction = "LOGIN"
	AuditActionLogout        AuditAction = "LOGOUT"
	AuditActionViewRequest   AuditAction = "VIEW_REQUEST"
	AuditActionMarkProcessed AuditAction = "MARK_PROCESSED"
	AuditActionMarkPending   AuditAction = "MARK_PENDING"
	AuditActionSendReply     AuditAction = "SEND_REPLY"
	AuditActionDeleteRequest AuditAction = "DELETE_REQUEST"
	AuditActionBulkDelete    AuditAction = "BULK_DELETE"
)

// AuditPageSize is the number of ledger entries shown per page.
const AuditPageSize = 25

// AuditActions lists every recordable action in display order.
var AuditActions = []AuditAction{
	AuditActionLogin,
	AuditActionLogout,
	AuditActionViewRequest,
	AuditActionMarkProcessed,
	AuditActionMarkPending,
	AuditActionSendReply,
	AuditActionDeleteRequest,
	AuditActionBulkDelete,
}

// Valid reports whether a is a known action.
func (a AuditAction) Valid() bool {
	for _, known := range AuditActions {
		if a == known {
			return true
		}
	}
	return false
}

// AuditLogEntry is an immutable ledger record. AdminUsername is populated on reads.
type AuditLogEntry struct {
	ID            int64       `db:"id" json:"id"`
	AdminID       *int64      `db:"admin_id" json:"admin_id,omitempty"`
	AdminUsername *string     `db:"admin_username" json:"admin_username,omitempty"`
	Action        AuditAction `db:"action" json:"action"`
	RefCode       *string     `db:"ref_code" json:"ref_code,omitempty"`
	Detail        string      `db:"detail" json:"detail"`
	IPAddress     *string     `db:"ip_address" json:"ip_address,omitempty"`
	Timestamp     time.Time   `db:"timestamp" json:"timestamp"`
}

// AuditFilter holds the raw audit page query parameters.
type AuditFilter struct {
	Admin  string
	Action string
	Ref    string
	Date   string
	Page   int
}

// AuditQuery is a validated ledger filter. A nil Date means any day.
type AuditQuery struct {
	Admin    string
	Action   AuditAction
	Ref      string
	Date     *time.Time
	TimeZone string
	Limit    int
	Offset   int
}

// AuditPage is one page of the ledger.
type AuditPage struct {
	Items      []AuditLogEntry `json:"items"`
	Pagination Pagination      `json:"pagination"`
	Actions    []AuditAction   `json:"actions"`
}

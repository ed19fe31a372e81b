package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
	"github.com/noah-isme/ifmis-helpdesk/pkg/export"
)

const maxAuditExportRows = 5000

type auditStore interface {
	Create(ctx context.Context, entry *models.AuditLogEntry) error
	Update(ctx context.Context, entry *models.AuditLogEntry) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, q models.AuditQuery) (int, error)
	List(ctx context.Context, q models.AuditQuery) ([]models.AuditLogEntry, error)
}

type datasetExporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFormat names an audit export encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// AuditExport is a rendered ledger download.
type AuditExport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AuditService appends to and reads the staff action ledger.
type AuditService struct {
	repo      auditStore
	exporters map[ExportFormat]datasetExporter
	logger    *zap.Logger
	timeZone  string
	location  *time.Location
	now       func() time.Time
}

// NewAuditService constructs the service. timeZone drives date filtering and export timestamps.
func NewAuditService(repo auditStore, logger *zap.Logger, timeZone string) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		logger.Warn("unknown time zone, using UTC", zap.String("time_zone", timeZone), zap.Error(err))
		timeZone, loc = "UTC", time.UTC
	}
	return &AuditService{
		repo: repo,
		exporters: map[ExportFormat]datasetExporter{
			ExportCSV: export.NewCSVExporter(),
			ExportPDF: export.NewPDFExporter(),
		},
		logger:   logger,
		timeZone: timeZone,
		location: loc,
		now:      time.Now,
	}
}

// Append writes a new ledger entry. admin may be nil for anonymous events.
func (s *AuditService) Append(ctx context.Context, admin *models.StaffPrincipal, action models.AuditAction, refCode *string, detail, ip string) (*models.AuditLogEntry, error) {
	if !action.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown audit action")
	}
	entry := &models.AuditLogEntry{Action: action, RefCode: refCode, Detail: detail}
	if admin != nil {
		id, username := admin.ID, admin.Username
		entry.AdminID = &id
		entry.AdminUsername = &username
	}
	if ip = strings.TrimSpace(ip); ip != "" {
		entry.IPAddress = &ip
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if appErrors.Is(err, appErrors.ErrImmutable) {
			s.logger.Error("audit ledger rejected write", zap.String("action", string(action)), zap.Error(err))
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write audit log")
	}
	return entry, nil
}

// Update is never permitted.
func (s *AuditService) Update(ctx context.Context, entry *models.AuditLogEntry) error {
	err := s.repo.Update(ctx, entry)
	s.logger.Error("attempt to modify audit log entry", zap.Int64("id", entry.ID), zap.Error(err))
	return appErrors.ErrImmutable
}

// Delete is never permitted.
func (s *AuditService) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	s.logger.Error("attempt to delete audit log entry", zap.Int64("id", id), zap.Error(err))
	return appErrors.ErrImmutable
}

// List returns one page of the ledger, newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) (*models.AuditPage, error) {
	q, err := s.buildQuery(filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count audit logs")
	}
	pagination, offset := models.NewPagination(filter.Page, models.AuditPageSize, total)
	q.Limit = models.AuditPageSize
	q.Offset = offset
	entries, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return &models.AuditPage{Items: entries, Pagination: pagination, Actions: models.AuditActions}, nil
}

// Export renders every entry matching filter (up to 5000) in the requested format.
func (s *AuditService) Export(ctx context.Context, filter models.AuditFilter, format ExportFormat) (*AuditExport, error) {
	exporter, ok := s.exporters[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	q, err := s.buildQuery(filter)
	if err != nil {
		return nil, err
	}
	q.Limit = maxAuditExportRows
	entries, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}

	now := s.now().In(s.location)
	dataset := export.Dataset{
		Title:   "IFMIS helpdesk audit log",
		Headers: []string{"Timestamp", "Admin", "Action", "Reference", "Detail", "IP address"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, entry := range entries {
		dataset.Rows = append(dataset.Rows, []string{
			entry.Timestamp.In(s.location).Format("2006-01-02 15:04:05"),
			derefOr(entry.AdminUsername, "(deleted user)"),
			string(entry.Action),
			derefOr(entry.RefCode, ""),
			entry.Detail,
			derefOr(entry.IPAddress, ""),
		})
	}
	content, err := exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render audit export")
	}
	return &AuditExport{
		Filename:    "audit_log_" + now.Format("20060102_150405") + exporter.Extension(),
		ContentType: exporter.ContentType(),
		Content:     content,
	}, nil
}

func (s *AuditService) buildQuery(filter models.AuditFilter) (models.AuditQuery, error) {
	q := models.AuditQuery{
		Admin:    strings.TrimSpace(filter.Admin),
		Ref:      strings.TrimSpace(filter.Ref),
		TimeZone: s.timeZone,
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		q.Action = models.AuditAction(strings.ToUpper(action))
		if !q.Action.Valid() {
			return q, appErrors.Clone(appErrors.ErrValidation, "unknown audit action filter")
		}
	}
	if date := strings.TrimSpace(filter.Date); date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, s.location)
		if err != nil {
			return q, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
		}
		q.Date = &day
	}
	return q, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

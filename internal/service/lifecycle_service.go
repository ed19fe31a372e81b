package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

const replyDetailRunes = 120

type lifecycleRequests interface {
	Create(ctx context.Context, req *models.ResetRequest) error
	GetByReference(ctx context.Context, code string) (*models.ResetRequest, error)
	GetByID(ctx context.Context, id int64) (*models.ResetRequest, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.ResetRequest, error)
	SetProcessed(ctx context.Context, id int64, processed bool) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	List(ctx context.Context, filter models.RequestFilter) (*models.RequestPage, error)
}

type lifecycleMessages interface {
	Append(ctx context.Context, requestID int64, sender models.MessageSender, content string) (*models.Message, error)
	List(ctx context.Context, requestID int64) ([]models.Message, error)
}

type lifecycleAudit interface {
	Append(ctx context.Context, admin *models.StaffPrincipal, action models.AuditAction, refCode *string, detail, ip string) (*models.AuditLogEntry, error)
	List(ctx context.Context, filter models.AuditFilter) (*models.AuditPage, error)
	Export(ctx context.Context, filter models.AuditFilter, format ExportFormat) (*AuditExport, error)
}

type submissionLimiter interface {
	Allow(ctx context.Context, ip string) (bool, error)
}

type requestNotifier interface {
	RequestSubmitted(ctx context.Context, req *models.ResetRequest)
	RequestProcessed(ctx context.Context, req *models.ResetRequest)
}

type documentStorage interface {
	SaveStream(name string, r io.Reader) (string, error)
	Exists(name string) bool
	Delete(name string) error
}

type uploadChecker interface {
	Validate(upload Upload) error
	StoredName(original string) string
}

// LifecycleDeps groups the collaborators of the lifecycle controller.
type LifecycleDeps struct {
	Requests  lifecycleRequests
	Messages  lifecycleMessages
	Audit     lifecycleAudit
	Limiter   submissionLimiter
	Notifier  requestNotifier
	Storage   documentStorage
	Uploads   uploadChecker
	Validator *validator.Validate
	Metrics   *MetricsService
	Logger    *zap.Logger
}

// LifecycleService drives reset requests from submission to processing and deletion.
type LifecycleService struct {
	requests  lifecycleRequests
	messages  lifecycleMessages
	audit     lifecycleAudit
	limiter   submissionLimiter
	notifier  requestNotifier
	storage   documentStorage
	uploads   uploadChecker
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewLifecycleService constructs the controller.
func NewLifecycleService(deps LifecycleDeps) *LifecycleService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Uploads == nil {
		deps.Uploads = NewUploadValidator(0)
	}
	return &LifecycleService{
		requests:  deps.Requests,
		messages:  deps.Messages,
		audit:     deps.Audit,
		limiter:   deps.Limiter,
		notifier:  deps.Notifier,
		storage:   deps.Storage,
		uploads:   deps.Uploads,
		validator: deps.Validator,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Submit accepts a public reset request with its supporting document.
func (s *LifecycleService) Submit(ctx context.Context, form models.SubmitRequest, upload Upload, ip string) (*models.ResetRequest, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, ip)
		if err != nil {
			// Counter outage: the limiter fails open, only a definite denial blocks.
			s.logger.Debug("submission accepted without rate limit", zap.String("ip", ip), zap.Error(err))
		}
		if !allowed {
			s.metrics.RecordSubmission(SubmissionRateLimited)
			return nil, appErrors.ErrRateLimited
		}
	}

	form.FullName = strings.TrimSpace(form.FullName)
	form.Department = strings.TrimSpace(form.Department)
	form.Email = strings.TrimSpace(form.Email)
	if err := s.validator.Struct(form); err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, validationError(err)
	}
	if err := s.uploads.Validate(upload); err != nil {
		s.metrics.RecordSubmission(SubmissionInvalid)
		return nil, err
	}

	path, err := s.storage.SaveStream(s.uploads.StoredName(upload.Filename), upload.Content)
	if err != nil {
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store uploaded file")
	}

	req := &models.ResetRequest{
		FullName:     form.FullName,
		Department:   form.Department,
		Email:        form.Email,
		UploadedFile: path,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if delErr := s.storage.Delete(path); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file", path), zap.Error(delErr))
		}
		s.metrics.RecordSubmission(SubmissionFailed)
		return nil, err
	}

	s.metrics.RecordSubmission(SubmissionAccepted)
	s.logger.Info("reset request submitted", zap.String("reference_code", req.ReferenceCode))
	if s.notifier != nil {
		s.notifier.RequestSubmitted(ctx, req)
	}
	return req, nil
}

// Track returns the public view of a request and its thread.
func (s *LifecycleService) Track(ctx context.Context, ref string) (*models.RequestDetail, error) {
	req, err := s.requests.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, req)
}

// PostUserMessage appends a requester message to the thread of ref.
func (s *LifecycleService) PostUserMessage(ctx context.Context, ref, content string) (*models.ResetRequest, error) {
	req, err := s.requests.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := s.messages.Append(ctx, req.ID, models.SenderUser, content); err != nil {
		return nil, err
	}
	return req, nil
}

// Document resolves the stored name of an uploaded file. Admins may fetch any file;
// everyone else must present the reference code of the request that owns it.
func (s *LifecycleService) Document(ctx context.Context, filename, ref string, admin bool) (string, error) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "file not found")
	if filename == "" || filename != path.Base(filename) || filename == "." || filename == ".." {
		return "", notFound
	}
	name := uploadDir + "/" + filename
	if !admin {
		if strings.TrimSpace(ref) == "" {
			return "", notFound
		}
		req, err := s.requests.GetByReference(ctx, ref)
		if err != nil || req.FileName() != filename {
			return "", notFound
		}
	}
	if s.storage == nil || !s.storage.Exists(name) {
		return "", notFound
	}
	return name, nil
}

// Lookup resolves a reference code for staff actions without auditing a view.
func (s *LifecycleService) Lookup(ctx context.Context, actor *models.StaffPrincipal, ref string) (*models.ResetRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.requests.GetByReference(ctx, ref)
}

// ViewRequest returns the staff detail view and records the read.
func (s *LifecycleService) ViewRequest(ctx context.Context, actor *models.StaffPrincipal, ref, ip string) (*models.RequestDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	detail, err := s.detail(ctx, req)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor, models.AuditActionViewRequest, &req.ReferenceCode,
		fmt.Sprintf("Viewed request from %s", req.FullName), ip)
	return detail, nil
}

// Reply appends a staff message to the thread of ref.
func (s *LifecycleService) Reply(ctx context.Context, actor *models.StaffPrincipal, ref, content, ip string) (*models.Message, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	msg, err := s.messages.Append(ctx, req.ID, models.SenderAdmin, content)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor, models.AuditActionSendReply, &req.ReferenceCode, truncateRunes(msg.Content, replyDetailRunes), ip)
	return msg, nil
}

// MarkProcessed sets the request to PROCESSED and notifies the requester if it was pending.
func (s *LifecycleService) MarkProcessed(ctx context.Context, actor *models.StaffPrincipal, id int64, ip string) (*models.ResetRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasPending := !req.Processed
	if err := s.requests.SetProcessed(ctx, id, true); err != nil {
		return nil, err
	}
	req.Processed = true
	s.emitAudit(ctx, actor, models.AuditActionMarkProcessed, &req.ReferenceCode,
		fmt.Sprintf("Marked request from %s as processed", req.FullName), ip)
	if wasPending && s.notifier != nil {
		s.notifier.RequestProcessed(ctx, req)
	}
	return req, nil
}

// MarkPending reverts the request to PENDING.
func (s *LifecycleService) MarkPending(ctx context.Context, actor *models.StaffPrincipal, id int64, ip string) (*models.ResetRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requests.SetProcessed(ctx, id, false); err != nil {
		return nil, err
	}
	req.Processed = false
	s.emitAudit(ctx, actor, models.AuditActionMarkPending, &req.ReferenceCode,
		fmt.Sprintf("Reverted request from %s to pending", req.FullName), ip)
	return req, nil
}

// DeleteCandidate returns the request a delete confirmation refers to.
func (s *LifecycleService) DeleteCandidate(ctx context.Context, actor *models.StaffPrincipal, id int64) (*models.ResetRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.requests.GetByID(ctx, id)
}

// Delete removes a request, its stored document and its thread.
// The ledger entry is written first so it survives the record.
func (s *LifecycleService) Delete(ctx context.Context, actor *models.StaffPrincipal, id int64, ip string) (*models.ResetRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor, models.AuditActionDeleteRequest, &req.ReferenceCode,
		fmt.Sprintf("Deleted request from %s (%s)", req.FullName, req.Email), ip)
	s.removeFile(req)
	if err := s.requests.Delete(ctx, id); err != nil {
		return nil, err
	}
	return req, nil
}

// BulkDelete removes every existing request among ids and records one ledger entry.
func (s *LifecycleService) BulkDelete(ctx context.Context, actor *models.StaffPrincipal, ids []int64, ip string) ([]string, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no requests selected")
	}
	items, err := s.requests.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "none of the selected requests exist")
	}

	codes := make([]string, 0, len(items))
	existing := make([]int64, 0, len(items))
	for i := range items {
		codes = append(codes, items[i].ReferenceCode)
		existing = append(existing, items[i].ID)
	}
	s.emitAudit(ctx, actor, models.AuditActionBulkDelete, nil,
		fmt.Sprintf("Deleted %d requests: %s", len(codes), strings.Join(codes, ", ")), ip)
	for i := range items {
		s.removeFile(&items[i])
	}
	if _, err := s.requests.DeleteMany(ctx, existing); err != nil {
		return nil, err
	}
	return codes, nil
}

// Dashboard lists requests for staff.
func (s *LifecycleService) Dashboard(ctx context.Context, actor *models.StaffPrincipal, filter models.RequestFilter) (*models.RequestPage, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.requests.List(ctx, filter)
}

// AuditLog lists ledger entries for staff.
func (s *LifecycleService) AuditLog(ctx context.Context, actor *models.StaffPrincipal, filter models.AuditFilter) (*models.AuditPage, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.audit.List(ctx, filter)
}

// ExportAuditLog renders the filtered ledger for download.
func (s *LifecycleService) ExportAuditLog(ctx context.Context, actor *models.StaffPrincipal, filter models.AuditFilter, format ExportFormat) (*AuditExport, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return s.audit.Export(ctx, filter, format)
}

func (s *LifecycleService) detail(ctx context.Context, req *models.ResetRequest) (*models.RequestDetail, error) {
	messages, err := s.messages.List(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return &models.RequestDetail{Request: req, Status: req.Status(), Messages: messages}, nil
}

func (s *LifecycleService) removeFile(req *models.ResetRequest) {
	if req.UploadedFile == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(req.UploadedFile); err != nil {
		s.logger.Warn("failed to delete uploaded file", zap.String("file", req.UploadedFile), zap.String("reference_code", req.ReferenceCode), zap.Error(err))
	}
}

func (s *LifecycleService) emitAudit(ctx context.Context, actor *models.StaffPrincipal, action models.AuditAction, ref *string, detail, ip string) {
	s.metrics.RecordStaffAction(string(action))
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(ctx, actor, action, ref, detail, ip); err != nil {
		s.logger.Error("failed to write audit log", zap.String("action", string(action)), zap.Error(err))
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// validationError turns validator output into a field-level message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := toSnake(fe.Field())
		var msg string
		switch fe.Tag() {
		case "required":
			msg = field + " is required"
		case "email":
			msg = field + " must be a valid email address"
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		default:
			msg = field + " is invalid"
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

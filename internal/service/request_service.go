package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	"github.com/noah-isme/ifmis-helpdesk/internal/repository"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

const maxReferenceAttempts = 10

type resetRequestStore interface {
	Create(ctx context.Context, req *models.ResetRequest) error
	FindByID(ctx context.Context, id int64) (*models.ResetRequest, error)
	FindByReference(ctx context.Context, code string) (*models.ResetRequest, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.ResetRequest, error)
	SetProcessed(ctx context.Context, id int64, processed bool) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
	Count(ctx context.Context, q models.RequestQuery) (int, error)
	List(ctx context.Context, q models.RequestQuery) ([]models.ResetRequest, error)
}

// RequestService owns reset request records and their reference codes.
type RequestService struct {
	repo     resetRequestStore
	logger   *zap.Logger
	timeZone string
	newCode  func() string
}

// NewRequestService constructs the service. timeZone is used for dashboard date filters.
func NewRequestService(repo resetRequestStore, logger *zap.Logger, timeZone string) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &RequestService{repo: repo, logger: logger, timeZone: timeZone, newCode: NewReferenceCode}
}

// NewReferenceCode returns a fresh 12 character code drawn uniformly from A-Z and 0-9.
func NewReferenceCode() string {
	return randomString(models.ReferenceCodeAlphabet, models.ReferenceCodeLength)
}

// NormalizeReference trims and uppercases user-entered reference codes.
func NormalizeReference(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create stores req under a new unique reference code, retrying on collisions.
func (s *RequestService) Create(ctx context.Context, req *models.ResetRequest) error {
	req.Processed = false
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		req.ReferenceCode = s.newCode()
		err := s.repo.Create(ctx, req)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateReference) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store request")
		}
		s.logger.Info("reference code collision, regenerating", zap.Int("attempt", attempt))
	}
	return appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique reference code")
}

// GetByReference returns the request for a user-entered code.
func (s *RequestService) GetByReference(ctx context.Context, code string) (*models.ResetRequest, error) {
	code = NormalizeReference(code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reference code is required")
	}
	req, err := s.repo.FindByReference(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no request found with reference code \""+code+"\"")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return req, nil
}

// GetByID returns the request with the given id.
func (s *RequestService) GetByID(ctx context.Context, id int64) (*models.ResetRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return req, nil
}

// GetByIDs returns the requests that exist among ids; unknown ids are skipped.
func (s *RequestService) GetByIDs(ctx context.Context, ids []int64) ([]models.ResetRequest, error) {
	items, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requests")
	}
	return items, nil
}

// SetProcessed overwrites the processed flag.
func (s *RequestService) SetProcessed(ctx context.Context, id int64, processed bool) error {
	if err := s.repo.SetProcessed(ctx, id, processed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	return nil
}

// Delete removes one request record.
func (s *RequestService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	return nil
}

// DeleteMany removes every listed request record.
func (s *RequestService) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	n, err := s.repo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete requests")
	}
	return n, nil
}

// List returns one dashboard page. Out-of-range pages clamp to the nearest valid page.
func (s *RequestService) List(ctx context.Context, filter models.RequestFilter) (*models.RequestPage, error) {
	q, err := s.buildQuery(filter)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests")
	}
	pagination, offset := models.NewPagination(filter.Page, models.RequestPageSize, total)
	q.Limit = models.RequestPageSize
	q.Offset = offset
	items, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	if items == nil {
		items = []models.ResetRequest{}
	}
	return &models.RequestPage{Items: items, Pagination: pagination}, nil
}

func (s *RequestService) buildQuery(filter models.RequestFilter) (models.RequestQuery, error) {
	q := models.RequestQuery{Search: strings.TrimSpace(filter.Query), TimeZone: s.timeZone}
	var err error
	if q.Day, err = parseDatePart(filter.Day, "day", 1, 31, 0); err != nil {
		return q, err
	}
	if q.Month, err = parseDatePart(filter.Month, "month", 1, 12, 0); err != nil {
		return q, err
	}
	if q.Year, err = parseDatePart(filter.Year, "year", 1000, 9999, 4); err != nil {
		return q, err
	}
	return q, nil
}

// parseDatePart accepts an empty value (no filter) or an integer in [min, max].
// digits > 0 additionally requires that exact number of digits.
func parseDatePart(raw, field string, min, max, digits int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	invalid := appErrors.Clone(appErrors.ErrValidation, "invalid "+field+" filter")
	if digits > 0 && len(raw) != digits {
		return 0, invalid
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		return 0, invalid
	}
	return value, nil
}

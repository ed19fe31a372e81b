package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

const (
	resetRequestColumns   = `id, full_name, department, email, uploaded_file, submitted_at, processed, reference_code`
	referenceCodeUniqueIx = "reset_requests_reference_code_key"
)

// ResetRequestRepository persists password-reset submissions.
type ResetRequestRepository struct {
	db *sqlx.DB
}

// NewResetRequestRepository constructs the repository.
func NewResetRequestRepository(db *sqlx.DB) *ResetRequestRepository {
	return &ResetRequestRepository{db: db}
}

// Create inserts the request and fills in its id and submission time.
func (r *ResetRequestRepository) Create(ctx context.Context, req *models.ResetRequest) error {
	const query = `INSERT INTO reset_requests (full_name, department, email, uploaded_file, processed, reference_code)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, submitted_at`
	row := r.db.QueryRowxContext(ctx, query, req.FullName, req.Department, req.Email, req.UploadedFile, req.Processed, req.ReferenceCode)
	if err := row.Scan(&req.ID, &req.SubmittedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation && pqErr.Constraint == referenceCodeUniqueIx {
			return ErrDuplicateReference
		}
		return fmt.Errorf("create reset request: %w", err)
	}
	return nil
}

// FindByID returns the request with the given id or sql.ErrNoRows.
func (r *ResetRequestRepository) FindByID(ctx context.Context, id int64) (*models.ResetRequest, error) {
	query := `SELECT ` + resetRequestColumns + ` FROM reset_requests WHERE id = $1`
	var req models.ResetRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find reset request by id: %w", err)
	}
	return &req, nil
}

// FindByReference returns the request carrying code or sql.ErrNoRows.
func (r *ResetRequestRepository) FindByReference(ctx context.Context, code string) (*models.ResetRequest, error) {
	query := `SELECT ` + resetRequestColumns + ` FROM reset_requests WHERE reference_code = $1`
	var req models.ResetRequest
	if err := r.db.GetContext(ctx, &req, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find reset request by reference: %w", err)
	}
	return &req, nil
}

// FindByIDs returns the subset of ids that exist, newest first.
func (r *ResetRequestRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.ResetRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + resetRequestColumns + ` FROM reset_requests WHERE id = ANY($1) ORDER BY submitted_at DESC, id DESC`
	var items []models.ResetRequest
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find reset requests by ids: %w", err)
	}
	return items, nil
}

// SetProcessed overwrites the processed flag.
func (r *ResetRequestRepository) SetProcessed(ctx context.Context, id int64, processed bool) error {
	const query = `UPDATE reset_requests SET processed = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, processed)
	if err != nil {
		return fmt.Errorf("set reset request processed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes one request. Its messages go with it via the foreign key.
func (r *ResetRequestRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM reset_requests WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete reset request: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteMany removes every listed request and reports how many rows went.
func (r *ResetRequestRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM reset_requests WHERE id = ANY($1)`
	res, err := r.db.ExecContext(ctx, query, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete reset requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete reset requests: %w", err)
	}
	return n, nil
}

// Count returns how many requests match the query filters.
func (r *ResetRequestRepository) Count(ctx context.Context, q models.RequestQuery) (int, error) {
	where, args := requestConditions(q)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reset_requests`+where, args...); err != nil {
		return 0, fmt.Errorf("count reset requests: %w", err)
	}
	return total, nil
}

// List returns one page of matching requests, newest first.
func (r *ResetRequestRepository) List(ctx context.Context, q models.RequestQuery) ([]models.ResetRequest, error) {
	where, args := requestConditions(q)
	limit := q.Limit
	if limit <= 0 {
		limit = models.RequestPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM reset_requests%s ORDER BY submitted_at DESC, id DESC LIMIT %d OFFSET %d`, resetRequestColumns, where, limit, offset)
	var items []models.ResetRequest
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	return items, nil
}

func requestConditions(q models.RequestQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if search := strings.TrimSpace(q.Search); search != "" {
		args = append(args, containsPattern(search))
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR department ILIKE $%d OR email ILIKE $%d OR reference_code ILIKE $%d)", n, n, n, n))
	}

	if q.Day > 0 || q.Month > 0 || q.Year > 0 {
		tz := q.TimeZone
		if tz == "" {
			tz = "UTC"
		}
		args = append(args, tz)
		local := fmt.Sprintf("(submitted_at AT TIME ZONE $%d)", len(args))
		parts := []struct {
			field string
			value int
		}{{"DAY", q.Day}, {"MONTH", q.Month}, {"YEAR", q.Year}}
		for _, part := range parts {
			if part.value <= 0 {
				continue
			}
			args = append(args, part.value)
			conditions = append(conditions, fmt.Sprintf("EXTRACT(%s FROM %s) = $%d", part.field, local, len(args)))
		}
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var requestCols = []string{"id", "full_name", "department", "email", "uploaded_file", "submitted_at", "processed", "reference_code"}

func TestResetRequestCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO reset_requests").
		WithArgs("Jane Doe", "Finance", "jane@example.com", "uploads/form_ab12.pdf", false, "ABCDEF123456").
		WillReturnRows(sqlmock.NewRows([]string{"id", "submitted_at"}).AddRow(7, now))

	req := &models.ResetRequest{FullName: "Jane Doe", Department: "Finance", Email: "jane@example.com", UploadedFile: "uploads/form_ab12.pdf", ReferenceCode: "ABCDEF123456"}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.Equal(t, int64(7), req.ID)
	assert.Equal(t, now, req.SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRequestCreateDuplicateReference(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	mock.ExpectQuery("INSERT INTO reset_requests").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reset_requests_reference_code_key"})

	err := repo.Create(context.Background(), &models.ResetRequest{ReferenceCode: "ABCDEF123456"})
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestResetRequestFindByReferenceMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reset_requests WHERE reference_code = $1")).
		WithArgs("NOPE00000000").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByReference(context.Background(), "NOPE00000000")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRequestListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	now := time.Now()
	query := models.RequestQuery{Search: "fin_", Month: 3, Year: 2024, TimeZone: "Africa/Nairobi", Limit: 15, Offset: 15}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, full_name, department, email, uploaded_file, submitted_at, processed, reference_code FROM reset_requests WHERE (full_name ILIKE $1 OR department ILIKE $1 OR email ILIKE $1 OR reference_code ILIKE $1) AND EXTRACT(MONTH FROM (submitted_at AT TIME ZONE $2)) = $3 AND EXTRACT(YEAR FROM (submitted_at AT TIME ZONE $2)) = $4 ORDER BY submitted_at DESC, id DESC LIMIT 15 OFFSET 15`)).
		WithArgs(`%fin\_%`, "Africa/Nairobi", 3, 2024).
		WillReturnRows(sqlmock.NewRows(requestCols).AddRow(1, "Jane", "Finance", "j@example.com", "uploads/a.pdf", now, false, "ABCDEF123456"))

	items, err := repo.List(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ABCDEF123456", items[0].ReferenceCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRequestCountWithoutFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reset_requests")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(31))

	total, err := repo.Count(context.Background(), models.RequestQuery{})
	require.NoError(t, err)
	assert.Equal(t, 31, total)
}

func TestResetRequestDeleteManyUsesArray(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reset_requests WHERE id = ANY($1)")).
		WithArgs(pq.Array([]int64{1, 2, 3})).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteMany(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRequestSetProcessedMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResetRequestRepository(db)

	mock.ExpectExec("UPDATE reset_requests SET processed").
		WithArgs(int64(9), true).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetProcessed(context.Background(), 9, true)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

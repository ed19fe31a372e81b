package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

type lifecycleFixture struct {
	svc      *LifecycleService
	requests *memRequestRepo
	messages *memMessageRepo
	audit    *memAuditRepo
	storage  *memStorage
	limiter  *stubLimiter
	notifier *recordingNotifier
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		requests: newMemRequestRepo(),
		messages: &memMessageRepo{},
		audit:    &memAuditRepo{},
		storage:  newMemStorage(),
		limiter:  &stubLimiter{allowed: true},
		notifier: &recordingNotifier{},
	}
	f.svc = NewLifecycleService(LifecycleDeps{
		Requests: NewRequestService(f.requests, nil, ""),
		Messages: NewMessageService(f.messages),
		Audit:    NewAuditService(f.audit, nil, ""),
		Limiter:  f.limiter,
		Notifier: f.notifier,
		Storage:  f.storage,
		Metrics:  NewMetricsService(),
	})
	return f
}

var staff = &models.StaffPrincipal{ID: 1, Username: "alice"}

func janeDoe() models.SubmitRequest {
	return models.SubmitRequest{FullName: "Jane Doe", Department: "Finance", Email: "jane@example.com"}
}

func (f *lifecycleFixture) submit(t *testing.T) *models.ResetRequest {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), janeDoe(), pdfUpload(), "10.0.0.1")
	require.NoError(t, err)
	return req
}

func TestSubmitThenTrack(t *testing.T) {
	f := newLifecycleFixture()

	req := f.submit(t)
	assert.Regexp(t, referencePattern, req.ReferenceCode)
	assert.False(t, req.Processed)
	assert.True(t, strings.HasPrefix(req.UploadedFile, "uploads/reset_form_"))
	assert.Contains(t, f.storage.files, req.UploadedFile)
	assert.Equal(t, []string{req.ReferenceCode}, f.notifier.submitted)

	detail, err := f.svc.Track(context.Background(), strings.ToLower(req.ReferenceCode))
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, detail.Status)
	assert.Empty(t, detail.Messages)
}

func TestSubmitProceedsWhenLimiterStoreIsDown(t *testing.T) {
	f := newLifecycleFixture()
	f.limiter.err = errors.New("redis: connection refused")

	req := f.submit(t)
	assert.Equal(t, 1, f.limiter.calls)
	assert.Contains(t, f.storage.files, req.UploadedFile)
}

func TestSubmitRateLimitedStoresNothing(t *testing.T) {
	f := newLifecycleFixture()
	f.limiter.allowed = false

	_, err := f.svc.Submit(context.Background(), janeDoe(), pdfUpload(), "10.0.0.1")
	assert.True(t, appErrors.Is(err, appErrors.ErrRateLimited))
	assert.Empty(t, f.requests.items)
	assert.Empty(t, f.storage.files)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := newLifecycleFixture()

	bad := janeDoe()
	bad.Email = "not-an-email"
	_, err := f.svc.Submit(context.Background(), bad, pdfUpload(), "10.0.0.1")
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Contains(t, err.Error(), "email")

	oversized := pdfUpload()
	oversized.Size = 5*1024*1024 + 1
	_, err = f.svc.Submit(context.Background(), janeDoe(), oversized, "10.0.0.1")
	assert.True(t, appErrors.Is(err, appErrors.ErrUploadRejected))

	exe := Upload{Filename: "setup.exe", Size: 4, ContentType: "application/octet-stream", Content: bytes.NewReader([]byte("MZ\x90\x00"))}
	_, err = f.svc.Submit(context.Background(), janeDoe(), exe, "10.0.0.1")
	assert.True(t, appErrors.Is(err, appErrors.ErrUploadRejected))

	assert.Empty(t, f.requests.items)
	assert.Empty(t, f.storage.files)
}

func TestSubmitRemovesFileWhenInsertFails(t *testing.T) {
	f := newLifecycleFixture()
	f.requests.createErr = errors.New("db down")

	_, err := f.svc.Submit(context.Background(), janeDoe(), pdfUpload(), "10.0.0.1")
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, f.storage.files)
	assert.Len(t, f.storage.deleted, 1)
	assert.Empty(t, f.notifier.submitted)
}

func TestUserAndStaffMessages(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.PostUserMessage(ctx, req.ReferenceCode, "Any update?")
	require.NoError(t, err)
	long := strings.Repeat("é", 130)
	_, err = f.svc.Reply(ctx, staff, req.ReferenceCode, long, "10.0.0.2")
	require.NoError(t, err)

	detail, err := f.svc.Track(ctx, req.ReferenceCode)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, models.SenderUser, detail.Messages[0].Sender)
	assert.Equal(t, models.SenderAdmin, detail.Messages[1].Sender)

	replies := f.audit.byAction(models.AuditActionSendReply)
	require.Len(t, replies, 1)
	assert.Equal(t, 120, len([]rune(replies[0].Detail)))
	assert.Equal(t, req.ReferenceCode, *replies[0].RefCode)

	_, err = f.svc.PostUserMessage(ctx, "UNKNOWN00000", "hello")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestViewRequestIsAudited(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)

	_, err := f.svc.ViewRequest(context.Background(), staff, req.ReferenceCode, "10.0.0.2")
	require.NoError(t, err)
	_, err = f.svc.ViewRequest(context.Background(), staff, req.ReferenceCode, "10.0.0.2")
	require.NoError(t, err)
	assert.Len(t, f.audit.byAction(models.AuditActionViewRequest), 2)
}

func TestMarkProcessedThenPending(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)
	ctx := context.Background()

	updated, err := f.svc.MarkProcessed(ctx, staff, req.ID, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, updated.Processed)

	updated, err = f.svc.MarkPending(ctx, staff, req.ID, "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, updated.Processed)

	stored, err := f.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, stored.Processed)
	assert.Len(t, f.audit.byAction(models.AuditActionMarkProcessed), 1)
	assert.Len(t, f.audit.byAction(models.AuditActionMarkPending), 1)
	assert.Equal(t, []string{req.ReferenceCode}, f.notifier.processed)
}

func TestMarkProcessedTwiceNotifiesOnce(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)

	_, err := f.svc.MarkProcessed(context.Background(), staff, req.ID, "")
	require.NoError(t, err)
	_, err = f.svc.MarkProcessed(context.Background(), staff, req.ID, "")
	require.NoError(t, err)

	assert.Len(t, f.notifier.processed, 1)
	assert.Len(t, f.audit.byAction(models.AuditActionMarkProcessed), 2)
}

func TestDeleteKeepsLedgerReference(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)
	ctx := context.Background()
	_, err := f.svc.ViewRequest(ctx, staff, req.ReferenceCode, "10.0.0.2")
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, staff, req.ID, "10.0.0.2")
	require.NoError(t, err)

	_, err = f.requests.FindByID(ctx, req.ID)
	assert.Error(t, err)
	assert.NotContains(t, f.storage.files, req.UploadedFile)

	views := f.audit.byAction(models.AuditActionViewRequest)
	require.Len(t, views, 1)
	assert.Equal(t, req.ReferenceCode, *views[0].RefCode)
	deletes := f.audit.byAction(models.AuditActionDeleteRequest)
	require.Len(t, deletes, 1)
	assert.Contains(t, deletes[0].Detail, "jane@example.com")

	_, err = f.svc.Delete(ctx, staff, req.ID, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDeleteIgnoresFileErrors(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)
	f.storage.deleteErr = errors.New("permission denied")

	_, err := f.svc.Delete(context.Background(), staff, req.ID, "")
	require.NoError(t, err)
	assert.Empty(t, f.requests.items)
}

func TestBulkDeleteWritesOneEntry(t *testing.T) {
	f := newLifecycleFixture()
	ctx := context.Background()
	var ids []int64
	var codes []string
	for i := 0; i < 3; i++ {
		req := f.submit(t)
		ids = append(ids, req.ID)
		codes = append(codes, req.ReferenceCode)
	}
	keep := f.submit(t)

	deleted, err := f.svc.BulkDelete(ctx, staff, append(ids, 999), "10.0.0.2")
	require.NoError(t, err)
	assert.ElementsMatch(t, codes, deleted)

	entries := f.audit.byAction(models.AuditActionBulkDelete)
	require.Len(t, entries, 1)
	for _, code := range codes {
		assert.Contains(t, entries[0].Detail, code)
	}
	assert.Nil(t, entries[0].RefCode)

	page, err := f.svc.Dashboard(ctx, staff, models.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, keep.ReferenceCode, page.Items[0].ReferenceCode)
	assert.Len(t, f.storage.files, 1)
}

func TestBulkDeleteEmptySelection(t *testing.T) {
	f := newLifecycleFixture()

	_, err := f.svc.BulkDelete(context.Background(), staff, nil, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.BulkDelete(context.Background(), staff, []int64{42}, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.audit.entries)
}

func TestStaffOperationsRequirePrincipal(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)
	ctx := context.Background()

	_, err := f.svc.ViewRequest(ctx, nil, req.ReferenceCode, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	_, err = f.svc.MarkProcessed(ctx, nil, req.ID, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	_, err = f.svc.Delete(ctx, nil, req.ID, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	_, err = f.svc.Dashboard(ctx, nil, models.RequestFilter{})
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	assert.Empty(t, f.audit.entries)
}

func TestDocumentAccess(t *testing.T) {
	f := newLifecycleFixture()
	req := f.submit(t)
	other := f.submit(t)
	ctx := context.Background()
	filename := req.FileName()

	name, err := f.svc.Document(ctx, filename, req.ReferenceCode, false)
	require.NoError(t, err)
	assert.Equal(t, req.UploadedFile, name)

	_, err = f.svc.Document(ctx, filename, "", false)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Document(ctx, filename, other.ReferenceCode, false)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	name, err = f.svc.Document(ctx, filename, "", true)
	require.NoError(t, err)
	assert.Equal(t, req.UploadedFile, name)

	_, err = f.svc.Document(ctx, "../secret.pdf", "", true)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.svc.Document(ctx, "missing.pdf", "", true)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

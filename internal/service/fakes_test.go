package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	"github.com/noah-isme/ifmis-helpdesk/internal/repository"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

type memRequestRepo struct {
	mu        sync.Mutex
	nextID    int64
	items     map[int64]models.ResetRequest
	createErr error
	lastQuery models.RequestQuery
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{items: make(map[int64]models.ResetRequest)}
}

func (m *memRequestRepo) Create(ctx context.Context, req *models.ResetRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.items {
		if existing.ReferenceCode == req.ReferenceCode {
			return repository.ErrDuplicateReference
		}
	}
	m.nextID++
	req.ID = m.nextID
	req.SubmittedAt = time.Now().Add(time.Duration(m.nextID) * time.Second)
	m.items[req.ID] = *req
	return nil
}

func (m *memRequestRepo) FindByID(ctx context.Context, id int64) (*models.ResetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (m *memRequestRepo) FindByReference(ctx context.Context, code string) (*models.ResetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ReferenceCode == code {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memRequestRepo) FindByIDs(ctx context.Context, ids []int64) ([]models.ResetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ResetRequest
	for _, id := range ids {
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memRequestRepo) SetProcessed(ctx context.Context, id int64, processed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.Processed = processed
	m.items[id] = item
	return nil
}

func (m *memRequestRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *memRequestRepo) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

func (m *memRequestRepo) Count(ctx context.Context, q models.RequestQuery) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	return len(m.items), nil
}

func (m *memRequestRepo) List(ctx context.Context, q models.RequestQuery) ([]models.ResetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	all := make([]models.ResetRequest, 0, len(m.items))
	for _, item := range m.items {
		all = append(all, item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SubmittedAt.After(all[j].SubmittedAt) })
	if q.Offset >= len(all) {
		return []models.ResetRequest{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset:end], nil
}

type memMessageRepo struct {
	nextID   int64
	messages []models.Message
}

func (m *memMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	m.nextID++
	msg.ID = m.nextID
	msg.Timestamp = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memMessageRepo) ListByRequest(ctx context.Context, requestID int64) ([]models.Message, error) {
	out := []models.Message{}
	for _, msg := range m.messages {
		if msg.RequestID == requestID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type memAuditRepo struct {
	nextID    int64
	entries   []models.AuditLogEntry
	lastQuery models.AuditQuery
	createErr error
}

func (m *memAuditRepo) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID != 0 {
		return appErrors.ErrImmutable
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	entry.ID = m.nextID
	entry.Timestamp = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAuditRepo) Update(ctx context.Context, entry *models.AuditLogEntry) error {
	return appErrors.ErrImmutable
}

func (m *memAuditRepo) Delete(ctx context.Context, id int64) error {
	return appErrors.ErrImmutable
}

func (m *memAuditRepo) Count(ctx context.Context, q models.AuditQuery) (int, error) {
	m.lastQuery = q
	return len(m.filter(q)), nil
}

func (m *memAuditRepo) List(ctx context.Context, q models.AuditQuery) ([]models.AuditLogEntry, error) {
	m.lastQuery = q
	return m.filter(q), nil
}

func (m *memAuditRepo) filter(q models.AuditQuery) []models.AuditLogEntry {
	out := []models.AuditLogEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if q.Action != "" && m.entries[i].Action != q.Action {
			continue
		}
		out = append(out, m.entries[i])
	}
	return out
}

func (m *memAuditRepo) byAction(action models.AuditAction) []models.AuditLogEntry {
	return m.filter(models.AuditQuery{Action: action})
}

type memStorage struct {
	files     map[string][]byte
	deleteErr error
	deleted   []string
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) SaveStream(name string, r io.Reader) (string, error) {
	if _, exists := m.files[name]; exists {
		return "", errors.New("file exists")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.files[name] = data
	return name, nil
}

func (m *memStorage) Exists(name string) bool {
	_, ok := m.files[name]
	return ok
}

func (m *memStorage) Delete(name string) error {
	m.deleted = append(m.deleted, name)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.files, name)
	return nil
}

type stubLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (s *stubLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	s.calls++
	return s.allowed, s.err
}

type recordingNotifier struct {
	submitted []string
	processed []string
}

func (n *recordingNotifier) RequestSubmitted(ctx context.Context, req *models.ResetRequest) {
	n.submitted = append(n.submitted, req.ReferenceCode)
}

func (n *recordingNotifier) RequestProcessed(ctx context.Context, req *models.ResetRequest) {
	n.processed = append(n.processed, req.ReferenceCode)
}

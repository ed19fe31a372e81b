package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

type mockStaffRepo struct {
	users            map[string]*models.StaffUser
	groups           map[int64]map[string]bool
	memberErr        error
	lastLoginUpdated bool
	nextID           int64
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{users: map[string]*models.StaffUser{}, groups: map[int64]map[string]bool{}}
}

func (m *mockStaffRepo) add(t *testing.T, username, password string, active bool, groups ...string) *models.StaffUser {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	m.nextID++
	user := &models.StaffUser{ID: m.nextID, Username: username, PasswordHash: string(hash), IsActive: active}
	m.users[username] = user
	for _, g := range groups {
		require.NoError(t, m.AddToGroup(context.Background(), user.ID, g))
	}
	return user
}

func (m *mockStaffRepo) FindByUsername(ctx context.Context, username string) (*models.StaffUser, error) {
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) Create(ctx context.Context, user *models.StaffUser) error {
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.Username] = user
	return nil
}

func (m *mockStaffRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockStaffRepo) IsMember(ctx context.Context, userID int64, group string) (bool, error) {
	if m.memberErr != nil {
		return false, m.memberErr
	}
	return m.groups[userID][group], nil
}

func (m *mockStaffRepo) AddToGroup(ctx context.Context, userID int64, group string) error {
	if m.groups[userID] == nil {
		m.groups[userID] = map[string]bool{}
	}
	m.groups[userID][group] = true
	return nil
}

func (m *mockStaffRepo) RemoveFromGroup(ctx context.Context, userID int64, group string) error {
	delete(m.groups[userID], group)
	return nil
}

func newTestAuthService(repo *mockStaffRepo, audit *memAuditRepo) *AuthService {
	return NewAuthService(repo, NewAuditService(audit, nil, ""), nil, nil, AuthConfig{Secret: "secret", Expiration: time.Hour, Issuer: "test"})
}

func TestLoginAdminIsAudited(t *testing.T) {
	repo := newMockStaffRepo()
	repo.add(t, "alice", "correct-horse", true, models.DefaultAdminGroup)
	audit := &memAuditRepo{}
	svc := newTestAuthService(repo, audit)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct-horse", Next: "/staff/audit/", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "/staff/audit/", resp.Next)
	assert.True(t, repo.lastLoginUpdated)

	logins := audit.byAction(models.AuditActionLogin)
	require.Len(t, logins, 1)
	assert.Equal(t, "10.0.0.1", *logins[0].IPAddress)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, resp.User.ID, claims.UserID)
}

func TestLoginNonAdminNotAudited(t *testing.T) {
	repo := newMockStaffRepo()
	repo.add(t, "bob", "password1", true)
	audit := &memAuditRepo{}
	svc := newTestAuthService(repo, audit)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "bob", Password: "password1"})
	require.NoError(t, err)
	assert.Empty(t, audit.entries)

	svc.Logout(context.Background(), &models.StaffPrincipal{ID: 1, Username: "bob"}, "")
	assert.Empty(t, audit.entries)
}

func TestLoginFailures(t *testing.T) {
	repo := newMockStaffRepo()
	repo.add(t, "alice", "correct-horse", true, models.DefaultAdminGroup)
	repo.add(t, "carol", "password1", false, models.DefaultAdminGroup)
	svc := newTestAuthService(repo, &memAuditRepo{})
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Username: "alice", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, models.LoginRequest{Username: "nobody", Password: "wrong"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(ctx, models.LoginRequest{Username: "carol", Password: "password1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInactiveAccount))

	_, err = svc.Login(ctx, models.LoginRequest{Username: "", Password: ""})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newMockStaffRepo()
	repo.add(t, "alice", "correct-horse", true)
	issuer := NewAuthService(repo, nil, nil, nil, AuthConfig{Secret: "other"})
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Username: "alice", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = newTestAuthService(repo, &memAuditRepo{}).ValidateToken(resp.Token)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestLogoutAuditsAdmin(t *testing.T) {
	repo := newMockStaffRepo()
	user := repo.add(t, "alice", "correct-horse", true, models.DefaultAdminGroup)
	audit := &memAuditRepo{}
	svc := newTestAuthService(repo, audit)

	svc.Logout(context.Background(), &models.StaffPrincipal{ID: user.ID, Username: user.Username}, "10.0.0.1")
	assert.Len(t, audit.byAction(models.AuditActionLogout), 1)
}

func TestAdminGuardDeniesOnLookupError(t *testing.T) {
	repo := newMockStaffRepo()
	user := repo.add(t, "alice", "correct-horse", true, models.DefaultAdminGroup)
	guard := NewAdminGuard(repo, nil, "")
	principal := &models.StaffPrincipal{ID: user.ID}

	assert.True(t, guard.IsAdmin(context.Background(), principal))
	assert.False(t, guard.IsAdmin(context.Background(), nil))

	repo.memberErr = errors.New("db down")
	assert.False(t, guard.IsAdmin(context.Background(), principal))
}

func TestCreateAccountAndGrant(t *testing.T) {
	repo := newMockStaffRepo()
	svc := newTestAuthService(repo, &memAuditRepo{})
	ctx := context.Background()

	user, err := svc.CreateAccount(ctx, " dave ", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "dave", user.Username)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))

	require.NoError(t, svc.SetGroupMembership(ctx, "dave", "", true))
	assert.True(t, svc.Guard().IsAdmin(ctx, &models.StaffPrincipal{ID: user.ID}))
	require.NoError(t, svc.SetGroupMembership(ctx, "dave", "", false))
	assert.False(t, svc.Guard().IsAdmin(ctx, &models.StaffPrincipal{ID: user.ID}))

	_, err = svc.CreateAccount(ctx, "eve", "short")
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	err = svc.SetGroupMembership(ctx, "ghost", "", true)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/staff/request/ABC/", SafeNext("/staff/request/ABC/"))
	for _, bad := range []string{"", "https://evil.example", "//evil.example", "staff", "/\\evil"} {
		assert.Equal(t, DefaultLoginRedirect, SafeNext(bad), bad)
	}
}

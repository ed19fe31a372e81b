package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

// DefaultLoginRedirect is where a signed-in staff member lands without a next parameter.
const DefaultLoginRedirect = "/staff/dashboard/"

type staffAccounts interface {
	FindByUsername(ctx context.Context, username string) (*models.StaffUser, error)
	Create(ctx context.Context, user *models.StaffUser) error
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
	IsMember(ctx context.Context, userID int64, group string) (bool, error)
	AddToGroup(ctx context.Context, userID int64, group string) error
	RemoveFromGroup(ctx context.Context, userID int64, group string) error
}

type authAudit interface {
	Append(ctx context.Context, admin *models.StaffPrincipal, action models.AuditAction, refCode *string, detail, ip string) (*models.AuditLogEntry, error)
}

// AuthConfig defines configuration for staff sessions.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
	AdminGroup string
}

// AuthService signs staff in and out and issues session tokens.
type AuthService struct {
	repo      staffAccounts
	audit     authAudit
	guard     *AdminGuard
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo staffAccounts, audit authAudit, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 12 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		audit:     audit,
		guard:     NewAdminGuard(repo, logger, config.AdminGroup),
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// Guard exposes the admin-group predicate used by the HTTP layer.
func (s *AuthService) Guard() *AdminGuard {
	return s.guard
}

// Login checks credentials and returns a signed session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// keep timing comparable with the wrong-password path
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, appErrors.ErrInactiveAccount
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	principal := models.StaffPrincipal{ID: user.ID, Username: user.Username}
	if s.guard.IsAdmin(ctx, &principal) {
		s.emitAudit(ctx, &principal, models.AuditActionLogin, "Logged in as "+user.Username, req.IP)
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      principal,
		Next:      SafeNext(req.Next),
	}, nil
}

// Logout records the sign-out of an admin-group member.
func (s *AuthService) Logout(ctx context.Context, principal *models.StaffPrincipal, ip string) {
	if principal == nil {
		return
	}
	if s.guard.IsAdmin(ctx, principal) {
		s.emitAudit(ctx, principal, models.AuditActionLogout, "Logged out "+principal.Username, ip)
	}
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.StaffClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// CreateAccount registers a staff account with a bcrypt-hashed password.
func (s *AuthService) CreateAccount(ctx context.Context, username, password string) (*models.StaffUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 150 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username must be 1-150 characters")
	}
	if len(password) < 8 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.StaffUser{Username: username, PasswordHash: string(hash), IsActive: true}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create staff account")
	}
	return user, nil
}

// SetGroupMembership grants or revokes a group for the named account.
func (s *AuthService) SetGroupMembership(ctx context.Context, username, group string, member bool) error {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "staff account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if group == "" {
		group = s.guard.Group()
	}
	if member {
		err = s.repo.AddToGroup(ctx, user.ID, group)
	} else {
		err = s.repo.RemoveFromGroup(ctx, user.ID, group)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group membership")
	}
	return nil
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return DefaultLoginRedirect
	}
	return next
}

func (s *AuthService) generateToken(user *models.StaffUser) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.Expiration)
	claims := &models.StaffClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) emitAudit(ctx context.Context, principal *models.StaffPrincipal, action models.AuditAction, detail, ip string) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(ctx, principal, action, nil, detail, ip); err != nil {
		s.logger.Error("failed to record auth audit log", zap.String("action", string(action)), zap.Error(err))
	}
}

// dummyHash is compared against when the username does not exist.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ifmis-helpdesk-placeholder"), bcrypt.MinCost)

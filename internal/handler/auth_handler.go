package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/noah-isme/ifmis-helpdesk/internal/middleware"
	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	"github.com/noah-isme/ifmis-helpdesk/internal/service"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
	"github.com/noah-isme/ifmis-helpdesk/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, principal *models.StaffPrincipal, ip string)
}

// SessionCookie describes the cookie carrying the staff session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

// AuthHandler wires the staff login boundary to the auth service.
type AuthHandler struct {
	service authService
	cookie  SessionCookie
	now     func() time.Time
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie SessionCookie) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "staff_session"
	}
	return &AuthHandler{service: svc, cookie: cookie, now: time.Now}
}

// LoginForm godoc
// @Summary Describe the staff login form
// @Tags Authentication
// @Produce json
// @Param next query string false "Path to return to after login"
// @Success 200 {object} response.Envelope
// @Router /staff/login/ [get]
func (h *AuthHandler) LoginForm(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"fields": []string{"username", "password"},
		"next":   service.SafeNext(c.Query("next")),
	}, nil)
}

// Login godoc
// @Summary Authenticate staff
// @Description Sets the session cookie. Form posts are redirected to next, JSON posts receive the token.
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Success 303
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /staff/login/ [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	if req.Next == "" {
		req.Next = c.Query("next")
	}
	req.IP = c.ClientIP()

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	maxAge := int(res.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, res.Token, maxAge, "/", "", h.cookie.Secure, true)

	if c.ContentType() == binding.MIMEJSON {
		response.JSON(c, http.StatusOK, res, nil)
		return
	}
	response.Redirect(c, res.Next)
}

// Logout godoc
// @Summary End the staff session
// @Tags Authentication
// @Success 302
// @Router /staff/logout/ [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context(), staffFromContext(c), c.ClientIP())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

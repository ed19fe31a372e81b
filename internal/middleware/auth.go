package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

// ContextStaffKey is the gin context key storing the authenticated staff principal.
const ContextStaffKey = "currentStaff"

// LoginPath is where unauthenticated staff are sent.
const LoginPath = "/staff/login/"

type tokenValidator interface {
	ValidateToken(token string) (*models.StaffClaims, error)
}

// RequireStaff redirects to the login page unless the request carries a valid session.
func RequireStaff(auth tokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := authenticate(c, auth, cookieName)
		if principal == nil {
			redirectToLogin(c)
			return
		}
		c.Set(ContextStaffKey, principal)
		c.Next()
	}
}

// OptionalStaff attaches the principal when a valid session is present but does not block.
func OptionalStaff(auth tokenValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if principal := authenticate(c, auth, cookieName); principal != nil {
			c.Set(ContextStaffKey, principal)
		}
		c.Next()
	}
}

// CurrentStaff returns the principal set by RequireStaff or OptionalStaff.
func CurrentStaff(c *gin.Context) *models.StaffPrincipal {
	value, exists := c.Get(ContextStaffKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*models.StaffPrincipal)
	return principal
}

// LoginRedirect builds the login URL that returns to next afterwards.
func LoginRedirect(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.RequestURI()))
	c.Abort()
}

func authenticate(c *gin.Context, auth tokenValidator, cookieName string) *models.StaffPrincipal {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" && cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil {
			token = cookie
		}
	}
	if token == "" || auth == nil {
		return nil
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil
	}
	return &models.StaffPrincipal{ID: claims.UserID, Username: claims.Username}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

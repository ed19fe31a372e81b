package router

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/ifmis-helpdesk/internal/handler"
	"github.com/noah-isme/ifmis-helpdesk/internal/middleware"
	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	"github.com/noah-isme/ifmis-helpdesk/internal/service"
	"github.com/noah-isme/ifmis-helpdesk/pkg/config"
	"github.com/noah-isme/ifmis-helpdesk/pkg/logger"
	reqidmiddleware "github.com/noah-isme/ifmis-helpdesk/pkg/middleware/requestid"
)

type sessionValidator interface {
	ValidateToken(token string) (*models.StaffClaims, error)
}

type adminGuard interface {
	IsAdmin(ctx context.Context, principal *models.StaffPrincipal) bool
}

// Options carries everything the HTTP surface needs.
type Options struct {
	Env            string
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Sessions       sessionValidator
	Guard          adminGuard
	CookieName     string
	MaxUploadBytes int64
	// TrustedProxies are the peers allowed to set X-Forwarded-For; the rate limiter keys on ClientIP.
	TrustedProxies []string

	Public        *handler.PublicHandler
	Staff         *handler.StaffHandler
	Auth          *handler.AuthHandler
	Observability *handler.MetricsHandler
}

// New builds the gin engine with every public and staff route registered.
func New(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Logger.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", opts.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes + 1<<20
	}
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(opts.Metrics, "/health", "/ready", "/metrics"))

	if h := opts.Observability; h != nil {
		r.GET("/health", h.Health)
		r.GET("/ready", h.Ready)
		r.GET("/metrics", h.Prometheus)
	}
	if opts.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	optional := middleware.OptionalStaff(opts.Sessions, opts.CookieName)

	if h := opts.Public; h != nil {
		r.GET("/", h.SubmitForm)
		r.POST("/", h.Submit)
		r.GET("/track/", h.Track)
		r.POST("/track/", h.PostMessage)
		r.GET("/uploads/:filename", optional, h.Document)
	}

	if h := opts.Auth; h != nil {
		r.GET("/staff/login/", h.LoginForm)
		r.POST("/staff/login/", h.Login)
		r.POST("/staff/logout/", optional, h.Logout)
	}

	if h := opts.Staff; h != nil {
		staff := r.Group("/staff")
		staff.Use(middleware.RequireStaff(opts.Sessions, opts.CookieName), middleware.RequireAdmin(opts.Guard))
		staff.GET("/dashboard/", h.Dashboard)
		staff.GET("/request/:ref_code/", h.RequestDetail)
		staff.POST("/request/:ref_code/", h.RequestAction)
		staff.POST("/process/:id/", h.Process)
		staff.GET("/delete/:id/", h.ConfirmDelete)
		staff.POST("/delete/:id/", h.Delete)
		staff.POST("/bulk-delete/", h.BulkDelete)
		staff.GET("/audit/", h.AuditLog)
		staff.GET("/audit/export", h.ExportAuditLog)
	}

	return r
}

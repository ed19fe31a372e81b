package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ifmis-helpdesk/api/swagger"
	"github.com/noah-isme/ifmis-helpdesk/internal/handler"
	"github.com/noah-isme/ifmis-helpdesk/internal/repository"
	"github.com/noah-isme/ifmis-helpdesk/internal/router"
	"github.com/noah-isme/ifmis-helpdesk/internal/service"
	"github.com/noah-isme/ifmis-helpdesk/pkg/cache"
	"github.com/noah-isme/ifmis-helpdesk/pkg/config"
	"github.com/noah-isme/ifmis-helpdesk/pkg/database"
	"github.com/noah-isme/ifmis-helpdesk/pkg/logger"
	"github.com/noah-isme/ifmis-helpdesk/pkg/mailer"
	"github.com/noah-isme/ifmis-helpdesk/pkg/storage"
)

// @title IFMIS Helpdesk API
// @version 1.0.0
// @description Password reset request intake, tracking and staff helpdesk for IFMIS.
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	files, err := storage.NewLocalStorage(cfg.Media.Root)
	if err != nil {
		return err
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	staffRepo := repository.NewStaffUserRepository(db)
	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), logr, cfg.Site.TimeZone)
	authSvc := service.NewAuthService(staffRepo, auditSvc, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
		AdminGroup: cfg.Site.AdminGroup,
	})
	uploads := service.NewUploadValidator(cfg.Media.MaxUploadBytes)
	lifecycle := service.NewLifecycleService(service.LifecycleDeps{
		Requests: service.NewRequestService(repository.NewResetRequestRepository(db), logr, cfg.Site.TimeZone),
		Messages: service.NewMessageService(repository.NewMessageRepository(db)),
		Audit:    auditSvc,
		Limiter: service.NewRateLimiter(repository.NewRateLimitRepository(redisClient), metrics, logr, service.RateLimiterConfig{
			Limit:  cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		Notifier:  service.NewNotificationService(mailer.New(cfg.Mail, logr), metrics, logr, cfg.Site.BaseURL),
		Storage:   files,
		Uploads:   uploads,
		Validator: validate,
		Metrics:   metrics,
		Logger:    logr,
	})

	engine := router.New(router.Options{
		Env:            cfg.Env,
		Logger:         logr,
		Metrics:        metrics,
		Sessions:       authSvc,
		Guard:          authSvc.Guard(),
		CookieName:     cfg.Session.CookieName,
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		TrustedProxies: cfg.TrustedProxies,
		Public:         handler.NewPublicHandler(lifecycle, files, authSvc.Guard(), uploads),
		Staff:          handler.NewStaffHandler(lifecycle),
		Auth: handler.NewAuthHandler(authSvc, handler.SessionCookie{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
		}),
		Observability: handler.NewMetricsHandler(metrics, map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

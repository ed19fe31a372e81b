package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
)

const (
	notifySubmitted = "submitted"
	notifyProcessed = "processed"
)

type mailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService e-mails requesters about their request. Delivery is best-effort.
type NotificationService struct {
	mailer  mailSender
	metrics *MetricsService
	logger  *zap.Logger
	baseURL string
}

// NewNotificationService constructs the notifier. baseURL prefixes tracking links.
func NewNotificationService(mailer mailSender, metrics *MetricsService, logger *zap.Logger, baseURL string) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		mailer:  mailer,
		metrics: metrics,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// TrackingURL returns the public status link for a reference code.
func (n *NotificationService) TrackingURL(code string) string {
	return n.baseURL + "/track/?ref=" + url.QueryEscape(code)
}

// RequestSubmitted confirms receipt and hands out the reference code.
func (n *NotificationService) RequestSubmitted(ctx context.Context, req *models.ResetRequest) {
	body := fmt.Sprintf(`Dear %s,

We have received your IFMIS password reset request.

Reference code: %s

Keep this code. You can follow the status of your request and message the
helpdesk at:

%s

IFMIS Helpdesk
`, req.FullName, req.ReferenceCode, n.TrackingURL(req.ReferenceCode))
	n.deliver(ctx, notifySubmitted, req, "IFMIS password reset request received", body)
}

// RequestProcessed tells the requester their reset has been handled.
func (n *NotificationService) RequestProcessed(ctx context.Context, req *models.ResetRequest) {
	body := fmt.Sprintf(`Dear %s,

Your IFMIS password reset request %s has been processed.

If you have any questions, reply through the tracking page:

%s

IFMIS Helpdesk
`, req.FullName, req.ReferenceCode, n.TrackingURL(req.ReferenceCode))
	n.deliver(ctx, notifyProcessed, req, "IFMIS password reset request processed", body)
}

func (n *NotificationService) deliver(ctx context.Context, kind string, req *models.ResetRequest, subject, body string) {
	if n == nil || n.mailer == nil {
		return
	}
	if err := n.mailer.Send(ctx, req.Email, subject, body); err != nil {
		n.logger.Warn("notification not delivered",
			zap.String("kind", kind),
			zap.String("reference_code", req.ReferenceCode),
			zap.Error(err))
		n.metrics.RecordNotification(kind, false)
		return
	}
	n.metrics.RecordNotification(kind, true)
}

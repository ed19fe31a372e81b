package handler

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	"github.com/noah-isme/ifmis-helpdesk/internal/service"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
	"github.com/noah-isme/ifmis-helpdesk/pkg/response"
)

// Detail view form actions.
const (
	actionReply         = "reply"
	actionMarkProcessed = "mark_processed"
	actionMarkPending   = "mark_pending"
	actionDelete        = "delete"
)

type staffService interface {
	Dashboard(ctx context.Context, actor *models.StaffPrincipal, filter models.RequestFilter) (*models.RequestPage, error)
	Lookup(ctx context.Context, actor *models.StaffPrincipal, ref string) (*models.ResetRequest, error)
	ViewRequest(ctx context.Context, actor *models.StaffPrincipal, ref, ip string) (*models.RequestDetail, error)
	Reply(ctx context.Context, actor *models.StaffPrincipal, ref, content, ip string) (*models.Message, error)
	MarkProcessed(ctx context.Context, actor *models.StaffPrincipal, id int64, ip string) (*models.ResetRequest, error)
	MarkPending(ctx context.Context, actor *models.StaffPrincipal, id int64, ip string) (*models.ResetRequest, error)
	DeleteCandidate(ctx context.Context, actor *models.StaffPrincipal, id int64) (*models.ResetRequest, error)
	Delete(ctx context.Context, actor *models.StaffPrincipal, id int64, ip string) (*models.ResetRequest, error)
	BulkDelete(ctx context.Context, actor *models.StaffPrincipal, ids []int64, ip string) ([]string, error)
	AuditLog(ctx context.Context, actor *models.StaffPrincipal, filter models.AuditFilter) (*models.AuditPage, error)
	ExportAuditLog(ctx context.Context, actor *models.StaffPrincipal, filter models.AuditFilter, format service.ExportFormat) (*service.AuditExport, error)
}

// StaffHandler serves the admin-only request management endpoints.
type StaffHandler struct {
	service staffService
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(svc staffService) *StaffHandler {
	return &StaffHandler{service: svc}
}

// Dashboard godoc
// @Summary List reset requests
// @Tags Staff
// @Produce json
// @Param q query string false "Search name, department, email or reference code"
// @Param day query int false "Day of month"
// @Param month query int false "Month"
// @Param year query int false "Four-digit year"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /staff/dashboard/ [get]
func (h *StaffHandler) Dashboard(c *gin.Context) {
	filter := models.RequestFilter{
		Query: c.Query("q"),
		Day:   c.Query("day"),
		Month: c.Query("month"),
		Year:  c.Query("year"),
		Page:  pageQuery(c),
	}
	page, err := h.service.Dashboard(c.Request.Context(), staffFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination)
}

// RequestDetail godoc
// @Summary Show a request with its thread
// @Tags Staff
// @Produce json
// @Param ref_code path string true "Reference code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/request/{ref_code}/ [get]
func (h *StaffHandler) RequestDetail(c *gin.Context) {
	detail, err := h.service.ViewRequest(c.Request.Context(), staffFromContext(c), c.Param("ref_code"), c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// RequestAction godoc
// @Summary Act on a request
// @Tags Staff
// @Accept x-www-form-urlencoded
// @Param ref_code path string true "Reference code"
// @Param action formData string true "reply, mark_processed, mark_pending or delete"
// @Param content formData string false "Reply text"
// @Success 303
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/request/{ref_code}/ [post]
func (h *StaffHandler) RequestAction(c *gin.Context) {
	ctx := c.Request.Context()
	actor := staffFromContext(c)
	ip := c.ClientIP()

	req, err := h.service.Lookup(ctx, actor, c.Param("ref_code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch action := strings.TrimSpace(c.PostForm("action")); action {
	case actionReply:
		_, err = h.service.Reply(ctx, actor, req.ReferenceCode, c.PostForm("content"), ip)
		if err == nil {
			response.Redirect(c, requestDetailPath(req.ReferenceCode))
			return
		}
	case actionMarkProcessed:
		_, err = h.service.MarkProcessed(ctx, actor, req.ID, ip)
		if err == nil {
			response.Redirect(c, dashboardPath)
			return
		}
	case actionMarkPending:
		_, err = h.service.MarkPending(ctx, actor, req.ID, ip)
		if err == nil {
			response.Redirect(c, requestDetailPath(req.ReferenceCode))
			return
		}
	case actionDelete:
		_, err = h.service.Delete(ctx, actor, req.ID, ip)
		if err == nil {
			response.Redirect(c, dashboardPath)
			return
		}
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "unknown action "+strconv.Quote(action))
	}
	response.Error(c, err)
}

// Process godoc
// @Summary Mark a request processed from the listing
// @Tags Staff
// @Param id path int true "Request ID"
// @Success 303
// @Failure 404 {object} response.Envelope
// @Router /staff/process/{id}/ [post]
func (h *StaffHandler) Process(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.service.MarkProcessed(c.Request.Context(), staffFromContext(c), id, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}
	response.Redirect(c, dashboardPath)
}

// ConfirmDelete godoc
// @Summary Show the request a delete would remove
// @Tags Staff
// @Produce json
// @Param id path int true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /staff/delete/{id}/ [get]
func (h *StaffHandler) ConfirmDelete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.service.DeleteCandidate(c.Request.Context(), staffFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, req, nil)
}

// Delete godoc
// @Summary Delete a request
// @Tags Staff
// @Param id path int true "Request ID"
// @Success 303
// @Failure 404 {object} response.Envelope
// @Router /staff/delete/{id}/ [post]
func (h *StaffHandler) Delete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if _, err := h.service.Delete(c.Request.Context(), staffFromContext(c), id, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}
	response.Redirect(c, dashboardPath)
}

// BulkDelete godoc
// @Summary Delete several requests
// @Tags Staff
// @Accept x-www-form-urlencoded
// @Param selected_ids formData []int true "Request IDs" collectionFormat(multi)
// @Success 303
// @Failure 400 {object} response.Envelope
// @Router /staff/bulk-delete/ [post]
func (h *StaffHandler) BulkDelete(c *gin.Context) {
	raw := c.PostFormArray("selected_ids")
	ids := make([]int64, 0, len(raw))
	for _, value := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "selected_ids must contain request ids"))
			return
		}
		ids = append(ids, id)
	}
	if _, err := h.service.BulkDelete(c.Request.Context(), staffFromContext(c), ids, c.ClientIP()); err != nil {
		response.Error(c, err)
		return
	}
	response.Redirect(c, dashboardPath)
}

// AuditLog godoc
// @Summary List audit log entries
// @Tags Staff
// @Produce json
// @Param admin query string false "Admin username contains"
// @Param action query string false "Action"
// @Param ref query string false "Reference code contains"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /staff/audit/ [get]
func (h *StaffHandler) AuditLog(c *gin.Context) {
	page, err := h.service.AuditLog(c.Request.Context(), staffFromContext(c), auditFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination, map[string]interface{}{"actions": page.Actions})
}

// ExportAuditLog godoc
// @Summary Export audit log entries
// @Tags Staff
// @Produce text/csv,application/pdf
// @Param format query string false "csv or pdf"
// @Param admin query string false "Admin username contains"
// @Param action query string false "Action"
// @Param ref query string false "Reference code contains"
// @Param date query string false "Day (YYYY-MM-DD)"
// @Success 200
// @Failure 400 {object} response.Envelope
// @Router /staff/audit/export [get]
func (h *StaffHandler) ExportAuditLog(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportCSV)))
	export, err := h.service.ExportAuditLog(c.Request.Context(), staffFromContext(c), auditFilter(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, export.ContentType, export.Content)
}

func auditFilter(c *gin.Context) models.AuditFilter {
	return models.AuditFilter{
		Admin:  c.Query("admin"),
		Action: c.Query("action"),
		Ref:    c.Query("ref"),
		Date:   c.Query("date"),
		Page:   pageQuery(c),
	}
}

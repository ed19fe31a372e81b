package handler

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	"github.com/noah-isme/ifmis-helpdesk/internal/service"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
	"github.com/noah-isme/ifmis-helpdesk/pkg/response"
)

type publicService interface {
	Submit(ctx context.Context, form models.SubmitRequest, upload service.Upload, ip string) (*models.ResetRequest, error)
	Track(ctx context.Context, ref string) (*models.RequestDetail, error)
	PostUserMessage(ctx context.Context, ref, content string) (*models.ResetRequest, error)
	Document(ctx context.Context, filename, ref string, admin bool) (string, error)
}

type documentOpener interface {
	Open(name string) (*os.File, error)
}

type adminChecker interface {
	IsAdmin(ctx context.Context, principal *models.StaffPrincipal) bool
}

type uploadLimits interface {
	MaxBytes() int64
	AllowedExtensions() []string
}

// PublicHandler serves the unauthenticated submission and tracking endpoints.
type PublicHandler struct {
	service publicService
	files   documentOpener
	guard   adminChecker
	limits  uploadLimits
}

// NewPublicHandler constructs the handler.
func NewPublicHandler(svc publicService, files documentOpener, guard adminChecker, limits uploadLimits) *PublicHandler {
	return &PublicHandler{service: svc, files: files, guard: guard, limits: limits}
}

// SubmitForm godoc
// @Summary Describe the reset request form
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router / [get]
func (h *PublicHandler) SubmitForm(c *gin.Context) {
	form := gin.H{
		"fields": []gin.H{
			{"name": "full_name", "type": "text", "required": true, "max_length": 255},
			{"name": "department", "type": "text", "required": true, "max_length": 255},
			{"name": "email", "type": "email", "required": true, "max_length": 254},
			{"name": "uploaded_file", "type": "file", "required": true},
		},
	}
	if h.limits != nil {
		form["max_upload_bytes"] = h.limits.MaxBytes()
		form["allowed_extensions"] = h.limits.AllowedExtensions()
	}
	response.JSON(c, http.StatusOK, form, nil)
}

// Submit godoc
// @Summary Submit a password reset request
// @Tags Public
// @Accept multipart/form-data
// @Produce json
// @Param full_name formData string true "Full name"
// @Param department formData string true "Department"
// @Param email formData string true "Email"
// @Param uploaded_file formData file true "Signed reset form (PDF, JPG or PNG)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router / [post]
func (h *PublicHandler) Submit(c *gin.Context) {
	var form models.SubmitRequest
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload"))
		return
	}

	// a missing file is reported by the service so the attempt still counts against the limit
	var upload service.Upload
	if fileHeader, err := c.FormFile("uploaded_file"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
			return
		}
		defer src.Close()

		reader, ok := src.(io.ReadSeeker)
		if !ok {
			buf, readErr := io.ReadAll(src)
			if readErr != nil {
				response.Error(c, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
				return
			}
			reader = bytes.NewReader(buf)
		}
		upload = service.Upload{
			Filename:    fileHeader.Filename,
			Size:        fileHeader.Size,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     reader,
		}
	}

	req, err := h.service.Submit(c.Request.Context(), form, upload, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"reference_code": req.ReferenceCode,
		"tracking_url":   trackPath + "?ref=" + url.QueryEscape(req.ReferenceCode),
	})
}

// Track godoc
// @Summary Track a request by reference code
// @Tags Public
// @Produce json
// @Param ref query string true "Reference code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /track/ [get]
func (h *PublicHandler) Track(c *gin.Context) {
	detail, err := h.service.Track(c.Request.Context(), c.Query("ref"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// PostMessage godoc
// @Summary Send a message about a request
// @Tags Public
// @Accept x-www-form-urlencoded
// @Param ref_code formData string true "Reference code"
// @Param content formData string true "Message"
// @Success 303
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /track/ [post]
func (h *PublicHandler) PostMessage(c *gin.Context) {
	var req models.MessageRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload"))
		return
	}
	item, err := h.service.PostUserMessage(c.Request.Context(), req.RefCode, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Redirect(c, trackPath+"?ref="+url.QueryEscape(item.ReferenceCode))
}

// Document godoc
// @Summary Fetch an uploaded document
// @Description Admins may fetch any file; everyone else must pass the owning request's reference code.
// @Tags Public
// @Param filename path string true "Stored file name"
// @Param ref query string false "Reference code of the owning request"
// @Param download query string false "1 to download as attachment"
// @Success 200
// @Failure 404 {object} response.Envelope
// @Router /uploads/{filename} [get]
func (h *PublicHandler) Document(c *gin.Context) {
	filename := c.Param("filename")
	principal := staffFromContext(c)
	admin := principal != nil && h.guard != nil && h.guard.IsAdmin(c.Request.Context(), principal)

	name, err := h.service.Document(c.Request.Context(), filename, c.Query("ref"), admin)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.files.Open(name)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file"))
		return
	}

	disposition := "inline"
	if c.Query("download") == "1" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	c.Header("X-Content-Type-Options", "nosniff")
	http.ServeContent(c.Writer, c.Request, filename, info.ModTime(), file)
}

package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ifmis-helpdesk/internal/middleware"
	"github.com/noah-isme/ifmis-helpdesk/internal/models"
	appErrors "github.com/noah-isme/ifmis-helpdesk/pkg/errors"
)

const (
	dashboardPath = "/staff/dashboard/"
	trackPath     = "/track/"
)

func staffFromContext(c *gin.Context) *models.StaffPrincipal {
	return middleware.CurrentStaff(c)
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func requestDetailPath(code string) string {
	return "/staff/request/" + code + "/"
}

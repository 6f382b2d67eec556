package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-roster-api/internal/models"
	"github.com/noah-isme/sma-roster-api/internal/service"
)

func listFilterFromQuery(c *gin.Context) models.ListFilter {
	filter := models.ListFilter{Search: strings.TrimSpace(c.Query("search"))}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

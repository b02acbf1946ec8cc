package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-izin-api/internal/service"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
	"github.com/noah-isme/sma-izin-api/pkg/response"
)

// DataHandler exposes the JSON backup export and the admin wipe.
type DataHandler struct {
	data *service.DataService
}

// NewDataHandler constructs DataHandler.
func NewDataHandler(data *service.DataService) *DataHandler {
	return &DataHandler{data: data}
}

// Export godoc
// @Summary Export tenant data as JSON
// @Tags Data
// @Produce json
// @Success 200 {object} models.DataExport
// @Router /data/export [get]
func (h *DataHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	export, err := h.data.Export(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("backup_izin_%s.json", export.ExportedAt.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, export)
}

// Wipe godoc
// @Summary Erase all tenant data
// @Tags Data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /data [delete]
func (h *DataHandler) Wipe(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.data.Wipe(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

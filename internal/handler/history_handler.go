package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/service"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
	"github.com/noah-isme/sma-izin-api/pkg/response"
)

// HistoryHandler exposes the archive ledger.
type HistoryHandler struct {
	ledger *service.LedgerService
}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler(ledger *service.LedgerService) *HistoryHandler {
	return &HistoryHandler{ledger: ledger}
}

// List godoc
// @Summary List archived daily records
// @Tags History
// @Produce json
// @Param from query string false "Start day (YYYY-MM-DD)"
// @Param to query string false "End day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.HistoryFilter{
		From: models.DayKey(strings.TrimSpace(c.Query("from"))),
		To:   models.DayKey(strings.TrimSpace(c.Query("to"))),
	}
	records, err := h.ledger.History(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

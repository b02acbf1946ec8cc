package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/service"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
	"github.com/noah-isme/sma-izin-api/pkg/response"
)

type queueService interface {
	Today(ctx context.Context, claims *models.JWTClaims) (*models.TodayQueue, error)
	Add(ctx context.Context, claims *models.JWTClaims, req models.AddQueueEntryRequest) (*service.AddEntryResult, error)
	Remove(ctx context.Context, claims *models.JWTClaims, id string) (*service.RemoveEntryResult, error)
	ResetToday(ctx context.Context, claims *models.JWTClaims) (*service.ResetSummary, error)
}

// QueueHandler exposes the daily permission queue endpoints.
type QueueHandler struct {
	queue queueService
}

// NewQueueHandler constructs QueueHandler.
func NewQueueHandler(queue queueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Today godoc
// @Summary Today's permission queue
// @Tags Queue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queue/today [get]
func (h *QueueHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	today, err := h.queue.Today(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, today, nil)
}

// Add godoc
// @Summary Add a student to today's queue
// @Tags Queue
// @Accept json
// @Produce json
// @Param payload body models.AddQueueEntryRequest true "Queue entry"
// @Success 201 {object} response.Envelope
// @Router /queue [post]
func (h *QueueHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.AddQueueEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid queue entry payload"))
		return
	}
	result, err := h.queue.Add(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if result.OutOfSync {
		meta = map[string]interface{}{"out_of_sync": true}
	}
	response.JSON(c, http.StatusCreated, result.Entry, nil, meta)
}

// Remove godoc
// @Summary Remove a queue entry
// @Tags Queue
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /queue/{id} [delete]
func (h *QueueHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.queue.Remove(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.OutOfSync {
		response.JSON(c, http.StatusOK, nil, nil, map[string]interface{}{"out_of_sync": true})
		return
	}
	response.NoContent(c)
}

// Reset godoc
// @Summary Archive and clear today's queue
// @Tags Queue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /queue/reset [post]
func (h *QueueHandler) Reset(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.queue.ResetToday(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

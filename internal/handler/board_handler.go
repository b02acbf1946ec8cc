package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-izin-api/internal/service"
	"github.com/noah-isme/sma-izin-api/pkg/response"
)

type boardService interface {
	Today(ctx context.Context) (*service.BoardSnapshot, error)
}

// BoardHandler serves the anonymous public display board.
type BoardHandler struct {
	board boardService
}

// NewBoardHandler constructs BoardHandler.
func NewBoardHandler(board boardService) *BoardHandler {
	return &BoardHandler{board: board}
}

// Today godoc
// @Summary Public display queue for today
// @Tags Board
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/queue [get]
func (h *BoardHandler) Today(c *gin.Context) {
	snapshot, err := h.board.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snapshot, nil)
}

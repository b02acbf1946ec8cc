package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/service"
)

type boardServiceMock struct {
	snapshot *service.BoardSnapshot
	err      error
}

func (m *boardServiceMock) Today(ctx context.Context) (*service.BoardSnapshot, error) {
	return m.snapshot, m.err
}

func TestBoardHandlerToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &boardServiceMock{
		snapshot: &service.BoardSnapshot{
			Date:  "2026-08-31",
			Count: 1,
			Entries: []models.PublicQueueEntry{
				{ID: "p1", StudentName: "Budi", StudentClass: "XII IPA 1", Reason: "sakit"},
			},
		},
	}
	handler := NewBoardHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/public/queue", nil)

	handler.Today(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(1), data["count"])
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
)

func TestBoardTodayFiltersByLocalDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)
	board := &mockBoard{rows: []models.PublicQueueEntry{
		{ID: "b1", StudentName: "Budi", CreatedAt: now.Add(-time.Hour)},
		{ID: "b2", StudentName: "Siti", CreatedAt: now.AddDate(0, 0, -1)},
	}}
	svc := NewBoardService(board, nil, time.Second, zap.NewNop()).WithClock(fixedClock(now))

	snapshot, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DayKeyOf(now), snapshot.Date)
	assert.Equal(t, 1, snapshot.Count)
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, "b1", snapshot.Entries[0].ID)
}

func TestBoardTodayEmptyAfterRollover(t *testing.T) {
	evening := time.Date(2026, 3, 10, 23, 59, 0, 0, time.Local)
	board := &mockBoard{rows: []models.PublicQueueEntry{
		{ID: "b1", StudentName: "Budi", CreatedAt: evening},
	}}
	svc := NewBoardService(board, nil, time.Second, zap.NewNop())

	svc.WithClock(fixedClock(evening))
	before, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, before.Count)

	svc.WithClock(fixedClock(evening.Add(2 * time.Minute)))
	after, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Zero(t, after.Count)
	assert.Empty(t, after.Entries)
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKeyOf(t *testing.T) {
	ts := time.Date(2026, 8, 31, 23, 59, 59, 0, time.Local)
	assert.Equal(t, DayKey("2026-08-31"), DayKeyOf(ts))

	next := ts.Add(time.Second)
	assert.Equal(t, DayKey("2026-09-01"), DayKeyOf(next))
}

func TestDayKeyTime(t *testing.T) {
	midnight, err := DayKey("2026-08-31").Time()
	require.NoError(t, err)
	assert.Equal(t, 0, midnight.Hour())
	assert.Equal(t, DayKey("2026-08-31"), DayKeyOf(midnight))

	_, err = DayKey("not-a-day").Time()
	assert.Error(t, err)
}

func TestSameLocalDay(t *testing.T) {
	morning := time.Date(2026, 8, 31, 0, 0, 1, 0, time.Local)
	evening := time.Date(2026, 8, 31, 23, 59, 0, 0, time.Local)
	nextDay := time.Date(2026, 9, 1, 0, 0, 1, 0, time.Local)

	assert.True(t, SameLocalDay(morning, evening))
	assert.False(t, SameLocalDay(evening, nextDay))
}

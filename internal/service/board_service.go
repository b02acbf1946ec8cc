package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

type boardReader interface {
	ListAll(ctx context.Context) ([]models.PublicQueueEntry, error)
}

type eventSource interface {
	Subscribe(ctx context.Context) (<-chan notify.Event, error)
}

const boardSnapshotKeyPrefix = "board:snapshot:"

// BoardSnapshot is the public display payload.
type BoardSnapshot struct {
	Date    models.DayKey             `json:"date"`
	Count   int                       `json:"count"`
	Entries []models.PublicQueueEntry `json:"entries"`
}

// BoardService serves the anonymous public display. The snapshot is a
// pure projection of the board sink filtered to the current local day;
// a short-lived cache absorbs display polling and is invalidated on
// every change event.
type BoardService struct {
	repo   boardReader
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewBoardService constructs the board service.
func NewBoardService(repo boardReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *BoardService {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardService{repo: repo, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// WithClock overrides the service clock for tests.
func (s *BoardService) WithClock(now func() time.Time) *BoardService {
	if now != nil {
		s.now = now
	}
	return s
}

// Today returns the display snapshot for the current local day.
func (s *BoardService) Today(ctx context.Context) (*BoardSnapshot, error) {
	day := models.DayKeyOf(s.now())
	key := boardSnapshotKeyPrefix + day.String()

	if s.cache != nil {
		var cached BoardSnapshot
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load display queue")
	}
	now := s.now()
	entries := make([]models.PublicQueueEntry, 0, len(all))
	for _, entry := range all {
		if models.SameLocalDay(entry.CreatedAt, now) {
			entries = append(entries, entry)
		}
	}
	snapshot := &BoardSnapshot{Date: day, Count: len(entries), Entries: entries}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, snapshot, s.ttl)
	}
	return snapshot, nil
}

// Watch subscribes to change events and drops the cached snapshot
// whenever the queue changes. Runs until ctx is cancelled.
func (s *BoardService) Watch(ctx context.Context, source eventSource) error {
	events, err := source.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for ev := range events {
			if ev.Kind != notify.KindQueue {
				continue
			}
			if s.cache != nil {
				if err := s.cache.Invalidate(ctx, boardSnapshotKeyPrefix+"*"); err != nil {
					s.logger.Warn("board snapshot invalidation failed", zap.Error(err))
				}
			}
		}
	}()
	return nil
}

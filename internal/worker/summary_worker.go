package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quizdesk/quizdesk-backend/internal/config"
	"github.com/quizdesk/quizdesk-backend/internal/repository"
	"github.com/quizdesk/quizdesk-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const SummaryPollTimeout = 1 * time.Second

// SummaryWorker consumes finished session IDs from the summary queue,
// computes their scoring summaries, and caches them in Redis. The result
// read path recomputes on a cache miss, so this worker is latency relief,
// not a source of truth.
type SummaryWorker struct {
	sessionRepo *repository.ExamSessionRepository
	cache       *repository.RedisCache
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSummaryWorker creates a new SummaryWorker.
func NewSummaryWorker(sessionRepo *repository.ExamSessionRepository, cache *repository.RedisCache, rdb *redis.Client, log zerolog.Logger) *SummaryWorker {
	return &SummaryWorker{
		sessionRepo: sessionRepo,
		cache:       cache,
		rdb:         rdb,
		log:         log.With().Str("component", "summary_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled.
func (w *SummaryWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SummaryWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return

		default:
			item, err := w.rdb.BLPop(ctx, SummaryPollTimeout, config.WorkerKey.SummaryQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			sessionID, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid session ID payload")
				continue
			}

			if err := w.process(ctx, sessionID); err != nil {
				w.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Summary caching failed, requeueing")
				w.rdb.RPush(ctx, config.WorkerKey.SummaryQueue, sessionID.String())
			}
		}
	}
}

// process loads a session's slots, computes the summary, and caches it.
func (w *SummaryWorker) process(ctx context.Context, sessionID uuid.UUID) error {
	slots, err := w.sessionRepo.ListSlots(ctx, sessionID)
	if err != nil {
		return err
	}

	summary := service.Summarize(slots)
	if summary == nil {
		// Undispensed slots remain; the session was queued prematurely.
		w.log.Debug().Str("session_id", sessionID.String()).Msg("Session not summarizable yet")
		return nil
	}

	key := config.CacheKey.SessionResultKey(sessionID.String())
	return w.cache.SetJSON(ctx, key, summary, config.ResultCacheTTL)
}

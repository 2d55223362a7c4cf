package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edulita/tryout-backend/internal/cache"
	"github.com/edulita/tryout-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// InvalidationWorker consumes invalidate_views_queue and deletes the stale
// cached read views a mutation declared. Patterns are expanded with SCAN so
// a wide history-list invalidation never blocks Redis.
type InvalidationWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewInvalidationWorker creates a new InvalidationWorker.
func NewInvalidationWorker(rdb *redis.Client, log zerolog.Logger) *InvalidationWorker {
	return &InvalidationWorker{
		rdb: rdb,
		log: log.With().Str("component", "invalidation_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *InvalidationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *InvalidationWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.InvalidateViewsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var job cache.InvalidationJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.apply(ctx, &job); err != nil {
		w.log.Error().Err(err).Msg("Invalidate error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.InvalidateViewsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *InvalidationWorker) apply(ctx context.Context, job *cache.InvalidationJob) error {
	if len(job.Keys) > 0 {
		if err := w.rdb.Del(ctx, job.Keys...).Err(); err != nil {
			return err
		}
	}

	for _, pattern := range job.Patterns {
		iter := w.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
			if len(keys) >= 100 {
				if err := w.rdb.Del(ctx, keys...).Err(); err != nil {
					return err
				}
				keys = keys[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := w.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *InvalidationWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.InvalidateViewsQueue).Result()
		if err != nil {
			break
		}

		var job cache.InvalidationJob
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.apply(ctx, &job); err != nil {
			w.log.Error().Err(err).Msg("Drain invalidate error")
			w.rdb.RPush(ctx, config.WorkerKey.InvalidateViewsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}

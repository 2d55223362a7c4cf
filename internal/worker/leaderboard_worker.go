package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edulita/tryout-backend/internal/config"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/scoring"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	LeaderboardBatchSize    = 50
	LeaderboardBatchTimeout = 2 * time.Second
	LeaderboardPollTimeout  = 1 * time.Second
)

// LeaderboardWorker consumes refresh_leaderboard_queue and folds completed
// attempts into each test's ranking ZSET. The ZSET is a cache over
// Postgres: a lost update only costs a lazy rebuild on the next read.
type LeaderboardWorker struct {
	cfg *config.Config
	rdb *redis.Client
	log zerolog.Logger
}

// NewLeaderboardWorker creates a new LeaderboardWorker.
func NewLeaderboardWorker(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *LeaderboardWorker {
	return &LeaderboardWorker{
		cfg: cfg,
		rdb: rdb,
		log: log.With().Str("component", "leaderboard_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *LeaderboardWorker) Start(ctx context.Context) {
	w.log.Info().Msg("LeaderboardWorker started")

	batch := make([]*model.LeaderboardJob, 0, LeaderboardBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= LeaderboardBatchSize || time.Since(lastFlush) >= LeaderboardBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, LeaderboardPollTimeout, config.WorkerKey.RefreshLeaderboardQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.LeaderboardJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

func (w *LeaderboardWorker) flushSafe(ctx context.Context, batch []*model.LeaderboardJob) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkApply(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk leaderboard update failed, requeueing batch")
		for _, job := range batch {
			raw, _ := json.Marshal(job)
			w.rdb.RPush(ctx, config.WorkerKey.RefreshLeaderboardQueue, raw)
		}
	}
}

// bulkApply folds one batch into the ZSETs with a single pipeline, then
// trims each touched board to the configured size.
func (w *LeaderboardWorker) bulkApply(ctx context.Context, batch []*model.LeaderboardJob) error {
	touched := map[string]struct{}{}

	pipe := w.rdb.Pipeline()
	for _, job := range batch {
		key := config.CacheKey.LeaderboardKey(job.TestID)
		touched[key] = struct{}{}

		var endedAt *time.Time
		if job.EndedAt != "" {
			if t, err := time.Parse(time.RFC3339, job.EndedAt); err == nil {
				endedAt = &t
			}
		}
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  scoring.RankingScore(job.Grade, endedAt),
			Member: job.AttemptID,
		})
	}
	for key := range touched {
		pipe.ZRemRangeByRank(ctx, key, 0, -w.cfg.LeaderboardSize-1)
	}

	_, err := pipe.Exec(ctx)
	return err
}

package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edulita/tryout-backend/internal/apperr"
	"github.com/edulita/tryout-backend/internal/config"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/repository"
	"github.com/edulita/tryout-backend/internal/scoring"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// historyCacheTTL bounds cached list pages and detail views. Mutations
// invalidate these keys through the worker; the TTL is only a backstop.
const historyCacheTTL = 5 * time.Minute

// HistoryDetail is one attempt with its sections and answer records.
type HistoryDetail struct {
	repository.HistoryItem
	Categories []model.ParticipantQuestionCategory `json:"categories"`
	Answers    []model.ParticipantQuestion         `json:"answers"`
}

// HistoryPage is one cached page of the history list.
type HistoryPage struct {
	Items []repository.HistoryItem `json:"items"`
	Total int64                    `json:"total"`
}

// HistoryService is the read side: filtered attempt lists, attempt detail
// and the ranking views. List pages and details are cached in Redis and
// kept consistent by the invalidation contract.
type HistoryService struct {
	cfg        *config.Config
	rdb        *redis.Client
	history    *repository.HistoryRepository
	categories *repository.CategoryRepository
	answers    *repository.AnswerRepository
	log        zerolog.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(
	cfg *config.Config,
	rdb *redis.Client,
	history *repository.HistoryRepository,
	categories *repository.CategoryRepository,
	answers *repository.AnswerRepository,
	log zerolog.Logger,
) *HistoryService {
	return &HistoryService{
		cfg:        cfg,
		rdb:        rdb,
		history:    history,
		categories: categories,
		answers:    answers,
		log:        log.With().Str("component", "history_service").Logger(),
	}
}

// List returns one page of attempts. Participants are always scoped to
// their own attempts regardless of the requested filters; administrators
// see everything their supervisor scope allows.
func (s *HistoryService) List(ctx context.Context, actor Actor, f repository.HistoryFilters) (*HistoryPage, error) {
	if !actor.Role.Admin() {
		f.UserID = &actor.UserID
		f.SupervisorID = nil
	}

	key := s.listCacheKey(f)
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		page := &HistoryPage{}
		if json.Unmarshal([]byte(cached), page) == nil {
			return page, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("history list cache read failed")
	}

	items, total, err := s.history.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	page := &HistoryPage{Items: items, Total: total}

	if raw, err := json.Marshal(page); err == nil {
		if err := s.rdb.Set(ctx, key, raw, historyCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("history list cache write failed")
		}
	}
	return page, nil
}

// Detail returns one attempt with its sections and answers. Participants may
// only read their own attempt.
func (s *HistoryService) Detail(ctx context.Context, actor Actor, attemptID uuid.UUID) (*HistoryDetail, error) {
	key := config.CacheKey.AttemptDetailKey(attemptID.String())
	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		detail := &HistoryDetail{}
		if json.Unmarshal([]byte(cached), detail) == nil {
			if detail.UserID != actor.UserID && !actor.Role.Admin() {
				return nil, apperr.ErrUnauthorized
			}
			return detail, nil
		}
	}

	item, err := s.history.GetItem(ctx, attemptID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if item.UserID != actor.UserID && !actor.Role.Admin() {
		return nil, apperr.ErrUnauthorized
	}

	cats, err := s.categories.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	detail := &HistoryDetail{HistoryItem: *item, Categories: cats}
	for _, cat := range cats {
		answers, err := s.answers.ListByCategory(ctx, cat.ID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		detail.Answers = append(detail.Answers, answers...)
	}

	if raw, err := json.Marshal(detail); err == nil {
		if err := s.rdb.Set(ctx, key, raw, historyCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("attempt detail cache write failed")
		}
	}
	return detail, nil
}

// Leaderboard returns a test's completed attempts in ranking order (grade
// descending, earlier finish first). Postgres is authoritative; the ZSET is
// rebuilt opportunistically when found empty so rank lookups stay warm.
func (s *HistoryService) Leaderboard(ctx context.Context, testID uuid.UUID) ([]repository.RankingEntry, error) {
	entries, err := s.history.Ranking(ctx, testID, s.cfg.LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("load ranking: %w", err)
	}

	key := config.CacheKey.LeaderboardKey(testID.String())
	if n, err := s.rdb.ZCard(ctx, key).Result(); err == nil && n == 0 && len(entries) > 0 {
		s.rebuildLeaderboard(ctx, key, entries)
	}
	return entries, nil
}

// Rank returns the 1-based leaderboard position of an attempt, reading the
// ZSET first and falling back to a rebuild on a cold cache. Returns 0 when
// the attempt is not ranked.
func (s *HistoryService) Rank(ctx context.Context, testID, attemptID uuid.UUID) (int64, error) {
	key := config.CacheKey.LeaderboardKey(testID.String())

	rank, err := s.rdb.ZRevRank(ctx, key, attemptID.String()).Result()
	if err == nil {
		return rank + 1, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("leaderboard rank read failed")
	}

	entries, err := s.history.Ranking(ctx, testID, s.cfg.LeaderboardSize)
	if err != nil {
		return 0, fmt.Errorf("load ranking: %w", err)
	}
	if len(entries) > 0 {
		s.rebuildLeaderboard(ctx, key, entries)
	}
	for i, e := range entries {
		if e.AttemptID == attemptID {
			return int64(i) + 1, nil
		}
	}
	return 0, nil
}

func (s *HistoryService) rebuildLeaderboard(ctx context.Context, key string, entries []repository.RankingEntry) {
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, key)
	for _, e := range entries {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  scoring.RankingScore(e.Grade, e.EndedAt),
			Member: e.AttemptID.String(),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("leaderboard rebuild failed")
	}
}

// listCacheKey derives a stable key for one page/filter combination.
func (s *HistoryService) listCacheKey(f repository.HistoryFilters) string {
	raw, _ := json.Marshal(f)
	sum := sha256.Sum256(raw)
	return config.CacheKey.HistoryListKey() + ":" + hex.EncodeToString(sum[:8])
}

package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ParticipantSessionKey returns the cache key for a participant's login session.
func (r *CacheKeyStruct) ParticipantSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// AttemptDetailKey returns the cache key for a single attempt's detail view.
func (r *CacheKeyStruct) AttemptDetailKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:detail", attemptID)
}

// AttemptDeadlineKey returns the cache key for an attempt's per_test deadline (unix seconds).
func (r *CacheKeyStruct) AttemptDeadlineKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:deadline", attemptID)
}

// ActiveCategoryKey returns the cache key for an attempt's active-category pointer.
func (r *CacheKeyStruct) ActiveCategoryKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:active_category", attemptID)
}

// AnswerRecordKey returns the cache key for one answer record of an attempt.
func (r *CacheKeyStruct) AnswerRecordKey(attemptID, questionID string) string {
	return fmt.Sprintf("attempt:%s:answer:%s", attemptID, questionID)
}

// HistoryListKey returns the cache key prefix for paginated history list views.
// The invalidator deletes it with a wildcard scan since page/filter combos vary.
func (r *CacheKeyStruct) HistoryListKey() string {
	return "history:list"
}

// HistoryListPattern matches every cached history list page.
func (r *CacheKeyStruct) HistoryListPattern() string {
	return "history:list:*"
}

// LeaderboardKey returns the ZSET key holding a test's ranking.
func (r *CacheKeyStruct) LeaderboardKey(testID string) string {
	return fmt.Sprintf("test:%s:leaderboard", testID)
}

// TestMonitorChannel returns the Redis PubSub channel for a test's live monitor.
func (r *CacheKeyStruct) TestMonitorChannel(testID string) string {
	return fmt.Sprintf("test:%s:monitor", testID)
}

var CacheKey = NewCacheKeyStruct()

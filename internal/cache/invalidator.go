// Package cache implements the read-view consistency contract: every mutation
// declares, in one table, which cached views it makes stale. Keys are removed
// asynchronously by the invalidation worker and a monitor event is published
// so attached supervisors refetch.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/edulita/tryout-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Operation identifies a state-changing engine call.
type Operation string

const (
	OpGenerate         Operation = "generate"
	OpContinue         Operation = "continue"
	OpContinueCategory Operation = "continue_category"
	OpEndCategory      Operation = "end_category"
	OpEndSession       Operation = "end_session"
	OpRegenerate       Operation = "regenerate"
	OpSaveAnswer       Operation = "save_answer"
	OpResetAnswer      Operation = "reset_answer"
	OpFlagQuestion     Operation = "flag_question"
	OpGradeEssay       Operation = "grade_essay"
)

// Tag names one class of cached read view.
type Tag string

const (
	// TagHistoryList — every cached history/ranking list page.
	TagHistoryList Tag = "history_list"
	// TagHistoryItem — the single attempt's detail view.
	TagHistoryItem Tag = "history_item"
	// TagSession — the attempt's active-category pointer and deadline.
	TagSession Tag = "session"
	// TagAnswer — one answer record of the attempt.
	TagAnswer Tag = "answer"
)

// mutationTags is the authoritative operation → stale-view table. Handlers
// and services never hardcode key names; they report the operation and refs.
var mutationTags = map[Operation][]Tag{
	OpGenerate:         {TagHistoryList},
	OpContinue:         {TagHistoryItem, TagSession},
	OpContinueCategory: {TagHistoryItem, TagSession},
	OpEndCategory:      {TagHistoryItem, TagSession},
	OpEndSession:       {TagHistoryItem, TagHistoryList, TagSession},
	OpRegenerate:       {TagHistoryItem, TagHistoryList, TagSession},
	OpSaveAnswer:       {TagSession, TagAnswer},
	OpResetAnswer:      {TagSession, TagAnswer},
	OpFlagQuestion:     {TagSession, TagAnswer},
	OpGradeEssay:       {TagHistoryList},
}

// Tags returns the stale-view tags of an operation.
func Tags(op Operation) []Tag {
	return mutationTags[op]
}

// Refs carries the entity ids a mutation touched.
type Refs struct {
	AttemptID  string
	QuestionID string
	TestID     string
}

// Keys resolves a tag to concrete Redis keys (or scan patterns) for the refs.
func (t Tag) Keys(ref Refs) (keys []string, patterns []string) {
	switch t {
	case TagHistoryList:
		patterns = append(patterns, config.CacheKey.HistoryListPattern())
	case TagHistoryItem:
		if ref.AttemptID != "" {
			keys = append(keys, config.CacheKey.AttemptDetailKey(ref.AttemptID))
		}
	case TagSession:
		if ref.AttemptID != "" {
			keys = append(keys,
				config.CacheKey.ActiveCategoryKey(ref.AttemptID),
				config.CacheKey.AttemptDeadlineKey(ref.AttemptID))
		}
	case TagAnswer:
		if ref.AttemptID != "" && ref.QuestionID != "" {
			keys = append(keys, config.CacheKey.AnswerRecordKey(ref.AttemptID, ref.QuestionID))
		}
	}
	return keys, patterns
}

// InvalidationJob is the payload queued for the invalidation worker.
type InvalidationJob struct {
	Keys     []string `json:"keys,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
}

// MonitorEvent is published on the test's monitor channel after a mutation.
type MonitorEvent struct {
	Type      string `json:"type"`
	AttemptID string `json:"attempt_id,omitempty"`
	TestID    string `json:"test_id,omitempty"`
	At        string `json:"at"`
}

// Invalidator fans mutations out to stale-view deletions and monitor events.
type Invalidator struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewInvalidator creates a new Invalidator.
func NewInvalidator(rdb *redis.Client, log zerolog.Logger) *Invalidator {
	return &Invalidator{
		rdb: rdb,
		log: log.With().Str("component", "invalidator").Logger(),
	}
}

// Invalidate enqueues the stale-view keys of op and publishes the monitor
// event. Cache fanout is best-effort: a Redis hiccup is logged, never
// surfaced, because Postgres already holds the committed truth.
func (i *Invalidator) Invalidate(ctx context.Context, op Operation, ref Refs) {
	job := InvalidationJob{}
	for _, tag := range Tags(op) {
		keys, patterns := tag.Keys(ref)
		job.Keys = append(job.Keys, keys...)
		job.Patterns = append(job.Patterns, patterns...)
	}

	if len(job.Keys) > 0 || len(job.Patterns) > 0 {
		raw, err := json.Marshal(job)
		if err == nil {
			if err := i.rdb.RPush(ctx, config.WorkerKey.InvalidateViewsQueue, raw).Err(); err != nil {
				i.log.Warn().Err(err).Str("op", string(op)).Msg("enqueue invalidation failed")
			}
		}
	}

	if ref.TestID != "" {
		event := MonitorEvent{
			Type:      string(op),
			AttemptID: ref.AttemptID,
			TestID:    ref.TestID,
			At:        time.Now().UTC().Format(time.RFC3339),
		}
		raw, _ := json.Marshal(event)
		if err := i.rdb.Publish(ctx, config.CacheKey.TestMonitorChannel(ref.TestID), raw).Err(); err != nil {
			i.log.Warn().Err(err).Str("op", string(op)).Msg("publish monitor event failed")
		}
	}
}

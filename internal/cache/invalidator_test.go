package cache

import (
	"testing"
)

func hasTag(tags []Tag, want Tag) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func TestEveryMutationDeclaresTags(t *testing.T) {
	ops := []Operation{
		OpGenerate, OpContinue, OpContinueCategory, OpEndCategory,
		OpEndSession, OpRegenerate, OpSaveAnswer, OpResetAnswer,
		OpFlagQuestion, OpGradeEssay,
	}
	for _, op := range ops {
		if len(Tags(op)) == 0 {
			t.Errorf("operation %q declares no stale views", op)
		}
	}
}

func TestLifecycleMutationsInvalidateListAndSession(t *testing.T) {
	for _, op := range []Operation{OpEndSession, OpRegenerate} {
		tags := Tags(op)
		for _, want := range []Tag{TagHistoryItem, TagHistoryList, TagSession} {
			if !hasTag(tags, want) {
				t.Errorf("%q must invalidate %q, got %v", op, want, tags)
			}
		}
	}
}

func TestAnswerMutationsStayNarrow(t *testing.T) {
	for _, op := range []Operation{OpSaveAnswer, OpResetAnswer, OpFlagQuestion} {
		tags := Tags(op)
		if !hasTag(tags, TagSession) || !hasTag(tags, TagAnswer) {
			t.Errorf("%q must invalidate session pointer and answer record, got %v", op, tags)
		}
		// Answer writes must not blow away whole list pages.
		if hasTag(tags, TagHistoryList) || hasTag(tags, TagHistoryItem) {
			t.Errorf("%q must not invalidate history views, got %v", op, tags)
		}
	}
}

func TestTagKeyResolution(t *testing.T) {
	ref := Refs{AttemptID: "a1", QuestionID: "q1", TestID: "t1"}

	keys, patterns := TagSession.Keys(ref)
	if len(keys) != 2 || len(patterns) != 0 {
		t.Fatalf("session tag keys = %v patterns = %v", keys, patterns)
	}

	keys, patterns = TagHistoryList.Keys(ref)
	if len(keys) != 0 || len(patterns) != 1 {
		t.Fatalf("history list must resolve to a scan pattern, got %v %v", keys, patterns)
	}

	keys, _ = TagAnswer.Keys(Refs{AttemptID: "a1"})
	if len(keys) != 0 {
		t.Fatalf("answer tag without question id must resolve to nothing, got %v", keys)
	}
}

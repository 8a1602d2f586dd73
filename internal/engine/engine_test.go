package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conflictengine/internal/ai"
	"conflictengine/internal/config"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

// stubEnhancer lets tests script the AI adapter without a network.
type stubEnhancer struct {
	suggestions []model.Resolution
	err         error
	calls       int
}

var _ ai.Enhancer = (*stubEnhancer)(nil)

func (s *stubEnhancer) Enhance(_ context.Context, conflict *model.Conflict, _ []model.Resolution) ([]model.Resolution, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Resolution, len(s.suggestions))
	copy(out, s.suggestions)
	for i := range out {
		out[i].ConflictID = conflict.ID
	}
	return out, nil
}

func newTestEngine(t *testing.T, enhancer ai.Enhancer) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e := New(s, config.DefaultConfig(), enhancer)
	e.Detector().WithClock(func() time.Time { return day(15) })
	return e, s
}

func seedOverlap(t *testing.T, s *store.Store, boardID string) {
	t.Helper()
	require.NoError(t, s.AddBoardMember(boardID, "alice"))
	require.NoError(t, s.AddBoardMember(boardID, "bob"))
	for i, id := range []string{boardID + "-t1", boardID + "-t2"} {
		require.NoError(t, s.UpsertTask(&model.Task{
			ID: id, BoardID: boardID, Title: id, AssigneeID: "alice",
			StartDate: day(15 + i), DueDate: day(20 + i),
			Priority: model.PriorityHigh,
		}))
	}
}

func TestDetectBoardRunsFullPipeline(t *testing.T) {
	e, s := newTestEngine(t, nil)
	seedOverlap(t, s, "board-a")

	result, err := e.DetectBoard(context.Background(), "board-a", false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)

	conflictID := result.Conflicts[0].ID

	// Suggestions were generated and persisted.
	suggestions, err := s.ListResolutions(conflictID)
	require.NoError(t, err)
	assert.NotEmpty(t, suggestions)

	// The assignee was notified exactly once.
	unread, err := s.ListNotifications("alice", true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	// Re-running changes nothing.
	again, err := e.DetectBoard(context.Background(), "board-a", false)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Total)
	unread, err = s.ListNotifications("alice", true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestDetectBoardUnknownBoard(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	_, err := e.DetectBoard(context.Background(), "nowhere", false)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestFailingEnhancerDoesNotBreakDetection(t *testing.T) {
	enhancer := &stubEnhancer{err: errors.New("quota exceeded")}
	e, s := newTestEngine(t, enhancer)
	seedOverlap(t, s, "board-a")

	result, err := e.DetectBoard(context.Background(), "board-a", true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)
	assert.Equal(t, 1, enhancer.calls)

	// Rule-based suggestions survive the failed enhancement.
	suggestions, err := s.ListResolutions(result.Conflicts[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, suggestions)
	for _, r := range suggestions {
		assert.Equal(t, model.SourceRule, r.Source)
	}
}

func TestEnhancerSuggestionsMergedAndRanked(t *testing.T) {
	enhancer := &stubEnhancer{suggestions: []model.Resolution{{
		ID:         "ai-1",
		Type:       model.ResolutionSplitTask,
		Title:      "Split the larger task",
		Confidence: 95,
		Source:     model.SourceAI,
	}}}
	e, s := newTestEngine(t, enhancer)
	seedOverlap(t, s, "board-a")

	result, err := e.DetectBoard(context.Background(), "board-a", true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)

	suggestions, err := s.ListResolutions(result.Conflicts[0].ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)
	// The 95-confidence AI suggestion outranks both rule-based ones.
	assert.Equal(t, model.SourceAI, suggestions[0].Source)
	assert.Equal(t, model.ResolutionSplitTask, suggestions[0].Type)
}

func TestEnhancerSkippedWithoutFlag(t *testing.T) {
	enhancer := &stubEnhancer{}
	e, s := newTestEngine(t, enhancer)
	seedOverlap(t, s, "board-a")

	_, err := e.DetectBoard(context.Background(), "board-a", false)
	require.NoError(t, err)
	assert.Equal(t, 0, enhancer.calls)
}

func TestDetectAllBoards(t *testing.T) {
	e, s := newTestEngine(t, nil)
	seedOverlap(t, s, "board-a")
	seedOverlap(t, s, "board-b")
	// A third board with nothing wrong.
	require.NoError(t, s.UpsertTask(&model.Task{
		ID: "calm-t1", BoardID: "board-c", Title: "calm", AssigneeID: "carol",
		StartDate: day(15), DueDate: day(20), Priority: model.PriorityLow,
	}))

	batch, err := e.DetectAllBoards(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Total)
	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Boards, 3)
	// Deterministic ordering regardless of worker completion order.
	assert.Equal(t, "board-a", batch.Boards[0].BoardID)
	assert.Equal(t, "board-b", batch.Boards[1].BoardID)
	assert.Equal(t, "board-c", batch.Boards[2].BoardID)
}

func TestGenerateSuggestionsTerminalConflictKeepsStoredList(t *testing.T) {
	e, s := newTestEngine(t, nil)
	seedOverlap(t, s, "board-a")

	result, err := e.DetectBoard(context.Background(), "board-a", false)
	require.NoError(t, err)
	conflictID := result.Conflicts[0].ID

	stored, err := s.ListResolutions(conflictID)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	require.NoError(t, e.Resolve(conflictID, stored[0].ID, "", nil))

	// A terminal conflict's suggestion list is frozen.
	after, err := e.GenerateSuggestions(conflictID)
	require.NoError(t, err)
	require.Len(t, after, len(stored))
	assert.Equal(t, stored[0].ID, after[0].ID)
}

func TestClear(t *testing.T) {
	e, s := newTestEngine(t, nil)
	seedOverlap(t, s, "board-a")
	seedOverlap(t, s, "board-b")

	_, err := e.DetectAllBoards(context.Background(), false)
	require.NoError(t, err)

	n, err := e.Clear("board-a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = e.Clear("nowhere")
	assert.ErrorIs(t, err, model.ErrNotFound)

	n, err = e.Clear("")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

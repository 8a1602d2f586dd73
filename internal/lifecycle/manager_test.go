package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conflictengine/internal/config"
	"conflictengine/internal/learn"
	"conflictengine/internal/model"
	"conflictengine/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, learn.New(s, config.DefaultConfig().Learning)), s
}

func seedConflict(t *testing.T, s *store.Store) {
	t.Helper()
	require.NoError(t, s.CreateConflict(&model.Conflict{
		ID: "c1", BoardID: "board-a", Type: model.ConflictResource,
		Severity: model.SeverityHigh, Title: "Overlap",
		TaskIDs:        []string{"t1", "t2"},
		DetectionRunID: "run-1",
	}))
	require.NoError(t, s.SaveResolutions("c1", []model.Resolution{
		{ID: "r1", ConflictID: "c1", Type: model.ResolutionReassign, Confidence: 70},
		{ID: "r2", ConflictID: "c1", Type: model.ResolutionReschedule, Confidence: 85},
	}))
}

func intp(v int) *int { return &v }

func TestResolveRecordsOutcome(t *testing.T) {
	m, s := newTestManager(t)
	seedConflict(t, s)

	require.NoError(t, m.Resolve("c1", "r1", "went smoothly", intp(5)))

	c, err := s.GetConflict("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, c.Status)
	require.NotNil(t, c.ChosenResolutionID)
	assert.Equal(t, "r1", *c.ChosenResolutionID)
	require.NotNil(t, c.Effectiveness)
	assert.Equal(t, 5, *c.Effectiveness)
	assert.Equal(t, "went smoothly", c.Feedback)
	assert.NotNil(t, c.ResolvedAt)

	// The outcome reached the learner in both scopes.
	p, err := s.GetPattern(model.ConflictResource, model.ResolutionReassign, "board-a")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TimesUsed)
	assert.Equal(t, 1, p.TimesSuccessful)
	global, err := s.GetPattern(model.ConflictResource, model.ResolutionReassign, model.GlobalBoard)
	require.NoError(t, err)
	assert.Equal(t, 1, global.TimesUsed)
}

func TestResolveWithoutRating(t *testing.T) {
	m, s := newTestManager(t)
	seedConflict(t, s)

	require.NoError(t, m.Resolve("c1", "r2", "", nil))

	p, err := s.GetPattern(model.ConflictResource, model.ResolutionReschedule, "board-a")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TimesUsed)
	assert.Equal(t, 0, p.TimesSuccessful)
}

func TestResolveValidatesBeforeMutating(t *testing.T) {
	m, s := newTestManager(t)
	seedConflict(t, s)

	// Out-of-range rating.
	err := m.Resolve("c1", "r1", "", intp(6))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	// Resolution belonging to another conflict.
	require.NoError(t, s.CreateConflict(&model.Conflict{
		ID: "c2", BoardID: "board-a", Type: model.ConflictSchedule,
		Severity: model.SeverityLow, Title: "Overdue",
		TaskIDs: []string{"t9"}, DetectionRunID: "run-1",
	}))
	err = m.Resolve("c2", "r1", "", nil)
	require.ErrorAs(t, err, &verr)

	// Unknown ids.
	assert.ErrorIs(t, m.Resolve("missing", "r1", "", nil), model.ErrNotFound)
	assert.ErrorIs(t, m.Resolve("c1", "missing", "", nil), model.ErrNotFound)

	// All rejected attempts left the conflict active.
	c, err := s.GetConflict("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, c.Status)
}

func TestResolveRejectsIncompatibleType(t *testing.T) {
	m, s := newTestManager(t)
	seedConflict(t, s)

	// A remove_dependency resolution attached to a resource conflict.
	require.NoError(t, s.SaveResolutions("c1", []model.Resolution{
		{ID: "r3", ConflictID: "c1", Type: model.ResolutionRemoveDependency, Confidence: 50},
	}))

	err := m.Resolve("c1", "r3", "", nil)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTerminalConflictsAreFinal(t *testing.T) {
	m, s := newTestManager(t)
	seedConflict(t, s)

	require.NoError(t, m.Resolve("c1", "r1", "", nil))

	assert.ErrorIs(t, m.Resolve("c1", "r2", "", nil), model.ErrTerminalState)
	assert.ErrorIs(t, m.Ignore("c1", "changed my mind"), model.ErrTerminalState)
}

func TestIgnoreSkipsLearner(t *testing.T) {
	m, s := newTestManager(t)
	seedConflict(t, s)

	require.NoError(t, m.Ignore("c1", "acceptable overlap"))

	c, err := s.GetConflict("c1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusIgnored, c.Status)
	assert.Equal(t, "acceptable overlap", c.IgnoreReason)
	assert.Nil(t, c.ChosenResolutionID)

	// Ignoring teaches nothing.
	_, err = s.GetPattern(model.ConflictResource, model.ResolutionReassign, "board-a")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.GetPattern(model.ConflictResource, model.ResolutionReassign, model.GlobalBoard)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

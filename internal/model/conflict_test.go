package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKeyOrderIndependent(t *testing.T) {
	a := &Conflict{TaskIDs: []string{"t1", "t2"}}
	b := &Conflict{TaskIDs: []string{"t2", "t1"}}
	assert.Equal(t, a.PairKey(), b.PairKey())
	assert.Equal(t, "t1|t2", a.PairKey())
}

func TestPairKeyScheduleSubtype(t *testing.T) {
	overdue := &Conflict{
		TaskIDs:  []string{"t1"},
		Evidence: &ScheduleEvidence{TaskID: "t1", Subtype: ScheduleOverdue},
	}
	unrealistic := &Conflict{
		TaskIDs:  []string{"t1"},
		Evidence: &ScheduleEvidence{TaskID: "t1", Subtype: ScheduleUnrealisticTimeline},
	}
	// The two schedule checks must not collide on the same task.
	assert.NotEqual(t, overdue.PairKey(), unrealistic.PairKey())
	assert.Equal(t, "t1#overdue", overdue.PairKey())
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusResolved.Terminal())
	assert.True(t, StatusIgnored.Terminal())
	assert.True(t, StatusAutoResolved.Terminal())
}

func TestSeverityWeightOrdering(t *testing.T) {
	assert.Greater(t, SeverityCritical.Weight(), SeverityHigh.Weight())
	assert.Greater(t, SeverityHigh.Weight(), SeverityMedium.Weight())
	assert.Greater(t, SeverityMedium.Weight(), SeverityLow.Weight())
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		ct   ConflictType
		rt   ResolutionType
		want bool
	}{
		{ConflictResource, ResolutionReassign, true},
		{ConflictResource, ResolutionReschedule, true},
		{ConflictResource, ResolutionRemoveDependency, false},
		{ConflictSchedule, ResolutionAdjustDates, true},
		{ConflictSchedule, ResolutionReassign, false},
		{ConflictDependency, ResolutionRemoveDependency, true},
		{ConflictDependency, ResolutionAdjustDates, false},
		// Custom resolutions apply to anything.
		{ConflictResource, ResolutionCustom, true},
		{ConflictSchedule, ResolutionCustom, true},
		{ConflictDependency, ResolutionCustom, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Compatible(tt.ct, tt.rt), "%s / %s", tt.ct, tt.rt)
	}
}

func TestValidateEffectiveness(t *testing.T) {
	for _, rating := range []int{1, 3, 5} {
		assert.NoError(t, ValidateEffectiveness(rating))
	}
	for _, rating := range []int{0, 6, -1} {
		err := ValidateEffectiveness(rating)
		require.Error(t, err)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	}
}

func TestEvidenceRoundtrip(t *testing.T) {
	original := &ResourceEvidence{
		AssigneeID:       "alice",
		Task1ID:          "t1",
		Task2ID:          "t2",
		OverlapDays:      3,
		CombinedPriority: 7,
	}
	raw, err := MarshalEvidence(original)
	require.NoError(t, err)

	ev, err := UnmarshalEvidence(raw)
	require.NoError(t, err)
	got, ok := ev.(*ResourceEvidence)
	require.True(t, ok)
	assert.Equal(t, original.AssigneeID, got.AssigneeID)
	assert.Equal(t, original.OverlapDays, got.OverlapDays)
}

func TestUnmarshalEvidenceUnknownKind(t *testing.T) {
	_, err := UnmarshalEvidence([]byte(`{"kind":"psychic","data":{}}`))
	assert.Error(t, err)
}

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EvidenceKind tags the concrete evidence type inside the JSON envelope.
type EvidenceKind string

const (
	EvidenceResource   EvidenceKind = "resource"
	EvidenceSchedule   EvidenceKind = "schedule"
	EvidenceDependency EvidenceKind = "dependency"
)

// ScheduleSubtype distinguishes the two schedule detectors.
type ScheduleSubtype string

const (
	ScheduleOverdue             ScheduleSubtype = "overdue"
	ScheduleUnrealisticTimeline ScheduleSubtype = "unrealistic_timeline"
)

// Evidence is the typed, per-conflict-type detection payload.
type Evidence interface {
	Kind() EvidenceKind
}

// ResourceEvidence records a same-assignee date overlap between two tasks.
type ResourceEvidence struct {
	AssigneeID       string    `json:"assignee_id"`
	Task1ID          string    `json:"task1_id"`
	Task2ID          string    `json:"task2_id"`
	Start1           time.Time `json:"start1"`
	End1             time.Time `json:"end1"`
	Start2           time.Time `json:"start2"`
	End2             time.Time `json:"end2"`
	OverlapDays      int       `json:"overlap_days"`
	CombinedPriority int       `json:"combined_priority"`
}

func (*ResourceEvidence) Kind() EvidenceKind { return EvidenceResource }

// ScheduleEvidence records either an overdue task or an unrealistic timeline.
type ScheduleEvidence struct {
	TaskID      string          `json:"task_id"`
	Subtype     ScheduleSubtype `json:"subtype"`
	DaysOverdue int             `json:"days_overdue,omitempty"`
	Complexity  int             `json:"complexity,omitempty"`
	WindowDays  int             `json:"window_days,omitempty"`
}

func (*ScheduleEvidence) Kind() EvidenceKind { return EvidenceSchedule }

// DependencyEvidence records a dependency phrase found on an overdue task.
type DependencyEvidence struct {
	TaskID      string `json:"task_id"`
	Phrase      string `json:"phrase"`
	DaysOverdue int    `json:"days_overdue"`
}

func (*DependencyEvidence) Kind() EvidenceKind { return EvidenceDependency }

type evidenceEnvelope struct {
	Kind EvidenceKind    `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalEvidence serializes evidence into a tagged JSON envelope for storage.
func MarshalEvidence(ev Evidence) ([]byte, error) {
	if ev == nil {
		return []byte(`{}`), nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evidence: %w", err)
	}
	return json.Marshal(evidenceEnvelope{Kind: ev.Kind(), Data: data})
}

// UnmarshalEvidence decodes a tagged JSON envelope back into typed evidence.
// An empty envelope yields nil evidence.
func UnmarshalEvidence(raw []byte) (Evidence, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var env evidenceEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse evidence envelope: %w", err)
	}
	if env.Kind == "" {
		return nil, nil
	}
	var ev Evidence
	switch env.Kind {
	case EvidenceResource:
		ev = &ResourceEvidence{}
	case EvidenceSchedule:
		ev = &ScheduleEvidence{}
	case EvidenceDependency:
		ev = &DependencyEvidence{}
	default:
		return nil, fmt.Errorf("unknown evidence kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, fmt.Errorf("failed to parse %s evidence: %w", env.Kind, err)
	}
	return ev, nil
}

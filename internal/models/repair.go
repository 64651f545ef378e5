package models

import "time"

// Repair statuses. A repair is created as pending and only a manager or
// admin review moves it to approved or rejected.
const (
	RepairStatusPending  = "pending"
	RepairStatusApproved = "approved"
	RepairStatusRejected = "rejected"
)

// Phase slot names as persisted inside the phases document.
const (
	PhaseSlotSurvey   = "survey"
	PhaseSlotProgress = "progress"
	PhaseSlotFinish   = "finish"
)

type Repair struct {
	ID                int64     `json:"id"`
	ProjectID         int64     `json:"project_id"`
	ProjectName       string    `json:"project_name"`
	ElevationName     string    `json:"elevation_name"`
	Drop              int       `json:"drop"`
	Level             int       `json:"level"`
	RepairIndex       int       `json:"repair_index"`
	Status            string    `json:"status"`
	Phases            PhaseSet  `json:"phases"`
	CreatedByUserID   int64     `json:"created_by_user_id"`
	CreatedByUserName string    `json:"created_by_user_name"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// PhaseSet is the phases sub-document stored as JSONB on the repairs table.
// Key names must not change: existing stored rows and the mobile clients
// depend on this exact shape.
type PhaseSet struct {
	Survey   *SurveyPhase     `json:"survey"`
	Progress []*ProgressPhase `json:"progress"`
	Finish   *FinishPhase     `json:"finish"`
}

type SurveyPhase struct {
	RepairType        string            `json:"repair_type"`
	Measurements      map[string]string `json:"measurements"`
	Comments          string            `json:"comments"`
	Photos            []string          `json:"photos"`
	CreatedByUserID   int64             `json:"created_by_user_id"`
	CreatedByUserName string            `json:"created_by_user_name"`
	CreatedAt         string            `json:"created_at"`
}

// ProgressPhase carries a copy of the survey's repair_type so that
// type filters can match against progress entries without loading the
// survey slot.
type ProgressPhase struct {
	RepairType        string            `json:"repair_type,omitempty"`
	Measurements      map[string]string `json:"measurements"`
	Comments          string            `json:"comments"`
	Photos            []string          `json:"photos"`
	CreatedByUserID   int64             `json:"created_by_user_id"`
	CreatedByUserName string            `json:"created_by_user_name"`
	CreatedAt         string            `json:"created_at"`
}

type FinishPhase struct {
	Comments          string            `json:"comments"`
	Measurements      map[string]string `json:"measurements,omitempty"`
	Photos            []string          `json:"photos"`
	CreatedByUserID   int64             `json:"created_by_user_id"`
	CreatedByUserName string            `json:"created_by_user_name"`
	CreatedAt         string            `json:"created_at"`
}

// RepairType returns the type recorded by the survey phase, or "" when the
// repair has not been surveyed yet.
func (r *Repair) RepairType() string {
	if r.Phases.Survey == nil {
		return ""
	}
	return r.Phases.Survey.RepairType
}

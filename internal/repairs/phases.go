package repairs

import (
	"log"
	"time"

	"repairtrack-backend/internal/catalog"
	"repairtrack-backend/internal/models"
)

// State is the position of a repair in its phase sequence.
type State int

const (
	StateNoSurvey State = iota
	StateSurveyed
	StateInProgress
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNoSurvey:
		return "no_survey"
	case StateSurveyed:
		return "surveyed"
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// A phase counts as complete only when its created_at is non-empty. A nil
// slot is never complete.

func SurveyComplete(p *models.SurveyPhase) bool {
	return p != nil && p.CreatedAt != ""
}

func ProgressComplete(p *models.ProgressPhase) bool {
	return p != nil && p.CreatedAt != ""
}

func FinishComplete(p *models.FinishPhase) bool {
	return p != nil && p.CreatedAt != ""
}

// CompletedProgress counts the completed progress slots.
func CompletedProgress(slots []*models.ProgressPhase) int {
	n := 0
	for _, s := range slots {
		if ProgressComplete(s) {
			n++
		}
	}
	return n
}

// StateOf derives the repair's state from its phase document.
func StateOf(phases models.PhaseSet) State {
	if !SurveyComplete(phases.Survey) {
		return StateNoSurvey
	}
	if FinishComplete(phases.Finish) {
		return StateFinished
	}
	if CompletedProgress(phases.Progress) > 0 {
		return StateInProgress
	}
	return StateSurveyed
}

// NextIndex computes the repair_index for a new repair in a
// location+type group: one past the highest existing index, or 1 when the
// group is empty.
func NextIndex(maxExisting int) int {
	if maxExisting < 0 {
		maxExisting = 0
	}
	return maxExisting + 1
}

// Actor attributes a phase submission to the submitting technician.
type Actor struct {
	UserID int64
	Name   string
}

// Submission is one phase entry as submitted by a technician. RepairType is
// only read for the survey slot; ProgressIndex is 1-based and only read for
// the progress slot.
type Submission struct {
	Slot          string
	ProgressIndex int
	RepairType    string
	Measurements  map[string]string
	Comments      string
	Photos        []string
	Actor         Actor
}

// Machine validates and applies phase submissions. With StrictOrdering off
// (the default) slots may be filled in any order, matching how crews
// back-fill paperwork on site; violations are logged but accepted. With it
// on, progress slots must be filled left to right and finish requires every
// progress slot to be complete.
type Machine struct {
	StrictOrdering bool
}

// Apply validates sub against the project's catalog and the repair's
// current phase document, then writes the new phase entry into rep. The
// caller persists the touched slot afterwards; nothing is mutated when an
// error is returned.
func (m Machine) Apply(project *models.Project, rep *models.Repair, sub Submission) error {
	switch sub.Slot {
	case models.PhaseSlotSurvey:
		return m.applySurvey(project, rep, sub)
	case models.PhaseSlotProgress:
		return m.applyProgress(project, rep, sub)
	case models.PhaseSlotFinish:
		return m.applyFinish(rep, sub)
	}
	return &models.PhaseValidationError{Field: "slot", Reason: "must be survey, progress or finish"}
}

func (m Machine) applySurvey(project *models.Project, rep *models.Repair, sub Submission) error {
	if sub.RepairType == "" {
		return &models.PhaseValidationError{Field: "repair_type", Reason: "required for survey"}
	}
	total, ok := catalog.ResolvePhaseCount(project, sub.RepairType)
	if !ok {
		return &models.PhaseValidationError{Field: "repair_type", Reason: "not in project catalog"}
	}

	rep.Phases.Survey = &models.SurveyPhase{
		RepairType:        sub.RepairType,
		Measurements:      sub.Measurements,
		Comments:          sub.Comments,
		Photos:            sub.Photos,
		CreatedByUserID:   sub.Actor.UserID,
		CreatedByUserName: sub.Actor.Name,
		CreatedAt:         now(),
	}

	// Size the progress slice to phases-2, keeping entries already
	// submitted when a repair is being resumed.
	slots := total - 2
	if len(rep.Phases.Progress) < slots {
		grown := make([]*models.ProgressPhase, slots)
		copy(grown, rep.Phases.Progress)
		rep.Phases.Progress = grown
	}
	return nil
}

func (m Machine) applyProgress(project *models.Project, rep *models.Repair, sub Submission) error {
	if !SurveyComplete(rep.Phases.Survey) {
		return &models.PhaseValidationError{Field: "slot", Reason: "survey has not been submitted"}
	}

	total := m.totalPhases(project, rep)
	i := sub.ProgressIndex
	if i < 1 || i > total-2 {
		return &models.PhaseValidationError{Field: "progress_index", Reason: "out of range for repair type"}
	}

	// The stored slice can be shorter than the catalog says when the
	// catalog grew after the survey.
	if len(rep.Phases.Progress) < total-2 {
		grown := make([]*models.ProgressPhase, total-2)
		copy(grown, rep.Phases.Progress)
		rep.Phases.Progress = grown
	}

	if m.StrictOrdering {
		for j := 0; j < i-1; j++ {
			if !ProgressComplete(rep.Phases.Progress[j]) {
				return &models.PhaseValidationError{Field: "progress_index", Reason: "earlier progress phases are not complete"}
			}
		}
	} else if i > 1 && !ProgressComplete(rep.Phases.Progress[i-2]) {
		log.Printf("repair %d: progress %d submitted before progress %d", rep.ID, i, i-1)
	}

	rep.Phases.Progress[i-1] = &models.ProgressPhase{
		RepairType:        rep.Phases.Survey.RepairType,
		Measurements:      sub.Measurements,
		Comments:          sub.Comments,
		Photos:            sub.Photos,
		CreatedByUserID:   sub.Actor.UserID,
		CreatedByUserName: sub.Actor.Name,
		CreatedAt:         now(),
	}
	return nil
}

func (m Machine) applyFinish(rep *models.Repair, sub Submission) error {
	if !SurveyComplete(rep.Phases.Survey) {
		return &models.PhaseValidationError{Field: "slot", Reason: "survey has not been submitted"}
	}

	done := CompletedProgress(rep.Phases.Progress)
	if done < len(rep.Phases.Progress) {
		if m.StrictOrdering {
			return &models.PhaseValidationError{Field: "slot", Reason: "progress phases are not complete"}
		}
		log.Printf("repair %d: finish submitted with %d of %d progress phases complete", rep.ID, done, len(rep.Phases.Progress))
	}

	rep.Phases.Finish = &models.FinishPhase{
		Comments:          sub.Comments,
		Measurements:      sub.Measurements,
		Photos:            sub.Photos,
		CreatedByUserID:   sub.Actor.UserID,
		CreatedByUserName: sub.Actor.Name,
		CreatedAt:         now(),
	}
	return nil
}

// totalPhases resolves the catalog phase count for the repair's surveyed
// type, falling back to the stored progress length when the type has since
// been removed from the catalog.
func (m Machine) totalPhases(project *models.Project, rep *models.Repair) int {
	if total, ok := catalog.ResolvePhaseCount(project, rep.Phases.Survey.RepairType); ok {
		return total
	}
	return len(rep.Phases.Progress) + 2
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

package repairs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/repairs"
)

// testProject has elevation "North" (10 drops, 5 levels) and repair type
// "Crack" with 4 total phases, so 2 progress slots.
func testProject() *models.Project {
	return &models.Project{
		ID:     1,
		Name:   "Tower A",
		Status: models.ProjectStatusInProgress,
		Elevations: []models.Elevation{
			{Name: "North", Drops: 10, Levels: 5},
		},
		RepairTypes: []models.RepairType{
			{RepairTypeID: "rt-1", RepairType: "Crack", Phases: 4, Price: 25, UnitToCharge: "m"},
			{RepairTypeID: "rt-2", RepairType: "Spall", Phases: 3, Price: 40, UnitToCharge: "unit"},
		},
		Technicians: []models.Technician{
			{TechnicianID: 7, TechnicianName: "Dana"},
		},
	}
}

func survey(t *testing.T, m repairs.Machine, project *models.Project, rep *models.Repair) {
	t.Helper()
	err := m.Apply(project, rep, repairs.Submission{
		Slot:         models.PhaseSlotSurvey,
		RepairType:   "Crack",
		Measurements: map[string]string{"length_cm": "35"},
		Comments:     "hairline crack",
		Actor:        repairs.Actor{UserID: 7, Name: "Dana"},
	})
	require.NoError(t, err)
}

func TestPhaseCompletion(t *testing.T) {
	assert.False(t, repairs.SurveyComplete(nil))
	assert.False(t, repairs.ProgressComplete(nil))
	assert.False(t, repairs.FinishComplete(nil))

	assert.False(t, repairs.SurveyComplete(&models.SurveyPhase{}))
	assert.True(t, repairs.SurveyComplete(&models.SurveyPhase{CreatedAt: "2026-01-05T09:00:00Z"}))
	assert.False(t, repairs.ProgressComplete(&models.ProgressPhase{CreatedAt: ""}))
	assert.True(t, repairs.FinishComplete(&models.FinishPhase{CreatedAt: "2026-01-05T09:00:00Z"}))
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, repairs.StateNoSurvey, repairs.StateOf(models.PhaseSet{}))

	surveyed := models.PhaseSet{
		Survey:   &models.SurveyPhase{RepairType: "Crack", CreatedAt: "2026-01-05T09:00:00Z"},
		Progress: []*models.ProgressPhase{nil, nil},
	}
	assert.Equal(t, repairs.StateSurveyed, repairs.StateOf(surveyed))

	surveyed.Progress[0] = &models.ProgressPhase{CreatedAt: "2026-01-06T09:00:00Z"}
	assert.Equal(t, repairs.StateInProgress, repairs.StateOf(surveyed))

	surveyed.Finish = &models.FinishPhase{CreatedAt: "2026-01-07T09:00:00Z"}
	assert.Equal(t, repairs.StateFinished, repairs.StateOf(surveyed))
}

func TestNextIndex(t *testing.T) {
	assert.Equal(t, 1, repairs.NextIndex(0))
	assert.Equal(t, 2, repairs.NextIndex(1))
	assert.Equal(t, 4, repairs.NextIndex(3))
	assert.Equal(t, 1, repairs.NextIndex(-1))
}

func TestApplySurvey_NewRepair(t *testing.T) {
	project := testProject()
	rep := &models.Repair{ProjectID: 1, ElevationName: "North", Drop: 3, Level: 2, RepairIndex: 1, Status: models.RepairStatusPending}

	survey(t, repairs.Machine{}, project, rep)

	require.NotNil(t, rep.Phases.Survey)
	assert.Equal(t, "Crack", rep.Phases.Survey.RepairType)
	assert.Equal(t, int64(7), rep.Phases.Survey.CreatedByUserID)
	assert.Equal(t, "Dana", rep.Phases.Survey.CreatedByUserName)
	assert.NotEmpty(t, rep.Phases.Survey.CreatedAt)

	// 4 phases => 2 progress slots, both empty, no finish.
	require.Len(t, rep.Phases.Progress, 2)
	assert.Nil(t, rep.Phases.Progress[0])
	assert.Nil(t, rep.Phases.Progress[1])
	assert.Nil(t, rep.Phases.Finish)
	assert.Equal(t, repairs.StateSurveyed, repairs.StateOf(rep.Phases))
}

func TestApplySurvey_UnknownType(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}

	err := repairs.Machine{}.Apply(project, rep, repairs.Submission{
		Slot:       models.PhaseSlotSurvey,
		RepairType: "Leak",
	})

	var ve *models.PhaseValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "repair_type", ve.Field)
	assert.Nil(t, rep.Phases.Survey)
}

func TestApplySurvey_MissingType(t *testing.T) {
	err := repairs.Machine{}.Apply(testProject(), &models.Repair{}, repairs.Submission{
		Slot: models.PhaseSlotSurvey,
	})

	var ve *models.PhaseValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "repair_type", ve.Field)
}

func TestApplySurvey_ResumeKeepsProgress(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}
	m := repairs.Machine{}
	survey(t, m, project, rep)

	require.NoError(t, m.Apply(project, rep, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 1,
		Comments:      "ground out",
		Actor:         repairs.Actor{UserID: 7, Name: "Dana"},
	}))

	// Resubmitting the survey keeps the completed progress entry.
	survey(t, m, project, rep)
	require.Len(t, rep.Phases.Progress, 2)
	assert.True(t, repairs.ProgressComplete(rep.Phases.Progress[0]))
}

func TestApplyProgress_RequiresSurvey(t *testing.T) {
	err := repairs.Machine{}.Apply(testProject(), &models.Repair{}, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 1,
	})

	var ve *models.PhaseValidationError
	require.ErrorAs(t, err, &ve)
}

func TestApplyProgress_IndexBounds(t *testing.T) {
	project := testProject()
	m := repairs.Machine{}

	for _, idx := range []int{0, 3} {
		rep := &models.Repair{}
		survey(t, m, project, rep)
		err := m.Apply(project, rep, repairs.Submission{
			Slot:          models.PhaseSlotProgress,
			ProgressIndex: idx,
		})
		var ve *models.PhaseValidationError
		require.ErrorAs(t, err, &ve, "index %d", idx)
		assert.Equal(t, "progress_index", ve.Field)
	}
}

func TestApplyProgress_CopiesRepairType(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}
	m := repairs.Machine{}
	survey(t, m, project, rep)

	require.NoError(t, m.Apply(project, rep, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 2,
		Actor:         repairs.Actor{UserID: 7, Name: "Dana"},
	}))

	require.NotNil(t, rep.Phases.Progress[1])
	assert.Equal(t, "Crack", rep.Phases.Progress[1].RepairType)
}

func TestApplyProgress_PermissiveAllowsOutOfOrder(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}
	m := repairs.Machine{}
	survey(t, m, project, rep)

	// Slot 2 before slot 1 is accepted by default.
	require.NoError(t, m.Apply(project, rep, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 2,
	}))
	assert.Nil(t, rep.Phases.Progress[0])
	assert.True(t, repairs.ProgressComplete(rep.Phases.Progress[1]))
}

func TestApplyProgress_StrictRejectsOutOfOrder(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}
	m := repairs.Machine{StrictOrdering: true}
	survey(t, m, project, rep)

	err := m.Apply(project, rep, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 2,
	})
	var ve *models.PhaseValidationError
	require.ErrorAs(t, err, &ve)

	require.NoError(t, m.Apply(project, rep, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 1,
	}))
	require.NoError(t, m.Apply(project, rep, repairs.Submission{
		Slot:          models.PhaseSlotProgress,
		ProgressIndex: 2,
	}))
}

func TestApplyFinish_Permissive(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}
	m := repairs.Machine{}
	survey(t, m, project, rep)

	// Finish with incomplete progress is accepted (and logged) by default.
	require.NoError(t, m.Apply(project, rep, repairs.Submission{
		Slot:     models.PhaseSlotFinish,
		Comments: "sealed and painted",
		Actor:    repairs.Actor{UserID: 7, Name: "Dana"},
	}))
	assert.Equal(t, repairs.StateFinished, repairs.StateOf(rep.Phases))
}

func TestApplyFinish_StrictRequiresAllProgress(t *testing.T) {
	project := testProject()
	rep := &models.Repair{}
	m := repairs.Machine{StrictOrdering: true}
	survey(t, m, project, rep)

	err := m.Apply(project, rep, repairs.Submission{Slot: models.PhaseSlotFinish})
	var ve *models.PhaseValidationError
	require.ErrorAs(t, err, &ve)

	require.NoError(t, m.Apply(project, rep, repairs.Submission{Slot: models.PhaseSlotProgress, ProgressIndex: 1}))
	require.NoError(t, m.Apply(project, rep, repairs.Submission{Slot: models.PhaseSlotProgress, ProgressIndex: 2}))
	require.NoError(t, m.Apply(project, rep, repairs.Submission{Slot: models.PhaseSlotFinish}))
	assert.Equal(t, repairs.StateFinished, repairs.StateOf(rep.Phases))
}

func TestApply_UnknownSlot(t *testing.T) {
	err := repairs.Machine{}.Apply(testProject(), &models.Repair{}, repairs.Submission{Slot: "inspection"})

	var ve *models.PhaseValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "slot", ve.Field)
}

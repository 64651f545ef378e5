package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repairtrack-backend/internal/handlers"
	"repairtrack-backend/internal/middleware"
	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/repairs"
	"repairtrack-backend/internal/supabase"
)

// fakeRepairStore keeps repairs in memory and mimics the database client's
// location+type bookkeeping.
type fakeRepairStore struct {
	project *models.Project
	rows    []*models.Repair
	nextID  int64
	created int
}

func (f *fakeRepairStore) matches(r *models.Repair, projectID int64, elevation string, drop, level int, repairType string) bool {
	return r.ProjectID == projectID && r.ElevationName == elevation &&
		r.Drop == drop && r.Level == level &&
		r.Phases.Survey != nil && r.Phases.Survey.RepairType == repairType
}

func (f *fakeRepairStore) GetRepair(_ context.Context, repairID int64) (*models.Repair, error) {
	for _, r := range f.rows {
		if r.ID == repairID {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepairStore) CreateRepair(_ context.Context, r *models.Repair) (*models.Repair, error) {
	f.nextID++
	f.created++
	r.ID = f.nextID
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *fakeRepairStore) MaxRepairIndex(_ context.Context, projectID int64, elevation string, drop, level int, repairType string) (int, error) {
	max := 0
	for _, r := range f.rows {
		if f.matches(r, projectID, elevation, drop, level, repairType) && r.RepairIndex > max {
			max = r.RepairIndex
		}
	}
	return max, nil
}

func (f *fakeRepairStore) FindRepairByIndex(_ context.Context, projectID int64, elevation string, drop, level int, repairType string, repairIndex int) (*models.Repair, error) {
	for _, r := range f.rows {
		if f.matches(r, projectID, elevation, drop, level, repairType) && r.RepairIndex == repairIndex {
			return r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepairStore) SetSurveyPhase(_ context.Context, repairID int64, survey *models.SurveyPhase, progressSlots int) (*models.Repair, error) {
	r, err := f.GetRepair(context.Background(), repairID)
	if err != nil {
		return nil, err
	}
	r.Phases.Survey = survey
	if len(r.Phases.Progress) < progressSlots {
		grown := make([]*models.ProgressPhase, progressSlots)
		copy(grown, r.Phases.Progress)
		r.Phases.Progress = grown
	}
	return r, nil
}

func (f *fakeRepairStore) SetProgressPhase(_ context.Context, repairID int64, progressIndex int, phase *models.ProgressPhase) (*models.Repair, error) {
	r, err := f.GetRepair(context.Background(), repairID)
	if err != nil {
		return nil, err
	}
	for len(r.Phases.Progress) < progressIndex {
		r.Phases.Progress = append(r.Phases.Progress, nil)
	}
	r.Phases.Progress[progressIndex-1] = phase
	return r, nil
}

func (f *fakeRepairStore) SetFinishPhase(_ context.Context, repairID int64, phase *models.FinishPhase) (*models.Repair, error) {
	r, err := f.GetRepair(context.Background(), repairID)
	if err != nil {
		return nil, err
	}
	r.Phases.Finish = phase
	return r, nil
}

func (f *fakeRepairStore) UpdateRepairStatus(_ context.Context, repairID int64, status string) (*models.Repair, error) {
	r, err := f.GetRepair(context.Background(), repairID)
	if err != nil {
		return nil, err
	}
	r.Status = status
	return r, nil
}

func (f *fakeRepairStore) GetProject(_ context.Context, projectID int64) (*models.Project, error) {
	if f.project != nil && f.project.ID == projectID {
		return f.project, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeRepairStore) ProjectIDsByClient(_ context.Context, _ int64) ([]int64, error) {
	return nil, nil
}

func (f *fakeRepairStore) ProjectIDsByTechnician(_ context.Context, _ int64) ([]int64, error) {
	return nil, nil
}

func repairTestProject() *models.Project {
	return &models.Project{
		ID:     10,
		Name:   "Harbor Tower",
		Status: models.ProjectStatusInProgress,
		Elevations: []models.Elevation{
			{Name: "North", Drops: 10, Levels: 5},
		},
		RepairTypes: []models.RepairType{
			{RepairTypeID: "rt-crack", RepairType: "Crack", Phases: 4, Price: 120},
		},
		Technicians: []models.Technician{
			{TechnicianID: 7, TechnicianName: "Dana"},
		},
	}
}

func repairRouter(store *fakeRepairStore, caller models.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRepairsHandler(store, nil, repairs.Machine{}, supabase.NewRealtimeClient(nil))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.CallerKey, caller)
	})
	router.POST("/repairs", handler.CreateRepair)
	router.GET("/repairs/next-index", handler.NextRepairIndex)
	return router
}

func postRepair(t *testing.T, router *gin.Engine, req models.CreateRepairRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, _ := http.NewRequest("POST", "/repairs", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)
	return w
}

func surveyRequest() models.CreateRepairRequest {
	return models.CreateRepairRequest{
		ProjectID:     10,
		ElevationName: "North",
		Drop:          3,
		Level:         2,
		RepairType:    "Crack",
		Measurements:  map[string]string{"length_cm": "40"},
		Comments:      "hairline crack",
	}
}

func seededRepair(id int64, repairIndex int) *models.Repair {
	return &models.Repair{
		ID:            id,
		ProjectID:     10,
		ProjectName:   "Harbor Tower",
		ElevationName: "North",
		Drop:          3,
		Level:         2,
		RepairIndex:   repairIndex,
		Status:        models.RepairStatusPending,
		Phases: models.PhaseSet{
			Survey: &models.SurveyPhase{
				RepairType:      "Crack",
				CreatedByUserID: 7,
				CreatedAt:       "2026-02-01T08:00:00Z",
			},
			Progress: []*models.ProgressPhase{nil, nil},
		},
	}
}

func TestCreateRepair_AssignsNextFreeIndex(t *testing.T) {
	store := &fakeRepairStore{project: repairTestProject()}
	router := repairRouter(store, models.Caller{UserID: 2, Name: "Morgan", Role: models.RoleManager})

	w := postRepair(t, router, surveyRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var first models.Repair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, 1, first.RepairIndex)
	require.NotNil(t, first.Phases.Survey)
	assert.Equal(t, "Crack", first.Phases.Survey.RepairType)
	assert.Len(t, first.Phases.Progress, 2)

	// The second repair at the same spot gets the next index.
	w = postRepair(t, router, surveyRequest())
	require.Equal(t, http.StatusCreated, w.Code)

	var second models.Repair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, 2, second.RepairIndex)
	assert.Equal(t, 2, store.created)
}

func TestCreateRepair_ResumesExistingIndex(t *testing.T) {
	existing := seededRepair(1, 1)
	existing.Phases.Progress[1] = &models.ProgressPhase{
		RepairType:      "Crack",
		CreatedByUserID: 8,
		CreatedAt:       "2026-02-02T08:00:00Z",
	}
	store := &fakeRepairStore{project: repairTestProject(), rows: []*models.Repair{existing}, nextID: 1}
	router := repairRouter(store, models.Caller{UserID: 2, Name: "Morgan", Role: models.RoleManager})

	req := surveyRequest()
	req.RepairIndex = 1
	req.Comments = "resurveyed after storm"

	w := postRepair(t, router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resumed models.Repair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resumed))
	assert.Equal(t, 1, resumed.RepairIndex)
	assert.Equal(t, "resurveyed after storm", resumed.Phases.Survey.Comments)
	// The earlier progress entry survives the resurvey.
	require.Len(t, resumed.Phases.Progress, 2)
	require.NotNil(t, resumed.Phases.Progress[1])
	assert.Equal(t, int64(8), resumed.Phases.Progress[1].CreatedByUserID)
	// No new row was created.
	assert.Equal(t, 0, store.created)
}

func TestCreateRepair_RejectsIndexGap(t *testing.T) {
	store := &fakeRepairStore{project: repairTestProject(), rows: []*models.Repair{seededRepair(1, 1)}, nextID: 1}
	router := repairRouter(store, models.Caller{UserID: 2, Name: "Morgan", Role: models.RoleManager})

	req := surveyRequest()
	req.RepairIndex = 3

	w := postRepair(t, router, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "gap")
	assert.Equal(t, 0, store.created)
}

func TestCreateRepair_NextIndexAccepted(t *testing.T) {
	store := &fakeRepairStore{project: repairTestProject(), rows: []*models.Repair{seededRepair(1, 1)}, nextID: 1}
	router := repairRouter(store, models.Caller{UserID: 2, Name: "Morgan", Role: models.RoleManager})

	req := surveyRequest()
	req.RepairIndex = 2

	w := postRepair(t, router, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Repair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 2, created.RepairIndex)
}

func TestCreateRepair_TechnicianMustBeAssigned(t *testing.T) {
	store := &fakeRepairStore{project: repairTestProject()}
	router := repairRouter(store, models.Caller{UserID: 99, Name: "Riley", Role: models.RoleTechnician})

	w := postRepair(t, router, surveyRequest())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, store.created)
}

func TestNextRepairIndexEndpoint(t *testing.T) {
	store := &fakeRepairStore{
		project: repairTestProject(),
		rows:    []*models.Repair{seededRepair(1, 1), seededRepair(2, 2)},
		nextID:  2,
	}
	router := repairRouter(store, models.Caller{UserID: 2, Name: "Morgan", Role: models.RoleManager})

	url := fmt.Sprintf("/repairs/next-index?project_id=%d&elevation_name=North&drop=3&level=2&repair_type=Crack", 10)
	req, _ := http.NewRequest("GET", url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.NextRepairIndexResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.NextRepairIndex)
}

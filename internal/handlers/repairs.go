package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"repairtrack-backend/internal/catalog"
	"repairtrack-backend/internal/listing"
	"repairtrack-backend/internal/middleware"
	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/repairs"
	"repairtrack-backend/internal/supabase"
)

// RepairStore is the persistence surface the repair handlers act on,
// implemented by supabase.DatabaseClient.
type RepairStore interface {
	GetRepair(ctx context.Context, repairID int64) (*models.Repair, error)
	CreateRepair(ctx context.Context, r *models.Repair) (*models.Repair, error)
	MaxRepairIndex(ctx context.Context, projectID int64, elevationName string, drop, level int, repairType string) (int, error)
	FindRepairByIndex(ctx context.Context, projectID int64, elevationName string, drop, level int, repairType string, repairIndex int) (*models.Repair, error)
	SetSurveyPhase(ctx context.Context, repairID int64, survey *models.SurveyPhase, progressSlots int) (*models.Repair, error)
	SetProgressPhase(ctx context.Context, repairID int64, progressIndex int, phase *models.ProgressPhase) (*models.Repair, error)
	SetFinishPhase(ctx context.Context, repairID int64, phase *models.FinishPhase) (*models.Repair, error)
	UpdateRepairStatus(ctx context.Context, repairID int64, status string) (*models.Repair, error)
	GetProject(ctx context.Context, projectID int64) (*models.Project, error)
	ProjectIDsByClient(ctx context.Context, clientID int64) ([]int64, error)
	ProjectIDsByTechnician(ctx context.Context, technicianID int64) ([]int64, error)
}

type RepairsHandler struct {
	dbClient       RepairStore
	engine         *listing.Engine
	machine        repairs.Machine
	realtimeClient *supabase.RealtimeClient
}

func NewRepairsHandler(dbClient RepairStore, engine *listing.Engine, machine repairs.Machine, realtimeClient *supabase.RealtimeClient) *RepairsHandler {
	return &RepairsHandler{
		dbClient:       dbClient,
		engine:         engine,
		machine:        machine,
		realtimeClient: realtimeClient,
	}
}

// ListRepairs godoc
// @Summary     List repairs
// @Description Paginated, role-scoped repair listing with column and phase-document filters
// @Tags        repairs
// @Produce     json
// @Security    Bearer
// @Param       project_id    query int    false "Project filter"
// @Param       status        query string false "pending, approved or rejected"
// @Param       elevation_name query string false "Elevation name"
// @Param       drop          query int    false "Drop coordinate"
// @Param       level         query int    false "Level coordinate"
// @Param       repair_types  query string false "Comma-separated repair types"
// @Param       technician_id query int    false "Technician attribution filter"
// @Param       page          query int    false "Page (default 1)"
// @Param       limit         query int    false "Page size (default 20)"
// @Param       sort_by       query string false "created_at, updated_at, id, status or project"
// @Param       sort_order    query string false "asc or desc"
// @Success     200 {object} models.RepairListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /repairs [get]
func (h *RepairsHandler) ListRepairs(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	filters := listing.RepairFilters{
		ProjectID:     queryInt64(c, "project_id"),
		Status:        c.Query("status"),
		ElevationName: c.Query("elevation_name"),
		Drop:          queryInt(c, "drop"),
		Level:         queryInt(c, "level"),
		TechnicianID:  queryInt64(c, "technician_id"),
	}
	if raw := c.Query("repair_types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filters.RepairTypes = append(filters.RepairTypes, t)
			}
		}
	}

	page := listing.PageRequest{
		Page:      intOr(c.Query("page"), 1),
		Limit:     intOr(c.Query("limit"), listing.DefaultLimit),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	result, err := h.engine.ListRepairs(c.Request.Context(), caller, filters, page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RepairListResponse{
		Repairs:    result.Repairs,
		Pagination: result.Pagination,
	})
}

// GetRepair godoc
// @Summary     Get one repair
// @Tags        repairs
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.Repair
// @Failure     404 {object} models.ErrorResponse
// @Router      /repairs/{repair_id} [get]
func (h *RepairsHandler) GetRepair(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	repairID, err := strconv.ParseInt(c.Param("repair_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid repair id"})
		return
	}

	repair, err := h.dbClient.GetRepair(c.Request.Context(), repairID)
	if err != nil {
		respondError(c, err)
		return
	}

	visible, err := h.canSeeProject(c, caller, repair.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !visible {
		// Hidden rows look absent, not forbidden.
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	c.JSON(http.StatusOK, repair)
}

// CreateRepair godoc
// @Summary     Create or resume a repair with a survey submission
// @Description Starts the Nth repair at a grid location, or resumes an existing one when its repair_index is given
// @Tags        repairs
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateRepairRequest true "Survey submission"
// @Success     201 {object} models.Repair
// @Failure     400 {object} models.ErrorResponse
// @Router      /repairs [post]
func (h *RepairsHandler) CreateRepair(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	var req models.CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	project, err := h.dbClient.GetProject(ctx, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	if caller.Role == models.RoleTechnician && !assignedToProject(project, caller.UserID) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "not assigned to this project"})
		return
	}

	if err := catalog.CheckCoordinates(project, req.ElevationName, req.Drop, req.Level); err != nil {
		respondError(c, err)
		return
	}

	sub := repairs.Submission{
		Slot:         models.PhaseSlotSurvey,
		RepairType:   req.RepairType,
		Measurements: req.Measurements,
		Comments:     req.Comments,
		Photos:       req.Photos,
		Actor:        repairs.Actor{UserID: caller.UserID, Name: caller.Name},
	}

	maxIndex, err := h.dbClient.MaxRepairIndex(ctx, project.ID, req.ElevationName, req.Drop, req.Level, req.RepairType)
	if err != nil {
		respondError(c, err)
		return
	}

	// An explicit index at or below the current maximum resumes that
	// repair; the next free index (or no index) starts a new one. Anything
	// past the next free index would leave a gap in the sequence.
	if req.RepairIndex > 0 && req.RepairIndex <= maxIndex {
		h.resumeRepair(c, project, req, sub)
		return
	}
	if req.RepairIndex > repairs.NextIndex(maxIndex) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation failed",
			Message: "repair_index would leave a gap in the sequence",
		})
		return
	}

	repair := &models.Repair{
		ProjectID:         project.ID,
		ProjectName:       project.Name,
		ElevationName:     req.ElevationName,
		Drop:              req.Drop,
		Level:             req.Level,
		RepairIndex:       repairs.NextIndex(maxIndex),
		Status:            models.RepairStatusPending,
		CreatedByUserID:   caller.UserID,
		CreatedByUserName: caller.Name,
	}
	if err := h.machine.Apply(project, repair, sub); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.dbClient.CreateRepair(ctx, repair)
	if err != nil {
		respondError(c, err)
		return
	}

	h.realtimeClient.PublishProjectEvent(project.ID, "repair_created",
		supabase.RepairCreatedPayload(created.ID, project.ID, created.RepairIndex))

	c.JSON(http.StatusCreated, created)
}

func (h *RepairsHandler) resumeRepair(c *gin.Context, project *models.Project, req models.CreateRepairRequest, sub repairs.Submission) {
	ctx := c.Request.Context()

	repair, err := h.dbClient.FindRepairByIndex(ctx, project.ID, req.ElevationName, req.Drop, req.Level, req.RepairType, req.RepairIndex)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.machine.Apply(project, repair, sub); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.dbClient.SetSurveyPhase(ctx, repair.ID, repair.Phases.Survey, len(repair.Phases.Progress))
	if err != nil {
		respondError(c, err)
		return
	}

	h.realtimeClient.PublishProjectEvent(project.ID, "phase_submitted",
		supabase.PhaseSubmittedPayload(updated.ID, models.PhaseSlotSurvey, 0, repairs.StateOf(updated.Phases).String()))

	c.JSON(http.StatusOK, updated)
}

// NextRepairIndex godoc
// @Summary     Compute the next repair index for a location and type
// @Tags        repairs
// @Produce     json
// @Security    Bearer
// @Param       project_id     query int    true "Project id"
// @Param       elevation_name query string true "Elevation name"
// @Param       drop           query int    true "Drop coordinate"
// @Param       level          query int    true "Level coordinate"
// @Param       repair_type    query string true "Repair type"
// @Success     200 {object} models.NextRepairIndexResponse
// @Router      /repairs/next-index [get]
func (h *RepairsHandler) NextRepairIndex(c *gin.Context) {
	projectID := queryInt64(c, "project_id")
	drop := queryInt(c, "drop")
	level := queryInt(c, "level")
	elevation := c.Query("elevation_name")
	repairType := c.Query("repair_type")
	if projectID == nil || drop == nil || level == nil || elevation == "" || repairType == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing location parameters"})
		return
	}

	max, err := h.dbClient.MaxRepairIndex(c.Request.Context(), *projectID, elevation, *drop, *level, repairType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NextRepairIndexResponse{NextRepairIndex: repairs.NextIndex(max)})
}

// SubmitPhase godoc
// @Summary     Submit a progress or finish phase
// @Tags        repairs
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SubmitPhaseRequest true "Phase submission"
// @Success     200 {object} models.Repair
// @Failure     400 {object} models.ErrorResponse
// @Router      /repairs/{repair_id}/phases [put]
func (h *RepairsHandler) SubmitPhase(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	repairID, err := strconv.ParseInt(c.Param("repair_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid repair id"})
		return
	}

	var req models.SubmitPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}
	if req.Slot != models.PhaseSlotProgress && req.Slot != models.PhaseSlotFinish {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation failed", Message: "slot must be progress or finish"})
		return
	}

	ctx := c.Request.Context()
	repair, err := h.dbClient.GetRepair(ctx, repairID)
	if err != nil {
		respondError(c, err)
		return
	}

	project, err := h.dbClient.GetProject(ctx, repair.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	if caller.Role == models.RoleTechnician && !assignedToProject(project, caller.UserID) {
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "not assigned to this project"})
		return
	}

	sub := repairs.Submission{
		Slot:          req.Slot,
		ProgressIndex: req.ProgressIndex,
		Measurements:  req.Measurements,
		Comments:      req.Comments,
		Photos:        req.Photos,
		Actor:         repairs.Actor{UserID: caller.UserID, Name: caller.Name},
	}
	if err := h.machine.Apply(project, repair, sub); err != nil {
		respondError(c, err)
		return
	}

	var updated *models.Repair
	if req.Slot == models.PhaseSlotProgress {
		updated, err = h.dbClient.SetProgressPhase(ctx, repairID, req.ProgressIndex, repair.Phases.Progress[req.ProgressIndex-1])
	} else {
		updated, err = h.dbClient.SetFinishPhase(ctx, repairID, repair.Phases.Finish)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.realtimeClient.PublishProjectEvent(project.ID, "phase_submitted",
		supabase.PhaseSubmittedPayload(repairID, req.Slot, req.ProgressIndex, repairs.StateOf(updated.Phases).String()))

	c.JSON(http.StatusOK, updated)
}

// ReviewRepair godoc
// @Summary     Approve or reject a repair
// @Tags        repairs
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ReviewRepairRequest true "Review decision"
// @Success     200 {object} models.Repair
// @Failure     403 {object} models.ErrorResponse
// @Router      /repairs/{repair_id}/status [put]
func (h *RepairsHandler) ReviewRepair(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	repairID, err := strconv.ParseInt(c.Param("repair_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid repair id"})
		return
	}

	var req models.ReviewRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	updated, err := h.dbClient.UpdateRepairStatus(c.Request.Context(), repairID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	h.realtimeClient.PublishProjectEvent(updated.ProjectID, "review_decision",
		supabase.ReviewDecisionPayload(repairID, req.Status, caller.UserID))

	c.JSON(http.StatusOK, updated)
}

// canSeeProject applies the same per-role project visibility the listing
// engine uses, for single-entity reads.
func (h *RepairsHandler) canSeeProject(c *gin.Context, caller models.Caller, projectID int64) (bool, error) {
	switch caller.Role {
	case models.RoleAdmin, models.RoleManager:
		return true, nil
	case models.RoleClient:
		ids, err := h.dbClient.ProjectIDsByClient(c.Request.Context(), caller.UserID)
		return containsID(ids, projectID), err
	case models.RoleTechnician:
		ids, err := h.dbClient.ProjectIDsByTechnician(c.Request.Context(), caller.UserID)
		return containsID(ids, projectID), err
	}
	return false, nil
}

func assignedToProject(p *models.Project, technicianID int64) bool {
	for _, t := range p.Technicians {
		if t.TechnicianID == technicianID {
			return true
		}
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func queryInt(c *gin.Context, key string) *int {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func queryInt64(c *gin.Context, key string) *int64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func intOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repairtrack-backend/internal/catalog"
	"repairtrack-backend/internal/middleware"
	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/supabase"
)

type ProjectsHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewProjectsHandler(dbClient *supabase.DatabaseClient) *ProjectsHandler {
	return &ProjectsHandler{
		dbClient: dbClient,
	}
}

// ListProjects godoc
// @Summary     List projects visible to the caller
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Param       status query string false "pending, in-progress or completed"
// @Param       page   query int    false "Page (default 1)"
// @Param       limit  query int    false "Page size (default 20)"
// @Success     200 {object} models.ProjectListResponse
// @Router      /projects [get]
func (h *ProjectsHandler) ListProjects(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	page := intOr(c.Query("page"), 1)
	limit := intOr(c.Query("limit"), 20)
	opts := supabase.ProjectListOptions{
		Status: c.Query("status"),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}

	switch caller.Role {
	case models.RoleAdmin, models.RoleManager:
		// Unrestricted.
	case models.RoleClient:
		opts.ClientID = &caller.UserID
	case models.RoleTechnician:
		opts.TechnicianID = &caller.UserID
	default:
		c.JSON(http.StatusOK, models.ProjectListResponse{
			Projects:   []models.Project{},
			Pagination: models.Pagination{Total: 0, Page: page, Limit: limit, TotalPages: 0},
		})
		return
	}

	projects, total, err := h.dbClient.ListProjects(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	c.JSON(http.StatusOK, models.ProjectListResponse{
		Projects: projects,
		Pagination: models.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	})
}

// GetProject godoc
// @Summary     Get one project
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.Project
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [get]
func (h *ProjectsHandler) GetProject(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}

	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	project, err := h.dbClient.GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	switch caller.Role {
	case models.RoleAdmin, models.RoleManager:
	case models.RoleClient:
		if project.ClientID != caller.UserID {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
			return
		}
	case models.RoleTechnician:
		if !assignedToProject(project, caller.UserID) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
			return
		}
	default:
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found"})
		return
	}

	c.JSON(http.StatusOK, project)
}

// CreateProject godoc
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateProjectRequest true "Project configuration"
// @Success     201 {object} models.Project
// @Failure     400 {object} models.ErrorResponse
// @Router      /projects [post]
func (h *ProjectsHandler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusPending
	}
	project := &models.Project{
		Name:        req.Name,
		ClientName:  req.ClientName,
		ClientID:    req.ClientID,
		Status:      status,
		Elevations:  req.Elevations,
		RepairTypes: req.RepairTypes,
		Technicians: req.Technicians,
	}

	if err := catalog.ValidateProject(project); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.dbClient.CreateProject(c.Request.Context(), project)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateProject godoc
// @Summary     Update a project's configuration
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateProjectRequest true "Fields to change"
// @Success     200 {object} models.Project
// @Failure     400 {object} models.ErrorResponse
// @Router      /projects/{project_id} [put]
func (h *ProjectsHandler) UpdateProject(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	project, err := h.dbClient.GetProject(ctx, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.ClientName != nil {
		project.ClientName = *req.ClientName
	}
	if req.ClientID != nil {
		project.ClientID = *req.ClientID
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.Elevations != nil {
		project.Elevations = req.Elevations
	}
	if req.RepairTypes != nil {
		project.RepairTypes = req.RepairTypes
	}
	if req.Technicians != nil {
		project.Technicians = req.Technicians
	}

	if err := catalog.ValidateProject(project); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.dbClient.UpdateProject(ctx, project)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteProject godoc
// @Summary     Delete a project
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.MessageResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /projects/{project_id} [delete]
func (h *ProjectsHandler) DeleteProject(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	if err := h.dbClient.DeleteProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "project deleted successfully"})
}

// ListProjectTechnicians godoc
// @Summary     Technicians assigned to a project
// @Description Used to scope the technician filter to one project's crew
// @Tags        projects
// @Produce     json
// @Security    Bearer
// @Success     200 {array} models.Technician
// @Router      /projects/{project_id}/technicians [get]
func (h *ProjectsHandler) ListProjectTechnicians(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.Param("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}

	project, err := h.dbClient.GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	technicians := catalog.AssignedTechnicians(project)
	if technicians == nil {
		technicians = []models.Technician{}
	}
	c.JSON(http.StatusOK, technicians)
}

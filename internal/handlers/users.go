package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/supabase"
)

type UsersHandler struct {
	dbClient *supabase.DatabaseClient
}

func NewUsersHandler(dbClient *supabase.DatabaseClient) *UsersHandler {
	return &UsersHandler{
		dbClient: dbClient,
	}
}

// ListUsers godoc
// @Summary     List users
// @Tags        users
// @Produce     json
// @Security    Bearer
// @Param       role query string false "Role filter"
// @Success     200 {object} models.UserListResponse
// @Router      /users [get]
func (h *UsersHandler) ListUsers(c *gin.Context) {
	users, err := h.dbClient.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, models.UserListResponse{Users: users})
}

// CreateUser godoc
// @Summary     Create a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateUserRequest true "User"
// @Success     201 {object} models.User
// @Failure     400 {object} models.ErrorResponse
// @Router      /users [post]
func (h *UsersHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	authUID, err := uuid.Parse(req.AuthUID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid auth uid"})
		return
	}

	status := req.Status
	if status == "" {
		status = models.UserStatusActive
	}
	user := &models.User{
		AuthUID: authUID,
		Name:    req.Name,
		Email:   req.Email,
		Role:    req.Role,
		Status:  status,
		Avatar:  req.Avatar,
	}

	created, err := h.dbClient.CreateUser(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetUser godoc
// @Summary     Get one user
// @Tags        users
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.User
// @Failure     404 {object} models.ErrorResponse
// @Router      /users/{user_id} [get]
func (h *UsersHandler) GetUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.dbClient.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser godoc
// @Summary     Update a user
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateUserRequest true "Fields to change"
// @Success     200 {object} models.User
// @Failure     404 {object} models.ErrorResponse
// @Router      /users/{user_id} [put]
func (h *UsersHandler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, err := h.dbClient.GetUser(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}

	updated, err := h.dbClient.UpdateUser(ctx, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteUser godoc
// @Summary     Delete a user
// @Tags        users
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.MessageResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /users/{user_id} [delete]
func (h *UsersHandler) DeleteUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.dbClient.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "user deleted successfully"})
}

package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"repairtrack-backend/internal/models"
	"repairtrack-backend/internal/services"
)

const maxPhotoBytes = 15 << 20 // 15 MB, matches the client-side compression ceiling

type PhotosHandler struct {
	photoService *services.PhotoService
}

func NewPhotosHandler(photoService *services.PhotoService) *PhotosHandler {
	return &PhotosHandler{
		photoService: photoService,
	}
}

// SignUpload godoc
// @Summary     Issue signed parameters for a direct photo upload
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SignUploadRequest true "Upload target"
// @Success     200 {object} models.SignedUploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /photos/sign [post]
func (h *PhotosHandler) SignUpload(c *gin.Context) {
	var req models.SignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	signed, err := h.photoService.SignDirectUpload(req.PublicID, req.Folder)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, signed)
}

// UploadPhoto godoc
// @Summary     Upload a repair photo through the server
// @Description Fallback for clients that cannot upload directly to the asset host
// @Tags        photos
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       project_id formData int  true "Project id"
// @Param       repair_id  formData int  true "Repair id"
// @Param       file       formData file true "Photo"
// @Success     201 {object} models.PhotoUploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /photos [post]
func (h *PhotosHandler) UploadPhoto(c *gin.Context) {
	projectID, err := strconv.ParseInt(c.PostForm("project_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid project id"})
		return
	}
	repairID, err := strconv.ParseInt(c.PostForm("repair_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid repair id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing file"})
		return
	}
	if fileHeader.Size > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "failed to read file", Message: err.Error()})
		return
	}

	result, err := h.photoService.UploadRepairPhoto(projectID, repairID, fileHeader.Filename, data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizmarket-backend/internal/app/service"
	"github.com/ikkim/bizmarket-backend/internal/middleware"
)

type UploadController struct {
	uploadService service.UploadService
}

func NewUploadController(uploadService service.UploadService) *UploadController {
	return &UploadController{
		uploadService: uploadService,
	}
}

type PresignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignWorkImage returns a direct upload URL for a work image
// POST /api/v1/owner/businesses/:id/images/presign
func (ctrl *UploadController) PresignWorkImage(c *gin.Context) {
	businessID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PresignRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := ctrl.uploadService.PresignWorkImage(c.Request.Context(), currentActor(c), businessID, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(c, err, "presign upload")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Presigned URL generated successfully", map[string]interface{}{
		"business_id": businessID,
		"key":         upload.Key,
	})
	c.JSON(http.StatusOK, upload)
}

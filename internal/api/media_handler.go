package api

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaService service.MediaService
}

func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

type UploadURLRequest struct {
	ContentType string              `json:"contentType" binding:"required"`
	Purpose     domain.MediaPurpose `json:"purpose" binding:"required"`
}

// RequestUploadURL godoc
// @Summary Get a presigned upload URL
// @Description The file is PUT directly to object storage; publicUrl is then used in the program.
// @Tags Media
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UploadURLRequest true "Upload details"
// @Success 200 {object} service.UploadTicket
// @Failure 400 {object} gin.H "Unsupported content type or purpose"
// @Router /media/upload-url [post]
func (h *MediaHandler) RequestUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	ticket, err := h.mediaService.RequestUpload(c.Request.Context(), ownerID, req.Purpose, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *MediaHandler) GetMedia(c *gin.Context) {
	mediaID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	asset, err := h.mediaService.GetMedia(c.Request.Context(), mediaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

package api

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LibraryHandler holds the library service dependency.
type LibraryHandler struct {
	libraryService service.LibraryService
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(libraryService service.LibraryService) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

// --- DTOs for API (Data Transfer Objects) ---

// LibraryItemRequest defines the expected JSON for creating or updating an item.
// Kind is ignored on update.
type LibraryItemRequest struct {
	Kind        domain.LibraryKind `json:"kind" binding:"omitempty,oneof=exercise recipe"`
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	MuscleGroup string             `json:"muscleGroup"`                      // e.g., "Chest", "Legs"
	Difficulty  string             `json:"difficulty"`                       // e.g., "Novice", "Advanced"
	VideoURL    string             `json:"videoUrl" binding:"omitempty,url"` // Optional, validated as URL if provided
	Calories    int                `json:"calories" binding:"min=0"`
	Ingredients []string           `json:"ingredients"`
}

func (r LibraryItemRequest) input() service.LibraryItemInput {
	return service.LibraryItemInput{
		Kind:        r.Kind,
		Name:        r.Name,
		Description: r.Description,
		MuscleGroup: r.MuscleGroup,
		Difficulty:  r.Difficulty,
		VideoURL:    r.VideoURL,
		Calories:    r.Calories,
		Ingredients: r.Ingredients,
	}
}

// LibraryItemResponse is the DTO for returning item details.
type LibraryItemResponse struct {
	ID          string             `json:"id"`
	CoachID     string             `json:"coachId"`
	Kind        domain.LibraryKind `json:"kind"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	MuscleGroup string             `json:"muscleGroup,omitempty"`
	Difficulty  string             `json:"difficulty,omitempty"`
	VideoURL    string             `json:"videoUrl,omitempty"`
	Calories    int                `json:"calories,omitempty"`
	Ingredients []string           `json:"ingredients,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// MapLibraryItemToResponse converts a domain.LibraryItem to its DTO.
func MapLibraryItemToResponse(item *domain.LibraryItem) LibraryItemResponse {
	if item == nil {
		return LibraryItemResponse{}
	}
	return LibraryItemResponse{
		ID:          item.ID.Hex(),
		CoachID:     item.CoachID.Hex(),
		Kind:        item.Kind,
		Name:        item.Name,
		Description: item.Description,
		MuscleGroup: item.MuscleGroup,
		Difficulty:  item.Difficulty,
		VideoURL:    item.VideoURL,
		Calories:    item.Calories,
		Ingredients: item.Ingredients,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// MapLibraryItemsToResponse converts a slice of items to DTOs.
func MapLibraryItemsToResponse(items []domain.LibraryItem) []LibraryItemResponse {
	responses := make([]LibraryItemResponse, len(items))
	for i := range items {
		responses[i] = MapLibraryItemToResponse(&items[i])
	}
	return responses
}

// --- Handler Methods ---

// CreateItem godoc
// @Summary Create a library item
// @Description Creates an exercise or recipe for the authenticated coach.
// @Tags Library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body LibraryItemRequest true "Item details"
// @Success 201 {object} LibraryItemResponse "Item created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a coach)"
// @Router /library [post]
func (h *LibraryHandler) CreateItem(c *gin.Context) {
	var req LibraryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}

	item, err := h.libraryService.CreateItem(c.Request.Context(), coachID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapLibraryItemToResponse(item))
}

// ListItems godoc
// @Summary List the coach's library
// @Tags Library
// @Produce json
// @Security BearerAuth
// @Param kind query string false "exercise or recipe"
// @Success 200 {array} LibraryItemResponse
// @Router /library [get]
func (h *LibraryHandler) ListItems(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.libraryService.ListItems(c.Request.Context(), coachID, domain.LibraryKind(c.Query("kind")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryItemsToResponse(items))
}

func (h *LibraryHandler) GetItem(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.libraryService.GetItem(c.Request.Context(), coachID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryItemToResponse(item))
}

func (h *LibraryHandler) UpdateItem(c *gin.Context) {
	var req LibraryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	item, err := h.libraryService.UpdateItem(c.Request.Context(), coachID, itemID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapLibraryItemToResponse(item))
}

func (h *LibraryHandler) DeleteItem(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.libraryService.DeleteItem(c.Request.Context(), coachID, itemID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

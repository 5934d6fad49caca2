package api

import (
	"alcyxob/coaching-app/internal/builder"
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramHandler serves program authoring and the draft/publish lifecycle.
type ProgramHandler struct {
	programService service.ProgramService
}

func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- DTOs ---

// ProgramRequest is used for both create and save. Omitted fields are left
// unchanged on save.
type ProgramRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Tags        *[]string        `json:"tags"`
	Category    *domain.Category `json:"category"`
	HeaderImage *string          `json:"headerImage" binding:"omitempty,url"`
	Guidance    *string          `json:"guidance"`
	ProTip      *string          `json:"proTip"`
	Warnings    *string          `json:"warnings"`
	Weeks       *[]domain.Week   `json:"weeks"`
}

func (r ProgramRequest) patch() service.ProgramPatch {
	return service.ProgramPatch{
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Category:    r.Category,
		HeaderImage: r.HeaderImage,
		Guidance:    r.Guidance,
		ProTip:      r.ProTip,
		Warnings:    r.Warnings,
		Weeks:       r.Weeks,
	}
}

type AddDayRequest struct {
	Name string `json:"name"`
}

type AddBlockRequest struct {
	Type    domain.BlockType    `json:"type" binding:"required"`
	Payload domain.BlockPayload `json:"payload"`
}

type UpdateBlockRequest struct {
	Payload domain.BlockPayload `json:"payload"`
}

type MoveBlockRequest struct {
	Direction builder.Direction `json:"direction" binding:"required,oneof=up down"`
}

// --- Lifecycle ---

// CreateProgram godoc
// @Summary Create a program draft
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body ProgramRequest true "Program fields"
// @Success 201 {object} domain.Program
// @Failure 400 {object} gin.H "Invalid input"
// @Router /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), coachID, req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

// ListPrograms returns the coach's programs; archived ones with ?archived=true.
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	includeArchived, _ := strconv.ParseBool(c.Query("archived"))

	programs, err := h.programService.ListPrograms(c.Request.Context(), coachID, includeArchived)
	if err != nil {
		respondError(c, err)
		return
	}
	if programs == nil {
		programs = []domain.Program{}
	}
	c.JSON(http.StatusOK, programs)
}

func (h *ProgramHandler) GetProgram(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	program, err := h.programService.GetProgram(c.Request.Context(), userID, role, programID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// SaveProgram godoc
// @Summary Save a program
// @Description Drafts accept any change. Published programs accept metadata only.
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Param program body ProgramRequest true "Changed fields"
// @Success 200 {object} domain.Program
// @Failure 409 {object} gin.H "Structural edit of a published program, or archived"
// @Failure 422 {object} gin.H "Metadata would make a published program invalid"
// @Router /programs/{id} [patch]
func (h *ProgramHandler) SaveProgram(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	program, err := h.programService.SaveDraft(c.Request.Context(), coachID, programID, req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

// PublishProgram godoc
// @Summary Publish a draft
// @Description Validates the whole program. Every problem is listed in `fields`.
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Program ID"
// @Success 200 {object} domain.Program
// @Failure 409 {object} gin.H "Archived"
// @Failure 422 {object} gin.H "Validation failed"
// @Router /programs/{id}/publish [post]
func (h *ProgramHandler) PublishProgram(c *gin.Context) {
	h.lifecycle(c, h.programService.Publish, http.StatusOK)
}

func (h *ProgramHandler) ArchiveProgram(c *gin.Context) {
	h.lifecycle(c, h.programService.Archive, http.StatusOK)
}

func (h *ProgramHandler) ForkProgram(c *gin.Context) {
	h.lifecycle(c, h.programService.Fork, http.StatusCreated)
}

type lifecycleFunc func(ctx context.Context, coachID, programID primitive.ObjectID) (*domain.Program, error)

func (h *ProgramHandler) lifecycle(c *gin.Context, fn lifecycleFunc, code int) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	program, err := fn(c.Request.Context(), coachID, programID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(code, program)
}

// --- Builder ---

// edit runs one authoring step against the program in the path.
func (h *ProgramHandler) edit(c *gin.Context, op service.EditFunc) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	program, err := h.programService.Edit(c.Request.Context(), coachID, programID, op)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

func (h *ProgramHandler) AddWeek(c *gin.Context) {
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.AddWeek(p), nil
	})
}

func (h *ProgramHandler) RemoveWeek(c *gin.Context) {
	weekID := c.Param("weekId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.RemoveWeek(p, weekID)
	})
}

func (h *ProgramHandler) DuplicateWeek(c *gin.Context) {
	weekID := c.Param("weekId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.DuplicateWeek(p, weekID)
	})
}

// AddDay fails with 422 once the week holds seven days.
func (h *ProgramHandler) AddDay(c *gin.Context) {
	var req AddDayRequest
	// The body is optional; the day gets a default name.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	weekID := c.Param("weekId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.AddDay(p, weekID, req.Name)
	})
}

func (h *ProgramHandler) RenameDay(c *gin.Context) {
	var req AddDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	weekID, dayID := c.Param("weekId"), c.Param("dayId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.RenameDay(p, weekID, dayID, req.Name)
	})
}

func (h *ProgramHandler) RemoveDay(c *gin.Context) {
	weekID, dayID := c.Param("weekId"), c.Param("dayId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.RemoveDay(p, weekID, dayID)
	})
}

func (h *ProgramHandler) AddBlock(c *gin.Context) {
	var req AddBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	weekID, dayID := c.Param("weekId"), c.Param("dayId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.AddBlock(p, weekID, dayID, domain.ContentBlock{Type: req.Type, Payload: req.Payload})
	})
}

func (h *ProgramHandler) UpdateBlock(c *gin.Context) {
	var req UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	weekID, dayID, blockID := c.Param("weekId"), c.Param("dayId"), c.Param("blockId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.UpdateBlock(p, weekID, dayID, blockID, req.Payload)
	})
}

func (h *ProgramHandler) MoveBlock(c *gin.Context) {
	var req MoveBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	weekID, dayID, blockID := c.Param("weekId"), c.Param("dayId"), c.Param("blockId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.MoveBlock(p, weekID, dayID, blockID, req.Direction)
	})
}

func (h *ProgramHandler) RemoveBlock(c *gin.Context) {
	weekID, dayID, blockID := c.Param("weekId"), c.Param("dayId"), c.Param("blockId")
	h.edit(c, func(p domain.Program) (domain.Program, error) {
		return builder.RemoveBlock(p, weekID, dayID, blockID)
	})
}

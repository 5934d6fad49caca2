package api

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentHandler struct {
	assignmentService service.AssignmentService
}

func NewAssignmentHandler(assignmentService service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

type AssignProgramRequest struct {
	ProgramID       string `json:"programId" binding:"required"`
	ClientID        string `json:"clientId" binding:"required"`
	PersonalMessage string `json:"personalMessage" binding:"max=2000"`
}

// CurrentAssignmentResponse is what a client sees for their running program.
type CurrentAssignmentResponse struct {
	Assignment *domain.ProgramAssignment `json:"assignment"`
	Program    *domain.Program           `json:"program"`
}

// AssignProgram godoc
// @Summary Assign a published program to a client
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body AssignProgramRequest true "Assignment"
// @Success 201 {object} domain.ProgramAssignment
// @Failure 404 {object} gin.H "Program or client not found"
// @Failure 409 {object} gin.H "Client already has an active program, or program not published"
// @Router /assignments [post]
func (h *AssignmentHandler) AssignProgram(c *gin.Context) {
	var req AssignProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid programId format")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid clientId format")
		return
	}

	assignment, err := h.assignmentService.AssignProgram(c.Request.Context(), coachID, programID, clientID, req.PersonalMessage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *AssignmentHandler) MarkComplete(c *gin.Context) {
	h.transition(c, h.assignmentService.MarkComplete)
}

func (h *AssignmentHandler) Expire(c *gin.Context) {
	h.transition(c, h.assignmentService.Expire)
}

func (h *AssignmentHandler) transition(c *gin.Context, fn func(ctx context.Context, coachID, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error)) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	assignment, err := fn(c.Request.Context(), coachID, assignmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// MyAssignment returns the client's active assignment with its program.
func (h *AssignmentHandler) MyAssignment(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignment, program, err := h.assignmentService.CurrentForClient(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CurrentAssignmentResponse{Assignment: assignment, Program: program})
}

func (h *AssignmentHandler) MyAssignments(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignments, err := h.assignmentService.ListForClient(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	if assignments == nil {
		assignments = []domain.ProgramAssignment{}
	}
	c.JSON(http.StatusOK, assignments)
}

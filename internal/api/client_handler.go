package api

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientHandler serves the coach's client views and the client's own
// dashboard and check-ins.
type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

type CheckInRequest struct {
	Notes string `json:"notes" binding:"required,max=5000"`
}

type CheckInResponseRequest struct {
	Response string `json:"response" binding:"required,max=5000"`
}

// --- Coach ---

// ListClients godoc
// @Summary List clients with their derived status
// @Description The coach's roster plus every client with a pending coaching request.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.ClientOverview
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a coach)"
// @Router /coach/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	clients, err := h.clientService.ListClientsWithStatus(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) ListPendingRequests(c *gin.Context) {
	requests, err := h.clientService.ListPendingRequests(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []domain.Request{}
	}
	c.JSON(http.StatusOK, requests)
}

func (h *ClientHandler) MarkRequestSeen(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	req, err := h.clientService.MarkRequestSeen(c.Request.Context(), coachID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *ClientHandler) ListPendingCheckIns(c *gin.Context) {
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkIns, err := h.clientService.ListPendingCheckIns(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err)
		return
	}
	if checkIns == nil {
		checkIns = []domain.CheckIn{}
	}
	c.JSON(http.StatusOK, checkIns)
}

func (h *ClientHandler) RespondToCheckIn(c *gin.Context) {
	var req CheckInResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := currentUserID(c)
	if !ok {
		return
	}
	checkInID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	checkIn, err := h.clientService.RespondToCheckIn(c.Request.Context(), coachID, checkInID, req.Response)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkIn)
}

// --- Client ---

func (h *ClientHandler) MyStatus(c *gin.Context) {
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}
	overview, err := h.clientService.MyStatus(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *ClientHandler) SubmitCheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	clientID, ok := currentUserID(c)
	if !ok {
		return
	}

	checkIn, err := h.clientService.SubmitCheckIn(c.Request.Context(), clientID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkIn)
}

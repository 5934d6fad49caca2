package api

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/service"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxWebhookBytes bounds the webhook body read.
const maxWebhookBytes = 64 << 10

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

type CheckoutRequest struct {
	PlanType domain.PlanType `json:"planType" binding:"required"`
}

// Checkout godoc
// @Summary Start a subscription
// @Description TRIAL activates immediately and returns the subscription. Paid plans return the hosted checkout URL.
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CheckoutRequest true "Plan"
// @Success 200 {object} domain.Subscription "Trial subscription"
// @Failure 400 {object} gin.H "Invalid plan or trial already used"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), userID, req.PlanType)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.URL != "" {
		c.JSON(http.StatusOK, gin.H{"url": result.URL})
		return
	}
	c.JSON(http.StatusOK, result.Subscription)
}

// Webhook receives gateway notifications. It is unauthenticated; the payload
// signature is verified instead.
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Unable to read request body")
		return
	}

	if err := h.checkoutService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		slog.Warn("webhook rejected", "error", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

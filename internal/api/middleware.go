package api

import (
	"alcyxob/coaching-app/internal/builder"
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/payment"
	"alcyxob/coaching-app/internal/service"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims, err := authService.ParseToken(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(ContextUserIDKey, claims.UserID) // hex string
		c.Set(ContextUserRoleKey, claims.Role)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, err := getUserRoleFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		if !slices.Contains(allowedRoles, userRole) {
			abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
			return
		}
		c.Next()
	}
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// Helper function to get User Role from context (used by handlers)
func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}

// currentUserID returns the authenticated user's id. On failure the request
// is aborted with 401 and ok is false.
func currentUserID(c *gin.Context) (id primitive.ObjectID, ok bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token")
		return primitive.NilObjectID, false
	}
	id, err = primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user ID format in token")
		return primitive.NilObjectID, false
	}
	return id, true
}

// objectIDParam parses a path parameter, aborting with 400 when malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

var errorStatus = []struct {
	code int
	errs []error
}{
	{http.StatusBadRequest, []error{
		service.ErrMissingCredentials, service.ErrInvalidPlanType, service.ErrInvalidRole, service.ErrTrialAlreadyUsed,
		service.ErrInvalidCategory, service.ErrValidationFailed, service.ErrEmptyMessage,
		service.ErrUnsupportedMediaType, service.ErrInvalidMediaPurpose, service.ErrNotAClient,
		builder.ErrInvalidBlockType, builder.ErrInvalidDirection, payment.ErrInvalidSignature,
	}},
	{http.StatusUnauthorized, []error{service.ErrAuthenticationFailed, service.ErrInvalidToken}},
	{http.StatusForbidden, []error{
		service.ErrProgramAccessDenied, service.ErrAssignmentAccessDenied, service.ErrCheckInAccessDenied,
		service.ErrLibraryItemAccessDenied, service.ErrNotCustomer,
	}},
	{http.StatusNotFound, []error{
		service.ErrUserNotFound, service.ErrProgramNotFound, service.ErrAssignmentNotFound,
		service.ErrClientNotFound, service.ErrCheckInNotFound, service.ErrRequestNotFound,
		service.ErrLibraryItemNotFound, service.ErrMediaNotFound,
		builder.ErrWeekNotFound, builder.ErrDayNotFound, builder.ErrBlockNotFound,
	}},
	{http.StatusConflict, []error{
		service.ErrUserAlreadyExists, service.ErrActiveAssignmentExists, service.ErrProgramFrozen,
		service.ErrProgramArchived, service.ErrInvalidTransition, service.ErrProgramNotPublished,
		service.ErrCheckInAlreadyAnswered,
	}},
	{http.StatusUnprocessableEntity, []error{builder.ErrDayLimit}},
	{http.StatusServiceUnavailable, []error{payment.ErrGatewayDisabled, payment.ErrNoPriceForPlan}},
}

// respondError maps a service error to its HTTP status. Anything unknown is
// logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var verr *builder.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": "validation failed", "fields": verr.Fields})
		return
	}
	for _, group := range errorStatus {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				abortWithError(c, group.code, err.Error())
				return
			}
		}
	}

	slog.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	abortWithError(c, http.StatusInternalServerError, "something went wrong")
}

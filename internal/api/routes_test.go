package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alcyxob/coaching-app/internal/config"
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/events"
	"alcyxob/coaching-app/internal/payment"
	"alcyxob/coaching-app/internal/repository/memory"
	"alcyxob/coaching-app/internal/service"
	"alcyxob/coaching-app/internal/status"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct{}

func (fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/" + objectKey, nil
}

func (fakeStorage) PublicURL(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := memory.NewRepositories()
	publisher := events.NoopPublisher{}
	// No secret key configured, so paid checkouts report the gateway as disabled.
	gateway := payment.NewStripeGateway(config.StripeConfig{})

	router := gin.New()
	SetupRoutes(router, Services{
		Auth:        service.NewAuthService(repos, "test-secret", time.Hour, 14*24*time.Hour),
		Checkout:    service.NewCheckoutService(repos, gateway, 14*24*time.Hour, 30*24*time.Hour),
		Programs:    service.NewProgramService(repos, publisher),
		Assignments: service.NewAssignmentService(repos, publisher),
		Clients:     service.NewClientService(repos, status.DefaultThresholds()),
		Library:     service.NewLibraryService(repos.Library),
		Media:       service.NewMediaService(repos.Media, fakeStorage{}),
	})
	return router
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func serve(router *gin.Engine, method, path, token string, obj any) *httptest.ResponseRecorder {
	var data []byte
	if obj != nil {
		data, _ = json.Marshal(obj)
	}
	req, rec := newAuthRequest(method, path, token, data)
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

// signUp registers and logs in, returning the new user's id and token.
func signUp(t *testing.T, router *gin.Engine, name string, role domain.Role, plan domain.PlanType) (string, string) {
	t.Helper()
	rec := serve(router, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "password123",
		"role":     role,
		"planType": plan,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered RegisterResponse
	decode(t, rec, &registered)

	rec = serve(router, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    name + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login LoginResponse
	decode(t, rec, &login)
	return registered.UserID, login.Token
}

var fullBodyProgram = gin.H{
	"title":    "Full Body",
	"category": "fitness",
	"weeks": []gin.H{{
		"days": []gin.H{{
			"name":   "Monday",
			"blocks": []gin.H{{"type": "text", "payload": gin.H{"text": "Warm up for ten minutes."}}},
		}},
	}},
}

func TestPing(t *testing.T) {
	router := newTestRouter(t)
	rec := serve(router, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)
	body := gin.H{"name": "Dana", "email": "dana@example.com", "password": "password123", "planType": "TRIAL"}

	rec := serve(router, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var registered RegisterResponse
	decode(t, rec, &registered)
	assert.Len(t, registered.UserID, 24)

	rec = serve(router, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	var errBody struct {
		Message string `json:"message"`
	}
	decode(t, rec, &errBody)
	assert.NotEmpty(t, errBody.Message)
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		name string
		body gin.H
	}{
		{"bad email", gin.H{"name": "Dana", "email": "not-an-email", "password": "password123", "planType": "TRIAL"}},
		{"short password", gin.H{"name": "Dana", "email": "dana@example.com", "password": "short", "planType": "TRIAL"}},
		{"unknown plan", gin.H{"name": "Dana", "email": "dana@example.com", "password": "password123", "planType": "GOLD"}},
		{"customer without plan", gin.H{"name": "Dana", "email": "dana@example.com", "password": "password123"}},
		{"blank name", gin.H{"name": "   ", "email": "dana@example.com", "password": "password123", "planType": "TRIAL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	signUp(t, router, "dana", domain.RoleCustomer, domain.PlanTrial)

	rec := serve(router, http.MethodPost, "/api/auth/login", "", gin.H{"email": "dana@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckout(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodPost, "/api/checkout", "", gin.H{"planType": "STANDARD"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodPost, "/api/checkout", "not-a-token", gin.H{"planType": "STANDARD"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, token := signUp(t, router, "dana", domain.RoleCustomer, domain.PlanTrial)

	rec = serve(router, http.MethodPost, "/api/checkout", token, gin.H{"planType": "TRIAL"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "trial already used")

	rec = serve(router, http.MethodPost, "/api/checkout", token, gin.H{"planType": "STANDARD"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")
	rec = serve(router, http.MethodPost, "/api/checkout", coachToken, gin.H{"planType": "STANDARD"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckoutWebhookRejectedWhenGatewayDisabled(t *testing.T) {
	router := newTestRouter(t)
	req, rec := newAuthRequest(http.MethodPost, "/api/checkout/webhook", "", []byte(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	router := newTestRouter(t)
	_, clientToken := signUp(t, router, "dana", domain.RoleCustomer, domain.PlanTrial)
	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")

	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/programs", clientToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/coach/clients", clientToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/api/me/status", coachToken, nil).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/me", coachToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/api/programs/not-an-id", coachToken, nil).Code)
}

func TestAssignFlow(t *testing.T) {
	router := newTestRouter(t)
	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")
	clientID, clientToken := signUp(t, router, "dana", domain.RoleCustomer, domain.PlanTrial)

	rec := serve(router, http.MethodGet, "/api/coach/requests", coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var requests []domain.Request
	decode(t, rec, &requests)
	require.Len(t, requests, 1)

	rec = serve(router, http.MethodPost, "/api/programs", coachToken, fullBodyProgram)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var program domain.Program
	decode(t, rec, &program)
	assert.Equal(t, domain.ProgramDraft, program.State)

	// Drafts are not assignable.
	assign := gin.H{"programId": program.ID.Hex(), "clientId": clientID, "personalMessage": "Welcome aboard"}
	rec = serve(router, http.MethodPost, "/api/assignments", coachToken, assign)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, http.MethodPost, "/api/programs/"+program.ID.Hex()+"/publish", coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &program)
	assert.Equal(t, domain.ProgramPublished, program.State)

	rec = serve(router, http.MethodPost, "/api/assignments", coachToken, assign)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var assignment domain.ProgramAssignment
	decode(t, rec, &assignment)
	assert.Equal(t, domain.AssignmentActive, assignment.Status)

	rec = serve(router, http.MethodPost, "/api/assignments", coachToken, assign)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, http.MethodGet, "/api/me/assignment", clientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current CurrentAssignmentResponse
	decode(t, rec, &current)
	assert.Equal(t, "Full Body", current.Program.Title)
	assert.Equal(t, "Welcome aboard", current.Assignment.PersonalMessage)

	// The assigned client may read the program; other clients may not.
	rec = serve(router, http.MethodGet, "/api/programs/"+program.ID.Hex(), clientToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, strangerToken := signUp(t, router, "sam", domain.RoleCustomer, domain.PlanTrial)
	rec = serve(router, http.MethodGet, "/api/programs/"+program.ID.Hex(), strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(router, http.MethodGet, "/api/me/status", clientToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview service.ClientOverview
	decode(t, rec, &overview)
	assert.Equal(t, domain.StatusNewComer, overview.Status)

	rec = serve(router, http.MethodPost, "/api/assignments/"+assignment.ID.Hex()+"/complete", coachToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(router, http.MethodPost, "/api/assignments/"+assignment.ID.Hex()+"/expire", coachToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublishValidation(t *testing.T) {
	router := newTestRouter(t)
	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")

	rec := serve(router, http.MethodPost, "/api/programs", coachToken, gin.H{"category": "fitness"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var program domain.Program
	decode(t, rec, &program)

	rec = serve(router, http.MethodPost, "/api/programs/"+program.ID.Hex()+"/publish", coachToken, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var body struct {
		Message string `json:"message"`
		Fields  []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	decode(t, rec, &body)
	fields := make([]string, 0, len(body.Fields))
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "weeks")

	rec = serve(router, http.MethodGet, "/api/programs/"+program.ID.Hex(), coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &program)
	assert.Equal(t, domain.ProgramDraft, program.State)
}

func TestDayLimit(t *testing.T) {
	router := newTestRouter(t)
	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")

	rec := serve(router, http.MethodPost, "/api/programs", coachToken, gin.H{"title": "Split"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var program domain.Program
	decode(t, rec, &program)
	base := "/api/programs/" + program.ID.Hex()

	rec = serve(router, http.MethodPost, base+"/weeks", coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &program)
	require.Len(t, program.Weeks, 1)
	weekPath := base + "/weeks/" + program.Weeks[0].ID + "/days"

	for i := 0; i < domain.MaxDaysPerWeek; i++ {
		rec = serve(router, http.MethodPost, weekPath, coachToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, "day %d: %s", i+1, rec.Body.String())
	}
	decode(t, rec, &program)
	assert.Len(t, program.Weeks[0].Days, domain.MaxDaysPerWeek)
	assert.Equal(t, fmt.Sprintf("Day %d", domain.MaxDaysPerWeek), program.Weeks[0].Days[domain.MaxDaysPerWeek-1].Name)

	rec = serve(router, http.MethodPost, weekPath, coachToken, gin.H{"name": "Sunday bonus"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(router, http.MethodPost, base+"/weeks/missing/days", coachToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockEditing(t *testing.T) {
	router := newTestRouter(t)
	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")

	rec := serve(router, http.MethodPost, "/api/programs", coachToken, fullBodyProgram)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var program domain.Program
	decode(t, rec, &program)
	week, day := program.Weeks[0], program.Weeks[0].Days[0]
	blocks := fmt.Sprintf("/api/programs/%s/weeks/%s/days/%s/blocks", program.ID.Hex(), week.ID, day.ID)

	rec = serve(router, http.MethodPost, blocks, coachToken, gin.H{"type": "pro_tip", "payload": gin.H{"text": "Breathe out on the way up."}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &program)
	require.Len(t, program.Weeks[0].Days[0].Blocks, 2)
	tip := program.Weeks[0].Days[0].Blocks[1]

	rec = serve(router, http.MethodPost, blocks+"/"+tip.ID+"/move", coachToken, gin.H{"direction": "up"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &program)
	assert.Equal(t, tip.ID, program.Weeks[0].Days[0].Blocks[0].ID)

	rec = serve(router, http.MethodPost, blocks+"/"+tip.ID+"/move", coachToken, gin.H{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodPost, blocks, coachToken, gin.H{"type": "carousel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, http.MethodDelete, blocks+"/"+tip.ID, coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &program)
	assert.Len(t, program.Weeks[0].Days[0].Blocks, 1)

	// Published programs are frozen.
	rec = serve(router, http.MethodPost, "/api/programs/"+program.ID.Hex()+"/publish", coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = serve(router, http.MethodDelete, blocks+"/"+program.Weeks[0].Days[0].Blocks[0].ID, coachToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLibraryAndMedia(t *testing.T) {
	router := newTestRouter(t)
	_, coachToken := signUp(t, router, "coach", domain.RoleCoach, "")

	rec := serve(router, http.MethodPost, "/api/library", coachToken, gin.H{"kind": "exercise", "name": "Push-up", "muscleGroup": "Chest"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item LibraryItemResponse
	decode(t, rec, &item)

	rec = serve(router, http.MethodGet, "/api/library?kind=exercise", coachToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []LibraryItemResponse
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Push-up", items[0].Name)

	rec = serve(router, http.MethodDelete, "/api/library/"+item.ID, coachToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(router, http.MethodPost, "/api/media/upload-url", coachToken, gin.H{"contentType": "image/jpeg", "purpose": "header_image"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var ticket service.UploadTicket
	decode(t, rec, &ticket)
	assert.Contains(t, ticket.ObjectKey, "media/header_image/")

	rec = serve(router, http.MethodGet, "/api/media/"+ticket.MediaID, coachToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPost, "/api/media/upload-url", coachToken, gin.H{"contentType": "text/html", "purpose": "header_image"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

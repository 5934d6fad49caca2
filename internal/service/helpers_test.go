package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/payment"
	"alcyxob/coaching-app/internal/repository"
	"alcyxob/coaching-app/internal/repository/memory"
	"alcyxob/coaching-app/internal/status"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

// recordingPublisher keeps every published event for assertions.
type recordingPublisher struct {
	mu         sync.Mutex
	published  []primitive.ObjectID
	created    []primitive.ObjectID
	transition []domain.AssignmentStatus
}

func (p *recordingPublisher) PublishProgramPublished(program *domain.Program) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, program.ID)
	return nil
}

func (p *recordingPublisher) PublishAssignmentCreated(a *domain.ProgramAssignment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, a.ID)
	return nil
}

func (p *recordingPublisher) PublishAssignmentStatusChanged(a *domain.ProgramAssignment, _ domain.AssignmentStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transition = append(p.transition, a.Status)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) publishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func (p *recordingPublisher) createdCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created)
}

// fakeGateway hands out predictable sessions and trusts any signature
// equal to "valid".
type fakeGateway struct {
	sessions []payment.CheckoutRequest
	event    *payment.WebhookEvent
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.sessions = append(g.sessions, req)
	id := "cs_test_" + req.SubscriptionID
	return &payment.CheckoutSession{ID: id, URL: "https://checkout.example.com/" + id}, nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, signature string) (*payment.WebhookEvent, error) {
	if signature != "valid" || g.event == nil {
		return nil, payment.ErrInvalidSignature
	}
	return g.event, nil
}

type fakeStorage struct{}

func (fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/" + objectKey + "?X-Amz-Signature=abc", nil
}

func (fakeStorage) PublicURL(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

type testEnv struct {
	repos       repository.Repositories
	publisher   *recordingPublisher
	gateway     *fakeGateway
	auth        AuthService
	checkout    CheckoutService
	programs    ProgramService
	assignments AssignmentService
	clients     ClientService
	library     LibraryService
	media       MediaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := memory.NewRepositories()
	pub := &recordingPublisher{}
	gw := &fakeGateway{}
	return &testEnv{
		repos:       repos,
		publisher:   pub,
		gateway:     gw,
		auth:        NewAuthService(repos, testSecret, time.Hour, 14*24*time.Hour),
		checkout:    NewCheckoutService(repos, gw, 14*24*time.Hour, 30*24*time.Hour),
		programs:    NewProgramService(repos, pub),
		assignments: NewAssignmentService(repos, pub),
		clients:     NewClientService(repos, status.DefaultThresholds()),
		library:     NewLibraryService(repos.Library),
		media:       NewMediaService(repos.Media, fakeStorage{}),
	}
}

func (e *testEnv) register(t *testing.T, name string, role domain.Role, plan domain.PlanType) *domain.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
		PlanType: plan,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) coach(t *testing.T) *domain.User {
	return e.register(t, "coach", domain.RoleCoach, "")
}

// payingClient registers a customer and completes checkout for a paid plan.
func (e *testEnv) payingClient(t *testing.T, name string, plan domain.PlanType) *domain.User {
	t.Helper()
	ctx := context.Background()
	user := e.register(t, name, domain.RoleCustomer, plan)
	result, err := e.checkout.Checkout(ctx, user.ID, plan)
	require.NoError(t, err)
	e.gateway.event = &payment.WebhookEvent{
		Type:      payment.EventCheckoutCompleted,
		SessionID: "cs_test_" + result.Subscription.ID.Hex(),
		Paid:      true,
	}
	require.NoError(t, e.checkout.HandleWebhook(ctx, []byte(`{}`), "valid"))
	return user
}

func strPtr(s string) *string { return &s }

func categoryPtr(c domain.Category) *domain.Category { return &c }

// fullBody is a minimal publishable program: one week, one day, one block.
func fullBody() ProgramPatch {
	weeks := []domain.Week{{
		Days: []domain.Day{{
			Name: "Monday",
			Blocks: []domain.ContentBlock{
				{Type: domain.BlockText, Payload: domain.BlockPayload{Text: "Warm up for ten minutes."}},
			},
		}},
	}}
	return ProgramPatch{
		Title:    strPtr("Full Body"),
		Category: categoryPtr(domain.CategoryFitness),
		Weeks:    &weeks,
	}
}

// publishedProgram creates and publishes the full body program.
func (e *testEnv) publishedProgram(t *testing.T, coachID primitive.ObjectID) *domain.Program {
	t.Helper()
	ctx := context.Background()
	draft, err := e.programs.CreateProgram(ctx, coachID, fullBody())
	require.NoError(t, err)
	published, err := e.programs.Publish(ctx, coachID, draft.ID)
	require.NoError(t, err)
	return published
}

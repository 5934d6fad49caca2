package service

import (
	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidPlanType      = errors.New("invalid plan type")
	ErrInvalidRole          = errors.New("invalid role")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrMissingCredentials   = errors.New("name, email and password cannot be empty")
)

// RegisterInput is everything needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	PlanType domain.PlanType // required for customers
	Role     domain.Role     // defaults to CUSTOMER
}

// Claims is the JWT payload.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Register creates the account. Customers also get their subscription
	// and a PENDING coaching request.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ParseToken(token string) (*Claims, error)
	GetMe(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	CompleteOnboarding(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	subRepo       repository.SubscriptionRepository
	requestRepo   repository.RequestRepository
	jwtSecret     string
	jwtExpiration time.Duration
	trialDuration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(repos repository.Repositories, jwtSecret string, jwtExpiration, trialDuration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      repos.Users,
		subRepo:       repos.Subscriptions,
		requestRepo:   repos.Requests,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		trialDuration: trialDuration,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}
	if in.Role == "" {
		in.Role = domain.RoleCustomer
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if in.Role == domain.RoleCustomer && !in.PlanType.Valid() {
		return nil, ErrInvalidPlanType
	}

	_, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Role:         in.Role,
		CreatedAt:    now,
		LastActiveAt: &now,
	}
	if _, err = s.userRepo.Create(ctx, user); err != nil {
		// The unique index catches a concurrent registration with the same email.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	if user.IsCustomer() {
		sub := newSubscription(user.ID, in.PlanType, now, s.trialDuration)
		if _, err = s.subRepo.Create(ctx, sub); err != nil {
			return nil, fmt.Errorf("create subscription: %w", err)
		}
		req := &domain.Request{ClientID: user.ID, PlanType: in.PlanType, Status: domain.RequestPending, CreatedAt: now}
		if _, err = s.requestRepo.Create(ctx, req); err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
	}

	slog.Info("user registered", "user_id", user.ID.Hex(), "role", user.Role, "plan", in.PlanType)
	user.PasswordHash = ""
	return user, nil
}

// newSubscription starts a trial immediately; paid plans wait for checkout.
func newSubscription(userID primitive.ObjectID, plan domain.PlanType, now time.Time, trialDuration time.Duration) *domain.Subscription {
	sub := &domain.Subscription{
		UserID:    userID,
		PlanType:  plan,
		Status:    domain.SubscriptionPending,
		StartDate: now,
		CreatedAt: now,
	}
	if !plan.Paid() {
		end := now.Add(trialDuration)
		sub.Status = domain.SubscriptionActive
		sub.EndDate = &end
	}
	return sub
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		err = ErrMissingCredentials
		return
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
		}
		return
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	if err := s.userRepo.TouchActivity(ctx, user.ID); err != nil {
		slog.Warn("failed to record login activity", "user_id", user.ID.Hex(), "error", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "coaching-app",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken verifies the signature and expiry of a token issued by Login.
func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *authService) GetMe(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) CompleteOnboarding(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	if err := s.userRepo.SetOnboardingComplete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetMe(ctx, userID)
}

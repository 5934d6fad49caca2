// Package payment wraps the hosted-checkout payment gateway. Card handling
// and billing stay with the provider; the service only creates checkout
// sessions and reads back the completion webhook.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"alcyxob/coaching-app/internal/config"
	"alcyxob/coaching-app/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrGatewayDisabled  = errors.New("payment gateway is not configured")
	ErrNoPriceForPlan   = errors.New("no price configured for plan")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// EventCheckoutCompleted is the only webhook event acted upon.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutRequest describes a hosted checkout for one pending subscription.
type CheckoutRequest struct {
	UserID         string
	SubscriptionID string
	Email          string
	Plan           domain.PlanType
}

type CheckoutSession struct {
	ID  string
	URL string
}

// WebhookEvent is the part of a gateway notification the service needs.
type WebhookEvent struct {
	Type           string
	SessionID      string
	SubscriptionID string // our subscription id, echoed back from metadata
	Paid           bool
}

// Gateway creates checkout sessions and authenticates webhooks.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
	prices        map[domain.PlanType]string
}

// NewStripeGateway returns a Stripe-backed gateway, or a disabled one when
// no secret key is configured.
func NewStripeGateway(cfg config.StripeConfig) Gateway {
	if cfg.SecretKey == "" {
		return disabledGateway{}
	}
	return &stripeGateway{
		api:           client.New(cfg.SecretKey, nil),
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		prices: map[domain.PlanType]string{
			domain.PlanOTP:      cfg.PriceOTP,
			domain.PlanStandard: cfg.PriceStandard,
			domain.PlanPremium:  cfg.PricePremium,
		},
	}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	price := g.prices[req.Plan]
	if price == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPriceForPlan, req.Plan)
	}

	// One-time payments are a single charge; the other paid plans recur.
	mode := stripe.CheckoutSessionModeSubscription
	if req.Plan == domain.PlanOTP {
		mode = stripe.CheckoutSessionModePayment
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.UserID),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.AddMetadata("subscription_id", req.SubscriptionID)
	params.AddMetadata("plan_type", string(req.Plan))

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *stripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if out.Type != EventCheckoutCompleted {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = session.ID
	out.SubscriptionID = session.Metadata["subscription_id"]
	out.Paid = session.PaymentStatus != stripe.CheckoutSessionPaymentStatusUnpaid
	return out, nil
}

type disabledGateway struct{}

func (disabledGateway) CreateCheckoutSession(context.Context, CheckoutRequest) (*CheckoutSession, error) {
	return nil, ErrGatewayDisabled
}

func (disabledGateway) ParseWebhook([]byte, string) (*WebhookEvent, error) {
	return nil, ErrGatewayDisabled
}

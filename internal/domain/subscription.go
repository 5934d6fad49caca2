package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PlanType string

const (
	PlanTrial    PlanType = "TRIAL"
	PlanOTP      PlanType = "OTP" // One-time payment
	PlanStandard PlanType = "STANDARD"
	PlanPremium  PlanType = "PREMIUM"
)

func (p PlanType) Valid() bool {
	switch p {
	case PlanTrial, PlanOTP, PlanStandard, PlanPremium:
		return true
	}
	return false
}

// Paid reports whether the plan goes through the payment gateway.
func (p PlanType) Paid() bool {
	return p != PlanTrial
}

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
	SubscriptionExpired  SubscriptionStatus = "EXPIRED"
	SubscriptionPending  SubscriptionStatus = "PENDING" // Awaiting checkout
)

// Subscription is the billing state for a customer. The payment gateway owns
// the money side; only the resulting record is stored here.
type Subscription struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID `bson:"userId" json:"userId"`
	PlanType          PlanType           `bson:"planType" json:"planType"`
	Status            SubscriptionStatus `bson:"status" json:"status"`
	StartDate         time.Time          `bson:"startDate" json:"startDate"`
	EndDate           *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CheckoutSessionID string             `bson:"checkoutSessionId,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ActiveAt reports whether the subscription is ACTIVE and not past its end date.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.EndDate == nil || now.Before(*s.EndDate)
}

// CurrentSubscription picks the most recent subscription by end date.
// Open-ended subscriptions rank after any dated one. Checkouts that were
// never paid do not count.
func CurrentSubscription(subs []Subscription) *Subscription {
	var current *Subscription
	for i := range subs {
		s := &subs[i]
		if s.Status == SubscriptionPending {
			continue
		}
		if current == nil || endsLater(s, current) {
			current = s
		}
	}
	return current
}

func endsLater(a, b *Subscription) bool {
	switch {
	case a.EndDate == nil && b.EndDate == nil:
		return a.StartDate.After(b.StartDate)
	case a.EndDate == nil:
		return true
	case b.EndDate == nil:
		return false
	}
	return a.EndDate.After(*b.EndDate)
}

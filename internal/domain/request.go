package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestAssigned RequestStatus = "ASSIGNED"
	RequestSeen     RequestStatus = "SEEN"
)

// Request is a client's initial ask for coaching, created at registration.
type Request struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID  `bson:"clientId" json:"clientId"`
	PlanType   PlanType            `bson:"planType" json:"planType"`
	Status     RequestStatus       `bson:"status" json:"status"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	ResolvedAt *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy *primitive.ObjectID `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
}

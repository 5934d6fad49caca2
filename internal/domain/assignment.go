package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for assignment lifecycle
type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed" // Client finished all weeks
	AssignmentExpired   AssignmentStatus = "expired"   // End date passed
)

// ProgramAssignment binds a published Program to a client, as assigned by a Coach.
type ProgramAssignment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID       primitive.ObjectID `bson:"programId" json:"programId"`
	ClientID        primitive.ObjectID `bson:"clientId" json:"clientId"`
	AssignedBy      primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	AssignedAt      time.Time          `bson:"assignedAt" json:"assignedAt"`
	EndsAt          time.Time          `bson:"endsAt" json:"endsAt"`
	Status          AssignmentStatus   `bson:"status" json:"status"`
	PersonalMessage string             `bson:"personalMessage,omitempty" json:"personalMessage,omitempty"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the assignment is still running.
func (a *ProgramAssignment) IsActive() bool {
	return a.Status == AssignmentActive
}

// Overdue reports whether an active assignment has run past its end date.
func (a *ProgramAssignment) Overdue(now time.Time) bool {
	return a.IsActive() && !a.EndsAt.IsZero() && now.After(a.EndsAt)
}

package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckIn is a client's periodic progress report. It is pending feedback
// until the coach responds.
type CheckIn struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID  `bson:"clientId" json:"clientId"`
	CoachID     *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
	Notes       string              `bson:"notes" json:"notes"`
	SubmittedAt time.Time           `bson:"submittedAt" json:"submittedAt"`
	Response    string              `bson:"response,omitempty" json:"response,omitempty"`
	RespondedAt *time.Time          `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

func (c *CheckIn) Pending() bool {
	return c.RespondedAt == nil
}

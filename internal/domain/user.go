package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

const (
	RoleCoach    Role = "COACH"
	RoleCustomer Role = "CUSTOMER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCoach || r == RoleCustomer
}

// User represents a user in the system (either a Coach or a Customer).
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`    // Unique
	PasswordHash       string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role               Role               `bson:"role" json:"role"`
	OnboardingComplete bool               `bson:"onboardingComplete" json:"onboardingComplete"`
	LastActiveAt       *time.Time         `bson:"lastActiveAt,omitempty" json:"lastActiveAt,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	// Clients this coach has assigned a program to.
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Customer-specific ---
	// The coach currently responsible for this customer.
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// LastActivity returns the last recorded activity time, or the zero time.
func (u *User) LastActivity() time.Time {
	if u.LastActiveAt == nil {
		return time.Time{}
	}
	return *u.LastActiveAt
}

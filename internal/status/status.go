// Package status derives a client's coaching-workflow status from their
// subscription, latest assignment and activity. Derive is pure: the same
// input and clock always produce the same status.
package status

import (
	"time"

	"alcyxob/coaching-app/internal/domain"
)

// Defaults used when no thresholds are configured.
const (
	DefaultInactivity = 7 * 24 * time.Hour
	DefaultNewWindow  = 14 * 24 * time.Hour
)

// Thresholds are the configurable windows used by Derive.
type Thresholds struct {
	// Inactivity is how long without activity before a client is flagged.
	Inactivity time.Duration
	// NewWindow is how long after starting a client counts as new.
	NewWindow time.Duration
}

// DefaultThresholds returns the 7 day inactivity and 14 day new-comer windows.
func DefaultThresholds() Thresholds {
	return Thresholds{Inactivity: DefaultInactivity, NewWindow: DefaultNewWindow}
}

func (t Thresholds) withDefaults() Thresholds {
	if t.Inactivity <= 0 {
		t.Inactivity = DefaultInactivity
	}
	if t.NewWindow <= 0 {
		t.NewWindow = DefaultNewWindow
	}
	return t
}

// Input is everything the deriver looks at for one client.
type Input struct {
	// Subscription is the client's current subscription, nil if none.
	Subscription *domain.Subscription
	// Assignment is the client's most recent assignment, nil if never assigned.
	Assignment *domain.ProgramAssignment
	// LastActivityAt is the last recorded client activity; zero if unknown.
	LastActivityAt time.Time
	// PendingFeedback is true when a check-in awaits a coach response.
	PendingFeedback bool
}

// Derive maps the input to exactly one status. First matching rule wins.
func Derive(in Input, th Thresholds, now time.Time) domain.ClientStatus {
	th = th.withDefaults()
	sub, a := in.Subscription, in.Assignment

	if sub == nil || !sub.ActiveAt(now) {
		if a != nil {
			return domain.StatusLeaver
		}
		return domain.StatusNonActive
	}

	if a == nil && sub.PlanType != domain.PlanTrial {
		return domain.StatusMissingProgram
	}

	if a != nil && (!a.IsActive() || a.Overdue(now)) {
		return domain.StatusProgramExpired
	}

	if in.PendingFeedback && sub.PlanType == domain.PlanPremium {
		return domain.StatusWaitingFeedback
	}

	if now.Sub(lastActivity(in)) > th.Inactivity {
		if a != nil {
			return domain.StatusOffTrack
		}
		return domain.StatusNeedsFollowUp
	}

	started := sub.StartDate
	if a != nil {
		started = a.AssignedAt
	}
	if now.Sub(started) <= th.NewWindow {
		return domain.StatusNewComer
	}

	return domain.StatusOnTrack
}

// lastActivity is the latest of the recorded activity, the assignment start
// and the subscription start, so that a fresh client is never stale.
func lastActivity(in Input) time.Time {
	latest := in.LastActivityAt
	if in.Subscription != nil && in.Subscription.StartDate.After(latest) {
		latest = in.Subscription.StartDate
	}
	if in.Assignment != nil && in.Assignment.AssignedAt.After(latest) {
		latest = in.Assignment.AssignedAt
	}
	return latest
}

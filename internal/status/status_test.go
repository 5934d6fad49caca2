package status_test

import (
	"testing"
	"time"

	"alcyxob/coaching-app/internal/domain"
	"alcyxob/coaching-app/internal/status"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func sub(plan domain.PlanType, st domain.SubscriptionStatus, startedAgo time.Duration) *domain.Subscription {
	end := now.Add(30 * day)
	return &domain.Subscription{PlanType: plan, Status: st, StartDate: now.Add(-startedAgo), EndDate: &end}
}

func assignment(st domain.AssignmentStatus, assignedAgo time.Duration, weeks int) *domain.ProgramAssignment {
	at := now.Add(-assignedAgo)
	return &domain.ProgramAssignment{
		Status:     st,
		AssignedAt: at,
		EndsAt:     at.Add(time.Duration(weeks) * 7 * day),
	}
}

func TestDerive(t *testing.T) {
	expiredSub := sub(domain.PlanStandard, domain.SubscriptionActive, 60*day)
	past := now.Add(-day)
	expiredSub.EndDate = &past

	cases := []struct {
		name string
		in   status.Input
		want domain.ClientStatus
	}{
		{
			name: "standard without assignment",
			in:   status.Input{Subscription: sub(domain.PlanStandard, domain.SubscriptionActive, 40*day)},
			want: domain.StatusMissingProgram,
		},
		{
			name: "trial with assignment from yesterday",
			in: status.Input{
				Subscription: sub(domain.PlanTrial, domain.SubscriptionActive, 2*day),
				Assignment:   assignment(domain.AssignmentActive, day, 4),
			},
			want: domain.StatusNewComer,
		},
		{
			name: "trial without assignment just started",
			in:   status.Input{Subscription: sub(domain.PlanTrial, domain.SubscriptionActive, day)},
			want: domain.StatusNewComer,
		},
		{
			name: "trial without assignment gone quiet",
			in:   status.Input{Subscription: sub(domain.PlanTrial, domain.SubscriptionActive, 20*day)},
			want: domain.StatusNeedsFollowUp,
		},
		{
			name: "no subscription never assigned",
			in:   status.Input{},
			want: domain.StatusNonActive,
		},
		{
			name: "canceled never assigned",
			in:   status.Input{Subscription: sub(domain.PlanPremium, domain.SubscriptionCanceled, 40*day)},
			want: domain.StatusNonActive,
		},
		{
			name: "pending checkout never assigned",
			in:   status.Input{Subscription: sub(domain.PlanPremium, domain.SubscriptionPending, 0)},
			want: domain.StatusNonActive,
		},
		{
			name: "canceled after an assignment",
			in: status.Input{
				Subscription: sub(domain.PlanStandard, domain.SubscriptionCanceled, 40*day),
				Assignment:   assignment(domain.AssignmentActive, 10*day, 4),
			},
			want: domain.StatusLeaver,
		},
		{
			name: "active status but past end date",
			in: status.Input{
				Subscription: expiredSub,
				Assignment:   assignment(domain.AssignmentCompleted, 50*day, 4),
			},
			want: domain.StatusLeaver,
		},
		{
			name: "assignment past its end",
			in: status.Input{
				Subscription:   sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
				Assignment:     assignment(domain.AssignmentActive, 30*day, 2),
				LastActivityAt: now,
			},
			want: domain.StatusProgramExpired,
		},
		{
			name: "assignment marked expired",
			in: status.Input{
				Subscription: sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
				Assignment:   assignment(domain.AssignmentExpired, 3*day, 8),
			},
			want: domain.StatusProgramExpired,
		},
		{
			name: "assignment completed",
			in: status.Input{
				Subscription: sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
				Assignment:   assignment(domain.AssignmentCompleted, 3*day, 8),
			},
			want: domain.StatusProgramExpired,
		},
		{
			name: "premium awaiting feedback",
			in: status.Input{
				Subscription:    sub(domain.PlanPremium, domain.SubscriptionActive, 60*day),
				Assignment:      assignment(domain.AssignmentActive, 30*day, 8),
				PendingFeedback: true,
			},
			want: domain.StatusWaitingFeedback,
		},
		{
			name: "standard pending feedback is not flagged",
			in: status.Input{
				Subscription:    sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
				Assignment:      assignment(domain.AssignmentActive, 30*day, 8),
				LastActivityAt:  now.Add(-day),
				PendingFeedback: true,
			},
			want: domain.StatusOnTrack,
		},
		{
			name: "inactive with active assignment",
			in: status.Input{
				Subscription:   sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
				Assignment:     assignment(domain.AssignmentActive, 30*day, 8),
				LastActivityAt: now.Add(-10 * day),
			},
			want: domain.StatusOffTrack,
		},
		{
			name: "recently assigned",
			in: status.Input{
				Subscription:   sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
				Assignment:     assignment(domain.AssignmentActive, 5*day, 8),
				LastActivityAt: now.Add(-2 * day),
			},
			want: domain.StatusNewComer,
		},
		{
			name: "settled and active",
			in: status.Input{
				Subscription:   sub(domain.PlanOTP, domain.SubscriptionActive, 60*day),
				Assignment:     assignment(domain.AssignmentActive, 30*day, 8),
				LastActivityAt: now.Add(-2 * day),
			},
			want: domain.StatusOnTrack,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := status.Derive(tc.in, status.DefaultThresholds(), now)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, status.Derive(tc.in, status.DefaultThresholds(), now), "must be deterministic")
		})
	}
}

func TestDeriveUsesConfiguredThresholds(t *testing.T) {
	in := status.Input{
		Subscription:   sub(domain.PlanStandard, domain.SubscriptionActive, 60*day),
		Assignment:     assignment(domain.AssignmentActive, 30*day, 8),
		LastActivityAt: now.Add(-3 * day),
	}
	assert.Equal(t, domain.StatusOnTrack, status.Derive(in, status.Thresholds{}, now))
	assert.Equal(t, domain.StatusOffTrack, status.Derive(in, status.Thresholds{Inactivity: 2 * day}, now))
	assert.Equal(t, domain.StatusNewComer, status.Derive(in, status.Thresholds{NewWindow: 31 * day}, now))
}

func TestDeriveIsTotal(t *testing.T) {
	valid := map[domain.ClientStatus]bool{}
	for _, s := range domain.AllClientStatuses {
		valid[s] = true
	}

	subs := []*domain.Subscription{nil}
	for _, plan := range []domain.PlanType{domain.PlanTrial, domain.PlanOTP, domain.PlanStandard, domain.PlanPremium} {
		for _, st := range []domain.SubscriptionStatus{domain.SubscriptionActive, domain.SubscriptionCanceled, domain.SubscriptionExpired, domain.SubscriptionPending} {
			subs = append(subs, sub(plan, st, 20*day))
		}
	}
	assignments := []*domain.ProgramAssignment{nil}
	for _, st := range []domain.AssignmentStatus{domain.AssignmentActive, domain.AssignmentCompleted, domain.AssignmentExpired} {
		assignments = append(assignments, assignment(st, day, 4), assignment(st, 40*day, 4))
	}

	for _, s := range subs {
		for _, a := range assignments {
			for _, activity := range []time.Time{{}, now, now.Add(-30 * day)} {
				for _, pending := range []bool{false, true} {
					got := status.Derive(status.Input{Subscription: s, Assignment: a, LastActivityAt: activity, PendingFeedback: pending}, status.DefaultThresholds(), now)
					assert.True(t, valid[got], "unexpected status %q", got)
				}
			}
		}
	}
}

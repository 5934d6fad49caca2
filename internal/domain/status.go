package domain

// ClientStatus is the coaching-workflow label derived for a client.
// It is computed on read and never persisted.
type ClientStatus string

const (
	StatusMissingProgram  ClientStatus = "missing-program"
	StatusNeedsFollowUp   ClientStatus = "needs-follow-up"
	StatusProgramExpired  ClientStatus = "program-expired"
	StatusWaitingFeedback ClientStatus = "waiting-feedback"
	StatusOffTrack        ClientStatus = "off-track"
	StatusOnTrack         ClientStatus = "on-track"
	StatusNewComer        ClientStatus = "new-comer"
	StatusLeaver          ClientStatus = "leaver"
	StatusNonActive       ClientStatus = "non-active"
)

// AllClientStatuses lists every status in display order.
var AllClientStatuses = []ClientStatus{
	StatusMissingProgram,
	StatusProgramExpired,
	StatusWaitingFeedback,
	StatusNeedsFollowUp,
	StatusOffTrack,
	StatusNewComer,
	StatusOnTrack,
	StatusLeaver,
	StatusNonActive,
}

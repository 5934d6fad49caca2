package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"alcyxob/coaching-app/internal/domain"

	"github.com/nats-io/nats.go"
)

// Event types, also used as the subject suffix.
const (
	TypeProgramPublished        = "program.published"
	TypeAssignmentCreated       = "assignment.created"
	TypeAssignmentStatusChanged = "assignment.status_changed"
)

// Publisher announces lifecycle changes to other services. Callers treat
// publishing as best effort: the write has already succeeded.
type Publisher interface {
	PublishProgramPublished(program *domain.Program) error
	PublishAssignmentCreated(assignment *domain.ProgramAssignment) error
	PublishAssignmentStatusChanged(assignment *domain.ProgramAssignment, from domain.AssignmentStatus) error
	Close()
}

type ProgramPublishedEvent struct {
	EventType   string    `json:"event_type"`
	ProgramID   string    `json:"program_id"`
	CoachID     string    `json:"coach_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Weeks       int       `json:"weeks"`
	PublishedAt time.Time `json:"published_at"`
}

type AssignmentCreatedEvent struct {
	EventType    string    `json:"event_type"`
	AssignmentID string    `json:"assignment_id"`
	ProgramID    string    `json:"program_id"`
	ClientID     string    `json:"client_id"`
	AssignedBy   string    `json:"assigned_by"`
	AssignedAt   time.Time `json:"assigned_at"`
	EndsAt       time.Time `json:"ends_at"`
}

type AssignmentStatusChangedEvent struct {
	EventType    string    `json:"event_type"`
	AssignmentID string    `json:"assignment_id"`
	ClientID     string    `json:"client_id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	ChangedAt    time.Time `json:"changed_at"`
}

type NatsPublisher struct {
	conn   *nats.Conn
	prefix string
}

// NewNatsPublisher connects to NATS. Subjects are "<prefix>.<event type>".
func NewNatsPublisher(natsURL, prefix string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("coaching-api"))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: nc, prefix: prefix}, nil
}

func (p *NatsPublisher) subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *NatsPublisher) publish(eventType string, event any) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("Error marshalling event JSON", "event_type", eventType, "error", err)
		return err
	}

	subject := p.subject(eventType)
	if err = p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.Debug("Published event to NATS", "subject", subject)
	return nil
}

func (p *NatsPublisher) PublishProgramPublished(program *domain.Program) error {
	event := ProgramPublishedEvent{
		EventType: TypeProgramPublished,
		ProgramID: program.ID.Hex(),
		CoachID:   program.CreatedBy.Hex(),
		Title:     program.Title,
		Category:  string(program.Category),
		Weeks:     len(program.Weeks),
	}
	if program.PublishedAt != nil {
		event.PublishedAt = *program.PublishedAt
	}
	return p.publish(TypeProgramPublished, event)
}

func (p *NatsPublisher) PublishAssignmentCreated(a *domain.ProgramAssignment) error {
	return p.publish(TypeAssignmentCreated, AssignmentCreatedEvent{
		EventType:    TypeAssignmentCreated,
		AssignmentID: a.ID.Hex(),
		ProgramID:    a.ProgramID.Hex(),
		ClientID:     a.ClientID.Hex(),
		AssignedBy:   a.AssignedBy.Hex(),
		AssignedAt:   a.AssignedAt,
		EndsAt:       a.EndsAt,
	})
}

func (p *NatsPublisher) PublishAssignmentStatusChanged(a *domain.ProgramAssignment, from domain.AssignmentStatus) error {
	return p.publish(TypeAssignmentStatusChanged, AssignmentStatusChangedEvent{
		EventType:    TypeAssignmentStatusChanged,
		AssignmentID: a.ID.Hex(),
		ClientID:     a.ClientID.Hex(),
		From:         string(from),
		To:           string(a.Status),
		ChangedAt:    a.UpdatedAt,
	})
}

// Close flushes buffered messages and closes the connection.
func (p *NatsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NoopPublisher drops every event. Used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishProgramPublished(*domain.Program) error { return nil }

func (NoopPublisher) PublishAssignmentCreated(*domain.ProgramAssignment) error { return nil }

func (NoopPublisher) PublishAssignmentStatusChanged(*domain.ProgramAssignment, domain.AssignmentStatus) error {
	return nil
}

func (NoopPublisher) Close() {}

package shared

import "time"

// EventType identifies a kind of domain event.
type EventType string

const (
	EventStudentRegistered EventType = "student.registered"
	EventGradeRecorded     EventType = "grade.recorded"
	EventGPAUpdated        EventType = "gpa.updated"
)

// Event describes a state change in the core. Events are emitted synchronously
// after the owning store has committed the change.
type Event struct {
	Type       EventType
	StudentID  string
	OccurredAt time.Time
	Payload    map[string]any
}

// NewEvent creates an event stamped with the current UTC time.
func NewEvent(t EventType, studentID string, payload map[string]any) Event {
	return Event{
		Type:       t,
		StudentID:  studentID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// EventPublisher receives domain events. Implementations must be safe for
// concurrent use; publishing must not block the emitting write path for long.
type EventPublisher interface {
	Publish(event Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) {}

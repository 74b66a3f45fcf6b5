package kafka

import "time"

// Event types flowing between the cycle count server and the notifier.
const (
	EventTypeAssignmentCreated = "assignment.created"
	EventTypeCountSubmitted    = "count.submitted"

	EventSchemaVersion = "1"
)

// AssignmentCreatedEvent is published when a supervisor hands out a new
// assignment. Keyed by the counter name so one counter's events stay
// ordered.
type AssignmentCreatedEvent struct {
	AssignmentID string    `json:"assignment_id"`
	AssignedTo   string    `json:"assigned_to"`
	Location     string    `json:"location"`
	PalletID     string    `json:"pallet_id,omitempty"`
	ExpectedQty  int       `json:"expected_qty"`
	LockedUntil  time.Time `json:"locked_until"`
	CreatedAt    time.Time `json:"created_at"`
}

// CountSubmittedEvent is published after a count lands. The notifier
// uses it to fire scan-and-submit feedback for the counter.
type CountSubmittedEvent struct {
	SubmissionID string    `json:"submission_id"`
	AssignmentID string    `json:"assignment_id"`
	CountedBy    string    `json:"counted_by"`
	Location     string    `json:"location"`
	ExpectedQty  int       `json:"expected_qty"`
	CountedQty   int       `json:"counted_qty"`
	Variance     int       `json:"variance"`
	IssueType    string    `json:"issue_type"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// BuildAssignmentCreated assembles the message for an assignment event.
func BuildAssignmentCreated(source string, event AssignmentCreatedEvent) Message {
	return NewMessage().
		WithKey(event.AssignedTo).
		WithValue(event).
		WithEventType(EventTypeAssignmentCreated).
		WithAssignmentID(event.AssignmentID).
		WithSchemaVersion(EventSchemaVersion).
		WithSource(source).
		Build()
}

// BuildCountSubmitted assembles the message for a count event.
func BuildCountSubmitted(source string, event CountSubmittedEvent) Message {
	return NewMessage().
		WithKey(event.CountedBy).
		WithValue(event).
		WithEventType(EventTypeCountSubmitted).
		WithAssignmentID(event.AssignmentID).
		WithSchemaVersion(EventSchemaVersion).
		WithSource(source).
		Build()
}

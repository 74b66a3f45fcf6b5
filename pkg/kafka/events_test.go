package kafka

import (
	"testing"
	"time"
)

func TestBuildCountSubmitted(t *testing.T) {
	event := CountSubmittedEvent{
		SubmissionID: "68b0a1b2c3d4e5f601234568",
		AssignmentID: "68b0a1b2c3d4e5f601234567",
		CountedBy:    "Carlos",
		Location:     "A-01-03",
		ExpectedQty:  20,
		CountedQty:   17,
		Variance:     -3,
		IssueType:    "none",
		SubmittedAt:  time.Now().UTC(),
	}

	msg := BuildCountSubmitted("cyclecount-server", event)

	if msg.Key != "Carlos" {
		t.Errorf("Key = %q, want the counter name", msg.Key)
	}
	if msg.GetEventType() != EventTypeCountSubmitted {
		t.Errorf("event type = %q, want %s", msg.GetEventType(), EventTypeCountSubmitted)
	}
	if msg.GetAssignmentID() != event.AssignmentID {
		t.Errorf("assignment header = %q, want %s", msg.GetAssignmentID(), event.AssignmentID)
	}
	if msg.GetEventID() == "" {
		t.Error("event ID header missing")
	}

	var decoded CountSubmittedEvent
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	if decoded.Variance != -3 || decoded.CountedBy != "Carlos" {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}

func TestBuildAssignmentCreated(t *testing.T) {
	event := AssignmentCreatedEvent{
		AssignmentID: "68b0a1b2c3d4e5f601234567",
		AssignedTo:   "Karen",
		Location:     "TUN-02-B",
		ExpectedQty:  40,
		LockedUntil:  time.Now().UTC().Add(20 * time.Minute),
		CreatedAt:    time.Now().UTC(),
	}

	msg := BuildAssignmentCreated("cyclecount-server", event)

	if msg.Key != "Karen" {
		t.Errorf("Key = %q, want the counter name", msg.Key)
	}
	if msg.GetEventType() != EventTypeAssignmentCreated {
		t.Errorf("event type = %q, want %s", msg.GetEventType(), EventTypeAssignmentCreated)
	}

	var decoded AssignmentCreatedEvent
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue() error: %v", err)
	}
	if decoded.Location != "TUN-02-B" || decoded.ExpectedQty != 40 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}

func TestMessageRetryCount(t *testing.T) {
	msg := NewMessage().WithKey("Carlos").WithValue("payload").Build()

	if msg.GetRetryCount() != 0 {
		t.Errorf("new message retry count = %d, want 0", msg.GetRetryCount())
	}

	msg.IncrementRetryCount()
	msg.IncrementRetryCount()
	if msg.GetRetryCount() != 2 {
		t.Errorf("retry count = %d, want 2", msg.GetRetryCount())
	}
}

package notify

import (
	"context"
	"time"
)

// Config holds configuration for the notification dispatcher.
type Config struct {
	// BufferSize is the capacity of the outbound event channel. When the
	// buffer is full, events are dropped rather than blocking the engine.
	BufferSize int `mapstructure:"buffer_size" default:"64"`
}

// EventType identifies the kind of circulation fact being published.
type EventType string

const (
	EventReservationCreated EventType = "reservation_created"
	EventLoanCreated        EventType = "loan_created"
	EventLoanReturnedLate   EventType = "loan_returned_late"
)

// Event is a post-commit circulation fact handed to external notifiers.
type Event struct {
	Type       EventType
	OccurredAt time.Time
	Payload    any
}

// ReservationCreated is emitted after a reservation commits.
type ReservationCreated struct {
	Member    string    `json:"member"`
	Title     string    `json:"title"`
	Barcode   string    `json:"barcode"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoanCreated is emitted after a loan commits, whether direct or converted
// from a reservation.
type LoanCreated struct {
	Member  string    `json:"member"`
	Title   string    `json:"title"`
	Barcode string    `json:"barcode"`
	DueDate time.Time `json:"due_date"`
}

// LoanReturnedLate is emitted only when a loan is returned past its due date.
type LoanReturnedLate struct {
	Member   string    `json:"member"`
	Title    string    `json:"title"`
	DueDate  time.Time `json:"due_date"`
	DaysLate int       `json:"days_late"`
}

// Notifier delivers an event to an external collaborator (chat, webhook).
// Implementations may be slow or fail; the dispatcher tolerates both.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

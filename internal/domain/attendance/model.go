package attendance

import "time"

type EventType string

const (
	ClockIn  EventType = "in"
	ClockOut EventType = "out"
)

// ClockEvent is one operator clock in/out. Append-only; kept alongside the
// reconciliation data for payroll cross-checks, not part of the math.
type ClockEvent struct {
	ID        int64
	UID       string
	Email     *string
	Type      EventType
	ShiftID   *string
	DateStr   string
	CreatedAt time.Time
}

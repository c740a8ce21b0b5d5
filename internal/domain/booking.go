package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
}

func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Active bookings hold (or wait for) a room.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID         string        `json:"id"`
	HostelID   string        `json:"hostel_id"`
	HostelName string        `json:"hostel_name,omitempty"`
	StudentID  string        `json:"student_id"`
	OwnerID    string        `json:"owner_id"`
	AgentID    *string       `json:"agent_id,omitempty"`
	MoveIn     time.Time     `json:"move_in"`
	Months     int           `json:"months"`
	TotalCents int64         `json:"total_cents"`
	Currency   string        `json:"currency"`
	Note       *string       `json:"note,omitempty"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Participant reports whether userID is the student, owner or agent.
func (b Booking) Participant(userID string) bool {
	if userID == "" {
		return false
	}
	return b.StudentID == userID || b.OwnerID == userID || (b.AgentID != nil && *b.AgentID == userID)
}

func (b Booking) ManagedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return b.OwnerID == userID || (b.AgentID != nil && *b.AgentID == userID)
}

// BookingFilter selects bookings for one participant. Exactly one of the
// ID fields is expected to be set.
type BookingFilter struct {
	StudentID string
	OwnerID   string
	AgentID   string
	Status    *BookingStatus
	Limit     int
}

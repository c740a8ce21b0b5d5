package domain

import "time"

type PaymentMethod string

const (
	MethodCard         PaymentMethod = "card"
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

const PaymentSucceeded = "succeeded"

type Payment struct {
	ID          string        `json:"id"`
	BookingID   string        `json:"booking_id"`
	StudentID   string        `json:"student_id"`
	OwnerID     string        `json:"owner_id"`
	AgentID     *string       `json:"agent_id,omitempty"`
	AmountCents int64         `json:"amount_cents"`
	Currency    string        `json:"currency"`
	Method      PaymentMethod `json:"method"`
	Status      string        `json:"status"`
	Reference   string        `json:"reference"`
	CreatedAt   time.Time     `json:"created_at"`
}

type PaymentFilter struct {
	StudentID string
	OwnerID   string
	AgentID   string
	Limit     int
}

type Favorite struct {
	UserID    string    `json:"user_id"`
	HostelID  string    `json:"hostel_id"`
	CreatedAt time.Time `json:"created_at"`
}

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hostel_hub/internal/domain"
)

type PaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	Method    string `json:"method" validate:"required,oneof=card mobile_money bank_transfer"`
	Reference string `json:"reference" validate:"omitempty,max=64,printascii"`
}

type PaymentService struct {
	payments domain.PaymentRepository
	bookings domain.BookingRepository
	users    domain.UserRepository
	notify   *Notifier
	now      func() time.Time
}

func NewPaymentService(p domain.PaymentRepository, b domain.BookingRepository, u domain.UserRepository, n *Notifier) *PaymentService {
	return &PaymentService{payments: p, bookings: b, users: u, notify: n, now: time.Now}
}

// Record stores the payment of a confirmed booking. There is no gateway;
// this is the payment history of record.
func (s *PaymentService) Record(ctx context.Context, actor domain.Identity, req PaymentRequest) (domain.Payment, error) {
	if err := Authorize(&actor, domain.RoleStudent); err != nil {
		return domain.Payment{}, err
	}
	req.Method = cleanString(req.Method, true)
	req.Reference = strings.TrimSpace(req.Reference)
	if err := validateStruct(req); err != nil {
		return domain.Payment{}, err
	}

	b, err := s.bookings.GetBooking(ctx, req.BookingID)
	if err != nil {
		return domain.Payment{}, err
	}
	if b.StudentID != actor.UserID {
		return domain.Payment{}, domain.ErrNotFound
	}
	if b.Status != domain.BookingConfirmed {
		return domain.Payment{}, fmt.Errorf("%w: only confirmed bookings can be paid", domain.ErrConflict)
	}
	paid, err := s.payments.HasPayment(ctx, b.ID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("checking payments: %w", err)
	}
	if paid {
		return domain.Payment{}, fmt.Errorf("%w: booking is already paid", domain.ErrConflict)
	}

	ref := req.Reference
	if ref == "" {
		ref = "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	}
	p := domain.Payment{
		ID:          uuid.NewString(),
		BookingID:   b.ID,
		StudentID:   b.StudentID,
		OwnerID:     b.OwnerID,
		AgentID:     b.AgentID,
		AmountCents: b.TotalCents,
		Currency:    b.Currency,
		Method:      domain.PaymentMethod(req.Method),
		Status:      domain.PaymentSucceeded,
		Reference:   ref,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.payments.CreatePayment(ctx, p); err != nil {
		return domain.Payment{}, err
	}
	log.Info().Str("payment_id", p.ID).Str("booking_id", b.ID).Msg("payment recorded")

	if u, err := s.users.GetUserByID(ctx, b.OwnerID); err == nil {
		s.notify.PaymentRecorded(ctx, Recipient{Email: u.Email}, p)
	}
	return p, nil
}

// History lists the payments visible to the actor's role.
func (s *PaymentService) History(ctx context.Context, actor domain.Identity, limit int) ([]domain.Payment, error) {
	if err := Authorize(&actor); err != nil {
		return nil, err
	}
	f := domain.PaymentFilter{Limit: limit}
	switch actor.Role {
	case domain.RoleStudent:
		f.StudentID = actor.UserID
	case domain.RoleBusiness:
		f.OwnerID = actor.UserID
	case domain.RoleAgent:
		f.AgentID = actor.UserID
	}
	out, err := s.payments.ListPayments(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Payment{}
	}
	return out, nil
}

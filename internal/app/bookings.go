package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hostel_hub/internal/adapters/observability"
	"hostel_hub/internal/domain"
)

const dateLayout = "2006-01-02"

type BookingRequest struct {
	HostelID string  `json:"hostel_id" validate:"required,uuid"`
	MoveIn   string  `json:"move_in" validate:"required,datetime=2006-01-02"`
	Months   int     `json:"months" validate:"required,min=1,max=24"`
	Note     *string `json:"note" validate:"omitempty,max=1000"`
}

type BookingService struct {
	bookings domain.BookingRepository
	hostels  domain.HostelRepository
	users    domain.UserRepository
	cache    domain.Cache
	notify   *Notifier
	now      func() time.Time
}

func NewBookingService(b domain.BookingRepository, h domain.HostelRepository, u domain.UserRepository, c domain.Cache, n *Notifier) *BookingService {
	return &BookingService{bookings: b, hostels: h, users: u, cache: c, notify: n, now: time.Now}
}

func (s *BookingService) Request(ctx context.Context, actor domain.Identity, req BookingRequest) (domain.Booking, error) {
	if err := Authorize(&actor, domain.RoleStudent); err != nil {
		return domain.Booking{}, err
	}
	req.Note = cleanOptional(req.Note)
	if err := validateStruct(req); err != nil {
		return domain.Booking{}, err
	}
	moveIn, _ := time.Parse(dateLayout, req.MoveIn)
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if moveIn.Before(today) {
		return domain.Booking{}, domain.NewValidationError(domain.FieldError{Field: "move_in", Message: "move_in cannot be in the past"})
	}

	h, err := s.hostels.GetHostel(ctx, req.HostelID)
	if err != nil {
		return domain.Booking{}, err
	}
	if h.Status != domain.HostelPublished {
		return domain.Booking{}, domain.ErrNotFound
	}
	if h.AvailableRooms <= 0 {
		return domain.Booking{}, fmt.Errorf("%w: no rooms available", domain.ErrConflict)
	}

	b := domain.Booking{
		ID:         uuid.NewString(),
		HostelID:   h.ID,
		HostelName: h.Name,
		StudentID:  actor.UserID,
		OwnerID:    h.OwnerID,
		AgentID:    h.AgentID,
		MoveIn:     moveIn,
		Months:     req.Months,
		TotalCents: h.PriceCents * int64(req.Months),
		Currency:   h.Currency,
		Note:       req.Note,
		Status:     domain.BookingPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Booking{}, err
		}
		return domain.Booking{}, fmt.Errorf("creating booking: %w", err)
	}
	observability.ObserveBooking(string(b.Status))
	log.Info().Str("booking_id", b.ID).Str("hostel_id", h.ID).Msg("booking requested")

	s.notify.BookingRequested(ctx, s.contact(ctx, h.OwnerID), b)
	return b, nil
}

func (s *BookingService) Get(ctx context.Context, actor domain.Identity, id string) (domain.Booking, error) {
	if err := Authorize(&actor); err != nil {
		return domain.Booking{}, err
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !b.Participant(actor.UserID) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, nil
}

func (s *BookingService) Confirm(ctx context.Context, actor domain.Identity, id string) (domain.Booking, error) {
	return s.decide(ctx, actor, id, domain.BookingConfirmed)
}

func (s *BookingService) Reject(ctx context.Context, actor domain.Identity, id string) (domain.Booking, error) {
	return s.decide(ctx, actor, id, domain.BookingRejected)
}

// decide applies an owner/agent decision to a pending booking.
func (s *BookingService) decide(ctx context.Context, actor domain.Identity, id string, to domain.BookingStatus) (domain.Booking, error) {
	if err := Authorize(&actor, domain.RoleBusiness, domain.RoleAgent); err != nil {
		return domain.Booking{}, err
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if !b.ManagedBy(actor.UserID) {
		return domain.Booking{}, domain.ErrNotFound
	}
	delta := 0
	if to == domain.BookingConfirmed {
		delta = -1
	}
	b, err = s.transition(ctx, b, to, delta)
	if err != nil {
		return domain.Booking{}, err
	}
	s.notify.BookingDecided(ctx, s.contact(ctx, b.StudentID), b)
	return b, nil
}

// Cancel lets the student withdraw a pending or confirmed booking; a
// confirmed booking gives its room back.
func (s *BookingService) Cancel(ctx context.Context, actor domain.Identity, id string) (domain.Booking, error) {
	if err := Authorize(&actor, domain.RoleStudent); err != nil {
		return domain.Booking{}, err
	}
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.StudentID != actor.UserID {
		return domain.Booking{}, domain.ErrNotFound
	}
	delta := 0
	if b.Status == domain.BookingConfirmed {
		delta = 1
	}
	return s.transition(ctx, b, domain.BookingCancelled, delta)
}

func (s *BookingService) transition(ctx context.Context, b domain.Booking, to domain.BookingStatus, roomDelta int) (domain.Booking, error) {
	if !b.Status.CanTransition(to) {
		return domain.Booking{}, fmt.Errorf("%w: booking is %s", domain.ErrConflict, b.Status)
	}
	now := s.now().UTC()
	if err := s.bookings.TransitionBooking(ctx, b.ID, b.Status, to, roomDelta, now); err != nil {
		return domain.Booking{}, err
	}
	b.Status = to
	b.UpdatedAt = now
	if roomDelta != 0 {
		_ = s.cache.Del(ctx, hostelKey(b.HostelID))
		_ = s.cache.Del(ctx, landingKey)
		_ = s.cache.DelPrefix(ctx, searchPrefix)
	}
	observability.ObserveBooking(string(to))
	log.Info().Str("booking_id", b.ID).Str("status", string(to)).Msg("booking updated")
	return b, nil
}

func (s *BookingService) List(ctx context.Context, actor domain.Identity, limit int) ([]domain.Booking, error) {
	if err := Authorize(&actor); err != nil {
		return nil, err
	}
	f := domain.BookingFilter{Limit: limit}
	switch actor.Role {
	case domain.RoleStudent:
		f.StudentID = actor.UserID
	case domain.RoleBusiness:
		f.OwnerID = actor.UserID
	case domain.RoleAgent:
		f.AgentID = actor.UserID
	}
	out, err := s.bookings.ListBookings(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Booking{}
	}
	return out, nil
}

// contact resolves a user's e-mail and display name for notifications.
func (s *BookingService) contact(ctx context.Context, userID string) Recipient {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("user_id", userID).Msg("recipient lookup failed")
		}
		return Recipient{}
	}
	r := Recipient{Email: u.Email}
	if p, err := s.users.GetProfile(ctx, userID); err == nil {
		r.Name = p.FullName
	}
	return r
}

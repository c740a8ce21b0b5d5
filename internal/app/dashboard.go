package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"hostel_hub/internal/domain"
)

const recentBookings = 5

type StudentSummary struct {
	RecentBookings []domain.Booking `json:"recent_bookings"`
	ActiveBookings int              `json:"active_bookings"`
	PaidCents      int64            `json:"paid_cents"`
	Favorites      int              `json:"favorites"`
}

type ListingsSummary struct {
	HostelsByStatus map[domain.HostelStatus]int `json:"hostels_by_status"`
	PendingRequests int                         `json:"pending_requests"`
	RevenueCents    int64                       `json:"revenue_cents"`
	RecentBookings  []domain.Booking            `json:"recent_bookings"`
}

// Summary is the dashboard payload; exactly one section is set.
type Summary struct {
	Role     domain.Role      `json:"role"`
	Student  *StudentSummary  `json:"student,omitempty"`
	Business *ListingsSummary `json:"business,omitempty"`
	Agent    *ListingsSummary `json:"agent,omitempty"`
}

type DashboardService struct {
	hostels   domain.HostelRepository
	bookings  domain.BookingRepository
	payments  domain.PaymentRepository
	favorites domain.FavoriteRepository
}

func NewDashboardService(h domain.HostelRepository, b domain.BookingRepository, p domain.PaymentRepository, f domain.FavoriteRepository) *DashboardService {
	return &DashboardService{hostels: h, bookings: b, payments: p, favorites: f}
}

func (s *DashboardService) Summary(ctx context.Context, actor domain.Identity) (Summary, error) {
	if err := Authorize(&actor); err != nil {
		return Summary{}, err
	}
	out := Summary{Role: actor.Role}
	switch actor.Role {
	case domain.RoleStudent:
		st, err := s.student(ctx, actor.UserID)
		if err != nil {
			return Summary{}, err
		}
		out.Student = &st
	case domain.RoleBusiness:
		ls, err := s.listings(ctx, actor)
		if err != nil {
			return Summary{}, err
		}
		out.Business = &ls
	case domain.RoleAgent:
		ls, err := s.listings(ctx, actor)
		if err != nil {
			return Summary{}, err
		}
		out.Agent = &ls
	}
	return out, nil
}

func (s *DashboardService) student(ctx context.Context, userID string) (StudentSummary, error) {
	var (
		out    StudentSummary
		counts map[domain.BookingStatus]int
		favs   []domain.Hostel
	)
	bf := domain.BookingFilter{StudentID: userID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.RecentBookings, err = s.bookings.ListBookings(gctx, domain.BookingFilter{StudentID: userID, Limit: recentBookings})
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.bookings.CountBookings(gctx, bf)
		return err
	})
	g.Go(func() (err error) {
		out.PaidCents, err = s.payments.SumPayments(gctx, domain.PaymentFilter{StudentID: userID})
		return err
	})
	g.Go(func() (err error) {
		favs, err = s.favorites.ListFavorites(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return StudentSummary{}, err
	}

	out.RecentBookings = headBookings(out.RecentBookings)
	out.ActiveBookings = counts[domain.BookingPending] + counts[domain.BookingConfirmed]
	out.Favorites = len(favs)
	return out, nil
}

func (s *DashboardService) listings(ctx context.Context, actor domain.Identity) (ListingsSummary, error) {
	var (
		out     ListingsSummary
		hostels []domain.Hostel
		counts  map[domain.BookingStatus]int
	)
	bf := domain.BookingFilter{}
	pf := domain.PaymentFilter{}
	if actor.Role == domain.RoleAgent {
		bf.AgentID, pf.AgentID = actor.UserID, actor.UserID
	} else {
		bf.OwnerID, pf.OwnerID = actor.UserID, actor.UserID
	}
	recent := bf
	recent.Limit = recentBookings

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if actor.Role == domain.RoleAgent {
			hostels, err = s.hostels.ListHostelsByAgent(gctx, actor.UserID)
		} else {
			hostels, err = s.hostels.ListHostelsByOwner(gctx, actor.UserID)
		}
		return err
	})
	g.Go(func() (err error) {
		out.RecentBookings, err = s.bookings.ListBookings(gctx, recent)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.bookings.CountBookings(gctx, bf)
		return err
	})
	g.Go(func() (err error) {
		out.RevenueCents, err = s.payments.SumPayments(gctx, pf)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListingsSummary{}, err
	}

	out.HostelsByStatus = map[domain.HostelStatus]int{
		domain.HostelDraft:     0,
		domain.HostelPublished: 0,
		domain.HostelArchived:  0,
	}
	for _, h := range hostels {
		out.HostelsByStatus[h.Status]++
	}
	out.RecentBookings = headBookings(out.RecentBookings)
	out.PendingRequests = counts[domain.BookingPending]
	return out, nil
}

// ManagedHostels lists the hostels a business owns or an agent manages.
func (s *DashboardService) ManagedHostels(ctx context.Context, actor domain.Identity) ([]domain.Hostel, error) {
	if err := Authorize(&actor, domain.RoleBusiness, domain.RoleAgent); err != nil {
		return nil, err
	}
	var (
		out []domain.Hostel
		err error
	)
	if actor.Role == domain.RoleAgent {
		out, err = s.hostels.ListHostelsByAgent(ctx, actor.UserID)
	} else {
		out, err = s.hostels.ListHostelsByOwner(ctx, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Hostel{}
	}
	return out, nil
}

func headBookings(in []domain.Booking) []domain.Booking {
	if len(in) > recentBookings {
		in = in[:recentBookings]
	}
	out := make([]domain.Booking, len(in))
	copy(out, in)
	return out
}

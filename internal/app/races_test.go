package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel_hub/internal/domain"
)

// hookedHostels runs during once, right after the first GetHostel read.
type hookedHostels struct {
	domain.HostelRepository
	once   sync.Once
	during func()
}

func (h *hookedHostels) GetHostel(ctx context.Context, id string) (domain.Hostel, error) {
	out, err := h.HostelRepository.GetHostel(ctx, id)
	h.once.Do(h.during)
	return out, err
}

// gatedHostels holds every GetHostel caller until n of them have read.
type gatedHostels struct {
	domain.HostelRepository
	arrived sync.WaitGroup
}

func (g *gatedHostels) GetHostel(ctx context.Context, id string) (domain.Hostel, error) {
	out, err := g.HostelRepository.GetHostel(ctx, id)
	g.arrived.Done()
	g.arrived.Wait()
	return out, err
}

func (e *env) hostelsOver(repo domain.HostelRepository) *HostelService {
	s := NewHostelService(repo, e.store, e.cache, e.blobs, time.Minute)
	s.now = e.clock.now
	return s
}

func TestWizard_KeepsRoomsTakenMeanwhile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, domain.RoleBusiness, "owner@hostelhub.test")
	ada := e.user(t, domain.RoleStudent, "ada@hostelhub.test")
	bola := e.user(t, domain.RoleStudent, "bola@hostelhub.test")

	confirmWhileReading := func(t *testing.T, bookingID string) *hookedHostels {
		return &hookedHostels{HostelRepository: e.store, during: func() {
			_, err := e.bookings.Confirm(ctx, owner, bookingID)
			require.NoError(t, err)
		}}
	}

	t.Run("basics edit", func(t *testing.T) {
		h := e.publish(t, owner, validBasics("Campus Lodge"), 1)
		b, err := e.bookings.Request(ctx, ada, BookingRequest{HostelID: h.ID, MoveIn: moveIn(7), Months: 1})
		require.NoError(t, err)

		svc := e.hostelsOver(confirmWhileReading(t, b.ID))
		_, err = svc.SaveStep(ctx, owner, h.ID, domain.StepBasics, validBasics("Campus Lodge East"))
		require.NoError(t, err)

		got, err := e.store.GetHostel(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, "Campus Lodge East", got.Name)
		assert.Equal(t, 0, got.AvailableRooms)
		bk, err := e.store.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.BookingConfirmed, bk.Status)
	})

	t.Run("pricing edit", func(t *testing.T) {
		h := e.publish(t, owner, validBasics("Harbour Hall"), 2)
		b, err := e.bookings.Request(ctx, bola, BookingRequest{HostelID: h.ID, MoveIn: moveIn(7), Months: 1})
		require.NoError(t, err)

		// the owner adds a room based on a read of 2 free rooms
		p := validPricing(3)
		svc := e.hostelsOver(confirmWhileReading(t, b.ID))
		got, err := svc.SaveStep(ctx, owner, h.ID, domain.StepPricing, p)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Rooms)
		assert.Equal(t, 2, got.AvailableRooms)

		// shrinking below the rooms already taken clamps at zero
		p = validPricing(1)
		p.AvailableRooms = 0
		got, err = e.hostels.SaveStep(ctx, owner, h.ID, domain.StepPricing, p)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Rooms)
		assert.Equal(t, 0, got.AvailableRooms)
	})
}

func TestBookings_ConcurrentDuplicateRequests(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, domain.RoleBusiness, "owner@hostelhub.test")
	ada := e.user(t, domain.RoleStudent, "ada@hostelhub.test")
	h := e.publish(t, owner, validBasics("Campus Lodge"), 5)

	const n = 4
	gate := &gatedHostels{HostelRepository: e.store}
	gate.arrived.Add(n)
	svc := NewBookingService(e.store, gate, e.store, e.cache, NewNotifier(e.mail, "support@hostelhub.test"))
	svc.now = e.clock.now

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Request(ctx, ada, BookingRequest{HostelID: h.ID, MoveIn: moveIn(7), Months: 1})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, ok)

	list, err := e.bookings.List(ctx, ada, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDashboard_TotalsCoverEveryRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.user(t, domain.RoleBusiness, "owner@hostelhub.test")
	ada := e.user(t, domain.RoleStudent, "ada@hostelhub.test")
	h := e.publish(t, owner, validBasics("Campus Lodge"), 500)

	const rows = 150
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < rows; i++ {
		status := domain.BookingPending
		if i%3 == 0 {
			status = domain.BookingConfirmed
		}
		student := fmt.Sprintf("stu-%03d", i)
		b := domain.Booking{
			ID: fmt.Sprintf("b-%03d", i), HostelID: h.ID, StudentID: student, OwnerID: owner.UserID,
			MoveIn: at, Months: 1, TotalCents: 1000, Currency: "NGN", Status: status,
			CreatedAt: at.Add(time.Duration(i) * time.Minute), UpdatedAt: at,
		}
		require.NoError(t, e.store.CreateBooking(ctx, b))
		require.NoError(t, e.store.CreatePayment(ctx, domain.Payment{
			ID: fmt.Sprintf("p-%03d", i), BookingID: b.ID, StudentID: ada.UserID, OwnerID: owner.UserID,
			AmountCents: 1000, Currency: "NGN", Method: domain.MethodCard, Status: domain.PaymentSucceeded,
			Reference: fmt.Sprintf("PAY-%03d", i), CreatedAt: b.CreatedAt,
		}))
	}

	sum, err := e.dashboard.Summary(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, sum.Business)
	assert.Equal(t, int64(rows*1000), sum.Business.RevenueCents)
	assert.Equal(t, rows-rows/3, sum.Business.PendingRequests)
	require.Len(t, sum.Business.RecentBookings, recentBookings)
	assert.Equal(t, "b-149", sum.Business.RecentBookings[0].ID)

	sum, err = e.dashboard.Summary(ctx, ada)
	require.NoError(t, err)
	require.NotNil(t, sum.Student)
	assert.Equal(t, int64(rows*1000), sum.Student.PaidCents)
	assert.Equal(t, 0, sum.Student.ActiveBookings)
	assert.Empty(t, sum.Student.RecentBookings)
}

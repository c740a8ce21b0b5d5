package app

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"hostel_hub/internal/domain"
	"hostel_hub/internal/storage/memory"
)

type sentMail struct {
	mu   sync.Mutex
	list []domain.Mail
}

func (m *sentMail) Send(_ context.Context, mail domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, mail)
	return nil
}

func (m *sentMail) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.list))
	for _, x := range m.list {
		out = append(out, x.Subject)
	}
	return out
}

type fakeBlobs struct {
	keys []string
}

func (b *fakeBlobs) Put(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	b.keys = append(b.keys, key)
	return "https://cdn.test/" + key, nil
}

// clock hands out strictly increasing timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC)} }

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type env struct {
	store     *memory.Store
	cache     *memory.Cache
	mail      *sentMail
	blobs     *fakeBlobs
	clock     *clock
	hostels   *HostelService
	bookings  *BookingService
	payments  *PaymentService
	favorites *FavoriteService
	dashboard *DashboardService
	landing   *LandingService
	profiles  *ProfileService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store: memory.New(),
		cache: memory.NewCache(),
		mail:  &sentMail{},
		blobs: &fakeBlobs{},
		clock: newClock(),
	}
	n := NewNotifier(e.mail, "support@hostelhub.test")
	e.hostels = NewHostelService(e.store, e.store, e.cache, e.blobs, time.Minute)
	e.hostels.now = e.clock.now
	e.bookings = NewBookingService(e.store, e.store, e.store, e.cache, n)
	e.bookings.now = e.clock.now
	e.payments = NewPaymentService(e.store, e.store, e.store, n)
	e.favorites = NewFavoriteService(e.store, e.store)
	e.dashboard = NewDashboardService(e.store, e.store, e.store, e.store)
	e.landing = NewLandingService(e.store, e.store, e.cache, n, time.Minute)
	e.profiles = NewProfileService(e.store, e.blobs)
	return e
}

func (e *env) user(t *testing.T, role domain.Role, email string) domain.Identity {
	t.Helper()
	u := domain.User{ID: uuid.NewString(), Email: email, Role: role, CreatedAt: e.clock.now()}
	p := domain.Profile{UserID: u.ID, Role: role, FullName: "Test " + string(role), UpdatedAt: u.CreatedAt}
	require.NoError(t, e.store.CreateUser(context.Background(), u, p))
	return domain.Identity{UserID: u.ID, Email: email, Role: role}
}

func validBasics(name string) Basics {
	return Basics{
		Name:        name,
		Type:        "hostel",
		Description: "Quiet rooms five minutes from the main campus gate.",
	}
}

func validLocation() Location {
	uni := "University of Lagos"
	return Location{Address: "12 Herbert Macaulay Way", City: "Lagos", NearbyUniversity: &uni}
}

func validPricing(rooms int) Pricing {
	return Pricing{PriceCents: 45000, Currency: "NGN", Rooms: rooms, AvailableRooms: rooms, GenderPolicy: "mixed"}
}

func validAmenities() AmenitiesStep {
	return AmenitiesStep{Amenities: []string{"wifi", "laundry"}, Images: []string{}}
}

// publish walks a draft through every wizard step and publishes it.
func (e *env) publish(t *testing.T, actor domain.Identity, b Basics, rooms int) domain.Hostel {
	t.Helper()
	ctx := context.Background()
	h, err := e.hostels.StartDraft(ctx, actor, b)
	require.NoError(t, err)
	_, err = e.hostels.SaveStep(ctx, actor, h.ID, domain.StepLocation, validLocation())
	require.NoError(t, err)
	_, err = e.hostels.SaveStep(ctx, actor, h.ID, domain.StepPricing, validPricing(rooms))
	require.NoError(t, err)
	_, err = e.hostels.SaveStep(ctx, actor, h.ID, domain.StepAmenities, validAmenities())
	require.NoError(t, err)
	h, err = e.hostels.Publish(ctx, actor, h.ID)
	require.NoError(t, err)
	return h
}

func moveIn(days int) string {
	return time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days).Format(dateLayout)
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Map()
}

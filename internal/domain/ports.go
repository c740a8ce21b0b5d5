package domain

import (
	"context"
	"io"
	"time"
)

type UserRepository interface {
	// CreateUser stores the user and its initial profile atomically.
	CreateUser(ctx context.Context, u User, p Profile) error
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetProfile(ctx context.Context, userID string) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) error
}

type CredentialStore interface {
	SaveCredential(ctx context.Context, c Credential) error
	GetCredential(ctx context.Context, email string) (Credential, error)
}

type HostelRepository interface {
	// Write paths
	CreateHostel(ctx context.Context, h Hostel) error
	// UpdateHostel writes everything except the room counts, which only
	// AdjustRooms and TransitionBooking change.
	UpdateHostel(ctx context.Context, h Hostel) error
	// AdjustRooms sets rooms and shifts available rooms by delta relative
	// to the stored value, clamped to 0..rooms.
	AdjustRooms(ctx context.Context, id string, rooms, delta int, at time.Time) error
	DeleteHostel(ctx context.Context, id string) error

	// Read paths
	GetHostel(ctx context.Context, id string) (Hostel, error)
	SearchHostels(ctx context.Context, q HostelQuery) (HostelsPage, error)
	ListHostelsByOwner(ctx context.Context, ownerID string) ([]Hostel, error)
	ListHostelsByAgent(ctx context.Context, agentID string) ([]Hostel, error)
	LandingStats(ctx context.Context) (LandingStats, error)
}

type BookingRepository interface {
	// CreateBooking returns ErrConflict when the student already holds a
	// pending or confirmed booking for the same hostel.
	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	// TransitionBooking moves a booking from one status to another and
	// applies roomDelta (-1, 0, +1) to the hostel's available rooms in the
	// same transaction. It returns ErrConflict when the booking is no longer
	// in status from, or when no room is left to take.
	TransitionBooking(ctx context.Context, id string, from, to BookingStatus, roomDelta int, at time.Time) error
	ListBookings(ctx context.Context, f BookingFilter) ([]Booking, error)
	// CountBookings counts every booking matching f by status; f.Status and
	// f.Limit are ignored.
	CountBookings(ctx context.Context, f BookingFilter) (map[BookingStatus]int, error)
}

type PaymentRepository interface {
	// CreatePayment returns ErrConflict if the booking is already paid.
	CreatePayment(ctx context.Context, p Payment) error
	HasPayment(ctx context.Context, bookingID string) (bool, error)
	ListPayments(ctx context.Context, f PaymentFilter) ([]Payment, error)
	// SumPayments totals every payment matching f; f.Limit is ignored.
	SumPayments(ctx context.Context, f PaymentFilter) (int64, error)
}

type FavoriteRepository interface {
	AddFavorite(ctx context.Context, f Favorite) error
	RemoveFavorite(ctx context.Context, userID, hostelID string) error
	ListFavorites(ctx context.Context, userID string) ([]Hostel, error)
}

type ContactRepository interface {
	SaveContactMessage(ctx context.Context, m ContactMessage) error
}

// IdentityProvider verifies credentials and returns the provider UID.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	SendPasswordReset(ctx context.Context, email string) error
}

type BlobStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type Mail struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

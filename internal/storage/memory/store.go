// Package memory is an in-process implementation of the repository ports.
// It backs the test suites and STORE=memory local runs; data does not
// survive a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hostel_hub/internal/domain"
)

type Store struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	profiles    map[string]domain.Profile
	credentials map[string]domain.Credential // by email
	hostels     map[string]domain.Hostel
	bookings    map[string]domain.Booking
	payments    map[string]domain.Payment
	favorites   map[string]map[string]time.Time // user -> hostel -> added
	contacts    []domain.ContactMessage
}

func New() *Store {
	return &Store{
		users:       map[string]domain.User{},
		profiles:    map[string]domain.Profile{},
		credentials: map[string]domain.Credential{},
		hostels:     map[string]domain.Hostel{},
		bookings:    map[string]domain.Booking{},
		payments:    map[string]domain.Payment{},
		favorites:   map[string]map[string]time.Time{},
	}
}

var (
	_ domain.UserRepository     = (*Store)(nil)
	_ domain.CredentialStore    = (*Store)(nil)
	_ domain.HostelRepository   = (*Store)(nil)
	_ domain.BookingRepository  = (*Store)(nil)
	_ domain.PaymentRepository  = (*Store)(nil)
	_ domain.FavoriteRepository = (*Store)(nil)
	_ domain.ContactRepository  = (*Store)(nil)
)

// ---- users ----

func (s *Store) CreateUser(_ context.Context, u domain.User, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	if _, ok := s.users[u.ID]; ok {
		return domain.ErrConflict
	}
	s.users[u.ID] = u
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *Store) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

func (s *Store) UpdateProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.profiles[p.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	p.Role = old.Role
	s.profiles[p.UserID] = p
	return nil
}

func (s *Store) SaveCredential(_ context.Context, c domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Email = strings.ToLower(c.Email)
	if _, ok := s.credentials[c.Email]; ok {
		return domain.ErrConflict
	}
	s.credentials[c.Email] = c
	return nil
}

func (s *Store) GetCredential(_ context.Context, email string) (domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[strings.ToLower(email)]
	if !ok {
		return domain.Credential{}, domain.ErrNotFound
	}
	return c, nil
}

func (s *Store) SaveContactMessage(_ context.Context, m domain.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, m)
	return nil
}

// ContactMessages returns a copy of the stored contact messages.
func (s *Store) ContactMessages() []domain.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ContactMessage(nil), s.contacts...)
}

// ---- hostels ----

func cloneHostel(h domain.Hostel) domain.Hostel {
	h.Amenities = append([]string{}, h.Amenities...)
	h.Images = append([]string{}, h.Images...)
	return h
}

func (s *Store) CreateHostel(_ context.Context, h domain.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hostels[h.ID]; ok {
		return domain.ErrConflict
	}
	s.hostels[h.ID] = cloneHostel(h)
	return nil
}

func (s *Store) UpdateHostel(_ context.Context, h domain.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.hostels[h.ID]
	if !ok {
		return domain.ErrNotFound
	}
	h.OwnerID, h.AgentID, h.CreatedAt = old.OwnerID, old.AgentID, old.CreatedAt
	h.Rooms, h.AvailableRooms = old.Rooms, old.AvailableRooms
	s.hostels[h.ID] = cloneHostel(h)
	return nil
}

func (s *Store) AdjustRooms(_ context.Context, id string, rooms, delta int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hostels[id]
	if !ok {
		return domain.ErrNotFound
	}
	h.AvailableRooms = min(rooms, max(0, h.AvailableRooms+delta))
	h.Rooms = rooms
	h.UpdatedAt = at
	s.hostels[id] = h
	return nil
}

func (s *Store) DeleteHostel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hostels[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.hostels, id)
	for _, favs := range s.favorites {
		delete(favs, id)
	}
	return nil
}

func (s *Store) GetHostel(_ context.Context, id string) (domain.Hostel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hostels[id]
	if !ok {
		return domain.Hostel{}, domain.ErrNotFound
	}
	return cloneHostel(h), nil
}

// newestFirst orders by CreatedAt desc, then ID desc.
func newestFirst(hs []domain.Hostel) {
	sort.Slice(hs, func(i, j int) bool {
		if !hs[i].CreatedAt.Equal(hs[j].CreatedAt) {
			return hs[i].CreatedAt.After(hs[j].CreatedAt)
		}
		return hs[i].ID > hs[j].ID
	})
}

func matches(h domain.Hostel, q domain.HostelQuery) bool {
	if h.Status != domain.HostelPublished {
		return false
	}
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		hay := strings.ToLower(h.Name + "\n" + h.Description + "\n" + h.City)
		if h.NearbyUniversity != nil {
			hay += "\n" + strings.ToLower(*h.NearbyUniversity)
		}
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	if q.City != "" && !strings.EqualFold(h.City, q.City) {
		return false
	}
	if q.Type != "" && h.Type != q.Type {
		return false
	}
	if q.Gender != "" && h.GenderPolicy != q.Gender {
		return false
	}
	if q.Amenity != "" && !contains(h.Amenities, q.Amenity) {
		return false
	}
	if q.MinPrice != nil && h.PriceCents < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && h.PriceCents > *q.MaxPrice {
		return false
	}
	if a := q.After; a != nil {
		if h.CreatedAt.After(a.CreatedAt) || (h.CreatedAt.Equal(a.CreatedAt) && h.ID >= a.ID) {
			return false
		}
	}
	return true
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func (s *Store) SearchHostels(_ context.Context, q domain.HostelQuery) (domain.HostelsPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Hostel{}
	for _, h := range s.hostels {
		if matches(h, q) {
			out = append(out, cloneHostel(h))
		}
	}
	newestFirst(out)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return domain.HostelsPage{Items: out}, nil
}

func (s *Store) listHostels(keep func(domain.Hostel) bool) []domain.Hostel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Hostel{}
	for _, h := range s.hostels {
		if keep(h) {
			out = append(out, cloneHostel(h))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

func (s *Store) ListHostelsByOwner(_ context.Context, ownerID string) ([]domain.Hostel, error) {
	return s.listHostels(func(h domain.Hostel) bool { return h.OwnerID == ownerID }), nil
}

func (s *Store) ListHostelsByAgent(_ context.Context, agentID string) ([]domain.Hostel, error) {
	return s.listHostels(func(h domain.Hostel) bool { return h.AgentID != nil && *h.AgentID == agentID }), nil
}

func (s *Store) LandingStats(_ context.Context) (domain.LandingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cities := map[string]struct{}{}
	var st domain.LandingStats
	for _, h := range s.hostels {
		if h.Status != domain.HostelPublished {
			continue
		}
		st.Hostels++
		cities[strings.ToLower(h.City)] = struct{}{}
	}
	st.Cities = len(cities)
	return st, nil
}

// ---- bookings ----

func (s *Store) CreateBooking(_ context.Context, b domain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; ok {
		return domain.ErrConflict
	}
	for _, x := range s.bookings {
		if x.StudentID == b.StudentID && x.HostelID == b.HostelID && x.Status.Active() {
			return fmt.Errorf("%w: you already have an active booking for this hostel", domain.ErrConflict)
		}
	}
	s.bookings[b.ID] = b
	return nil
}

func (s *Store) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrNotFound
	}
	if h, ok := s.hostels[b.HostelID]; ok {
		b.HostelName = h.Name
	}
	return b, nil
}

func (s *Store) TransitionBooking(_ context.Context, id string, from, to domain.BookingStatus, roomDelta int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	if b.Status != from {
		return fmt.Errorf("%w: booking is no longer %s", domain.ErrConflict, from)
	}
	h, ok := s.hostels[b.HostelID]
	if !ok {
		return domain.ErrNotFound
	}
	switch {
	case roomDelta < 0:
		if h.AvailableRooms <= 0 {
			return fmt.Errorf("%w: no rooms available", domain.ErrConflict)
		}
		h.AvailableRooms--
	case roomDelta > 0:
		if h.AvailableRooms < h.Rooms {
			h.AvailableRooms++
		}
	}
	if roomDelta != 0 {
		h.UpdatedAt = at
		s.hostels[h.ID] = h
	}
	b.Status = to
	b.UpdatedAt = at
	s.bookings[id] = b
	return nil
}

func (s *Store) ListBookings(_ context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Booking{}
	for _, b := range s.bookings {
		if !bookingMatches(b, f) {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if h, ok := s.hostels[b.HostelID]; ok {
			b.HostelName = h.Name
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) CountBookings(_ context.Context, f domain.BookingFilter) (map[domain.BookingStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[domain.BookingStatus]int{}
	for _, b := range s.bookings {
		if bookingMatches(b, f) {
			out[b.Status]++
		}
	}
	return out, nil
}

func bookingMatches(b domain.Booking, f domain.BookingFilter) bool {
	return partyMatches(b.StudentID, b.OwnerID, b.AgentID, f.StudentID, f.OwnerID, f.AgentID)
}

// partyMatches applies the first non-empty filter id; no filter matches nothing.
func partyMatches(student, owner string, agent *string, fStudent, fOwner, fAgent string) bool {
	switch {
	case fStudent != "":
		return student == fStudent
	case fOwner != "":
		return owner == fOwner
	case fAgent != "":
		return agent != nil && *agent == fAgent
	}
	return false
}

// ---- payments ----

func (s *Store) CreatePayment(_ context.Context, p domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.BookingID == p.BookingID {
			return fmt.Errorf("%w: booking is already paid", domain.ErrConflict)
		}
	}
	s.payments[p.ID] = p
	return nil
}

func (s *Store) HasPayment(_ context.Context, bookingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListPayments(_ context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Payment{}
	for _, p := range s.payments {
		if partyMatches(p.StudentID, p.OwnerID, p.AgentID, f.StudentID, f.OwnerID, f.AgentID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) SumPayments(_ context.Context, f domain.PaymentFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, p := range s.payments {
		if partyMatches(p.StudentID, p.OwnerID, p.AgentID, f.StudentID, f.OwnerID, f.AgentID) {
			total += p.AmountCents
		}
	}
	return total, nil
}

// ---- favorites ----

func (s *Store) AddFavorite(_ context.Context, f domain.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs := s.favorites[f.UserID]
	if favs == nil {
		favs = map[string]time.Time{}
		s.favorites[f.UserID] = favs
	}
	if _, ok := favs[f.HostelID]; !ok {
		favs[f.HostelID] = f.CreatedAt
	}
	return nil
}

func (s *Store) RemoveFavorite(_ context.Context, userID, hostelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.favorites[userID], hostelID)
	return nil
}

func (s *Store) ListFavorites(_ context.Context, userID string) ([]domain.Hostel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type fav struct {
		h  domain.Hostel
		at time.Time
	}
	var favs []fav
	for id, at := range s.favorites[userID] {
		if h, ok := s.hostels[id]; ok && h.Status == domain.HostelPublished {
			favs = append(favs, fav{cloneHostel(h), at})
		}
	}
	sort.Slice(favs, func(i, j int) bool { return favs[i].at.After(favs[j].at) })
	out := make([]domain.Hostel, 0, len(favs))
	for _, f := range favs {
		out = append(out, f.h)
	}
	return out, nil
}

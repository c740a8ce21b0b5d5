package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hostel_hub/internal/domain"
)

const featuredCount = 6

type Landing struct {
	Featured []domain.Hostel     `json:"featured"`
	Stats    domain.LandingStats `json:"stats"`
}

type ContactForm struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

type LandingService struct {
	hostels  domain.HostelRepository
	contacts domain.ContactRepository
	cache    domain.Cache
	notify   *Notifier
	cacheTTL time.Duration
	now      func() time.Time
}

func NewLandingService(h domain.HostelRepository, c domain.ContactRepository, cache domain.Cache, n *Notifier, ttl time.Duration) *LandingService {
	return &LandingService{hostels: h, contacts: c, cache: cache, notify: n, cacheTTL: ttl, now: time.Now}
}

func (s *LandingService) Landing(ctx context.Context) (Landing, error) {
	var out Landing
	if ok, _ := s.cache.Get(ctx, landingKey, &out); ok {
		return out, nil
	}
	page, err := s.hostels.SearchHostels(ctx, domain.HostelQuery{Limit: featuredCount})
	if err != nil {
		return Landing{}, fmt.Errorf("featured hostels: %w", err)
	}
	stats, err := s.hostels.LandingStats(ctx)
	if err != nil {
		return Landing{}, fmt.Errorf("landing stats: %w", err)
	}
	out = Landing{Featured: page.Items, Stats: stats}
	if out.Featured == nil {
		out.Featured = []domain.Hostel{}
	}
	_ = s.cache.Set(ctx, landingKey, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func (s *LandingService) Contact(ctx context.Context, f ContactForm) error {
	f.Name = cleanString(f.Name)
	f.Email = cleanString(f.Email, true)
	f.Message = trimText(f.Message)
	if err := validateStruct(f); err != nil {
		return err
	}
	m := domain.ContactMessage{
		ID:        uuid.NewString(),
		Name:      f.Name,
		Email:     f.Email,
		Message:   f.Message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.contacts.SaveContactMessage(ctx, m); err != nil {
		return fmt.Errorf("saving contact message: %w", err)
	}
	s.notify.ContactReceived(ctx, m)
	return nil
}

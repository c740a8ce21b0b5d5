package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hostel_hub/internal/domain"
)

// ImportService drives feed records through the listing wizard on behalf
// of one business owner.
type ImportService struct {
	hostels         *HostelService
	defaultCurrency string
}

func NewImportService(h *HostelService, defaultCurrency string) *ImportService {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &ImportService{hostels: h, defaultCurrency: defaultCurrency}
}

// ImportListing creates and publishes one listing. A record that fails
// any step leaves no draft behind.
func (s *ImportService) ImportListing(ctx context.Context, owner domain.Identity, rec map[string]any) (domain.Hostel, error) {
	l := mapListing(rec, s.defaultCurrency)

	// 1) Draft from basics.
	h, err := s.hostels.StartDraft(ctx, owner, l.Basics)
	if err != nil {
		return domain.Hostel{}, fmt.Errorf("basics: %w", err)
	}

	// 2) Remaining steps in order, then publish.
	steps := []struct {
		n       int
		payload any
	}{
		{domain.StepLocation, l.Location},
		{domain.StepPricing, l.Pricing},
		{domain.StepAmenities, l.Amenities},
	}
	for _, st := range steps {
		if _, err := s.hostels.SaveStep(ctx, owner, h.ID, st.n, st.payload); err != nil {
			s.discard(ctx, owner, h.ID)
			return domain.Hostel{}, fmt.Errorf("step %d: %w", st.n, err)
		}
	}
	published, err := s.hostels.Publish(ctx, owner, h.ID)
	if err != nil {
		s.discard(ctx, owner, h.ID)
		return domain.Hostel{}, fmt.Errorf("publish: %w", err)
	}
	return published, nil
}

func (s *ImportService) discard(ctx context.Context, owner domain.Identity, id string) {
	if err := s.hostels.DeleteDraft(ctx, owner, id); err != nil {
		log.Warn().Err(err).Str("hostel_id", id).Msg("could not discard failed import draft")
	}
}

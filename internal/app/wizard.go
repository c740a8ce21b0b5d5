package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hostel_hub/internal/domain"
)

/********** step payloads **********/

type Basics struct {
	Name        string `json:"name" validate:"required,min=3,max=120"`
	Type        string `json:"type" validate:"required,oneof=hostel apartment shared_room studio"`
	Description string `json:"description" validate:"required,min=20,max=5000"`
	// OwnerEmail names the business an agent lists on behalf of.
	OwnerEmail string `json:"owner_email,omitempty" validate:"omitempty,email"`
}

type Location struct {
	Address          string   `json:"address" validate:"required,min=5,max=255"`
	City             string   `json:"city" validate:"required,min=2,max=100"`
	Lat              *float64 `json:"lat" validate:"required_with=Lon,omitempty,latitude"`
	Lon              *float64 `json:"lon" validate:"required_with=Lat,omitempty,longitude"`
	NearbyUniversity *string  `json:"nearby_university" validate:"omitempty,max=160"`
}

type Pricing struct {
	PriceCents     int64  `json:"price_cents" validate:"required,gt=0"`
	Currency       string `json:"currency" validate:"required,len=3,uppercase,iso4217"`
	Rooms          int    `json:"rooms" validate:"required,min=1,max=1000"`
	AvailableRooms int    `json:"available_rooms" validate:"min=0,ltefield=Rooms"`
	GenderPolicy   string `json:"gender_policy" validate:"required,oneof=mixed male female"`
}

type AmenitiesStep struct {
	Amenities []string `json:"amenities" validate:"max=12,unique,dive,amenity"`
	Images    []string `json:"images" validate:"max=20,dive,url"`
}

// WizardState describes where a hostel stands in the wizard.
type WizardState struct {
	Hostel        domain.Hostel `json:"hostel"`
	CompletedStep int           `json:"completed_step"`
	NextStep      int           `json:"next_step"`
	CanPublish    bool          `json:"can_publish"`
}

/********** service **********/

type HostelService struct {
	hostels  domain.HostelRepository
	users    domain.UserRepository
	cache    domain.Cache
	blobs    domain.BlobStore
	cacheTTL time.Duration
	now      func() time.Time
}

func NewHostelService(h domain.HostelRepository, u domain.UserRepository, c domain.Cache, b domain.BlobStore, ttl time.Duration) *HostelService {
	return &HostelService{hostels: h, users: u, cache: c, blobs: b, cacheTTL: ttl, now: time.Now}
}

func (s *HostelService) StartDraft(ctx context.Context, actor domain.Identity, b Basics) (domain.Hostel, error) {
	if err := Authorize(&actor, domain.RoleBusiness, domain.RoleAgent); err != nil {
		return domain.Hostel{}, err
	}
	b = cleanBasics(b)
	if err := validateStruct(b); err != nil {
		return domain.Hostel{}, err
	}

	h := domain.Hostel{
		ID:            uuid.NewString(),
		OwnerID:       actor.UserID,
		Status:        domain.HostelDraft,
		CompletedStep: domain.StepBasics,
		Amenities:     []string{},
		Images:        []string{},
	}
	if actor.Role == domain.RoleAgent {
		owner, err := s.resolveOwner(ctx, b.OwnerEmail)
		if err != nil {
			return domain.Hostel{}, err
		}
		agent := actor.UserID
		h.OwnerID = owner.ID
		h.AgentID = &agent
	}
	applyBasics(&h, b)
	h.CreatedAt = s.now().UTC()
	h.UpdatedAt = h.CreatedAt

	if err := s.hostels.CreateHostel(ctx, h); err != nil {
		return domain.Hostel{}, fmt.Errorf("creating draft: %w", err)
	}
	log.Info().Str("hostel_id", h.ID).Str("owner_id", h.OwnerID).Msg("hostel draft created")
	return h, nil
}

func (s *HostelService) resolveOwner(ctx context.Context, email string) (domain.User, error) {
	if email == "" {
		return domain.User{}, domain.NewValidationError(domain.FieldError{Field: "owner_email", Message: "owner_email is required when listing as an agent"})
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.NewValidationError(domain.FieldError{Field: "owner_email", Message: "no business account with this email"})
		}
		return domain.User{}, err
	}
	if u.Role != domain.RoleBusiness {
		return domain.User{}, domain.NewValidationError(domain.FieldError{Field: "owner_email", Message: "owner_email must belong to a business account"})
	}
	return u, nil
}

// SaveStep validates and applies one wizard step. Drafts advance one step
// at a time; published hostels may edit any step and stay published.
func (s *HostelService) SaveStep(ctx context.Context, actor domain.Identity, id string, step int, payload any) (domain.Hostel, error) {
	h, err := s.managed(ctx, actor, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	if step < domain.StepBasics || step > domain.LastStep {
		return domain.Hostel{}, domain.NewValidationError(domain.FieldError{Field: "step", Message: fmt.Sprintf("step must be between %d and %d", domain.StepBasics, domain.LastStep)})
	}
	if h.Status == domain.HostelDraft && step > h.CompletedStep+1 {
		return domain.Hostel{}, fmt.Errorf("%w: complete step %d first", domain.ErrConflict, h.CompletedStep+1)
	}

	var pricing *Pricing
	switch p := payload.(type) {
	case Basics:
		if step != domain.StepBasics {
			return domain.Hostel{}, errStepPayload(step)
		}
		p = cleanBasics(p)
		p.OwnerEmail = "" // ownership is fixed once the draft exists
		if err := validateStruct(p); err != nil {
			return domain.Hostel{}, err
		}
		applyBasics(&h, p)
	case Location:
		if step != domain.StepLocation {
			return domain.Hostel{}, errStepPayload(step)
		}
		p.Address = cleanString(p.Address)
		p.City = cleanString(p.City)
		p.NearbyUniversity = cleanOptional(p.NearbyUniversity)
		if err := validateStruct(p); err != nil {
			return domain.Hostel{}, err
		}
		h.Address, h.City = p.Address, p.City
		h.Lat, h.Lon = p.Lat, p.Lon
		h.NearbyUniversity = p.NearbyUniversity
	case Pricing:
		if step != domain.StepPricing {
			return domain.Hostel{}, errStepPayload(step)
		}
		if err := validateStruct(p); err != nil {
			return domain.Hostel{}, err
		}
		h.PriceCents, h.Currency = p.PriceCents, p.Currency
		h.GenderPolicy = p.GenderPolicy
		pricing = &p
	case AmenitiesStep:
		if step != domain.StepAmenities {
			return domain.Hostel{}, errStepPayload(step)
		}
		if p.Amenities == nil {
			p.Amenities = []string{}
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		if err := validateStruct(p); err != nil {
			return domain.Hostel{}, err
		}
		h.Amenities, h.Images = p.Amenities, p.Images
	default:
		return domain.Hostel{}, errStepPayload(step)
	}

	if step > h.CompletedStep {
		h.CompletedStep = step
	}
	h.UpdatedAt = s.now().UTC()
	if err := s.hostels.UpdateHostel(ctx, h); err != nil {
		return domain.Hostel{}, fmt.Errorf("saving step %d: %w", step, err)
	}
	if pricing != nil {
		// relative to what we read, so bookings decided meanwhile still count
		delta := pricing.AvailableRooms - h.AvailableRooms
		if err := s.hostels.AdjustRooms(ctx, h.ID, pricing.Rooms, delta, h.UpdatedAt); err != nil {
			return domain.Hostel{}, fmt.Errorf("saving rooms: %w", err)
		}
		if h, err = s.hostels.GetHostel(ctx, h.ID); err != nil {
			return domain.Hostel{}, err
		}
	}
	s.invalidate(ctx, h)
	return h, nil
}

func errStepPayload(step int) error {
	return domain.NewValidationError(domain.FieldError{Field: "step", Message: fmt.Sprintf("payload does not match step %d", step)})
}

func (s *HostelService) State(ctx context.Context, actor domain.Identity, id string) (WizardState, error) {
	h, err := s.managed(ctx, actor, id)
	if err != nil {
		return WizardState{}, err
	}
	next := h.CompletedStep + 1
	if next > domain.LastStep {
		next = 0
	}
	return WizardState{
		Hostel:        h,
		CompletedStep: h.CompletedStep,
		NextStep:      next,
		CanPublish:    h.Status == domain.HostelDraft && validateHostel(h) == nil,
	}, nil
}

func (s *HostelService) Publish(ctx context.Context, actor domain.Identity, id string) (domain.Hostel, error) {
	h, err := s.managed(ctx, actor, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	if h.Status == domain.HostelPublished {
		return h, nil
	}
	if h.Status != domain.HostelDraft {
		return domain.Hostel{}, fmt.Errorf("%w: only drafts can be published", domain.ErrConflict)
	}
	if h.CompletedStep < domain.LastStep {
		return domain.Hostel{}, fmt.Errorf("%w: complete step %d first", domain.ErrConflict, h.CompletedStep+1)
	}
	if err := validateHostel(h); err != nil {
		return domain.Hostel{}, err
	}
	h.Status = domain.HostelPublished
	h.UpdatedAt = s.now().UTC()
	if err := s.hostels.UpdateHostel(ctx, h); err != nil {
		return domain.Hostel{}, fmt.Errorf("publishing: %w", err)
	}
	s.invalidate(ctx, h)
	log.Info().Str("hostel_id", h.ID).Msg("hostel published")
	return h, nil
}

func (s *HostelService) Archive(ctx context.Context, actor domain.Identity, id string) (domain.Hostel, error) {
	h, err := s.managed(ctx, actor, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	if h.Status != domain.HostelPublished {
		return domain.Hostel{}, fmt.Errorf("%w: only published hostels can be archived", domain.ErrConflict)
	}
	h.Status = domain.HostelArchived
	h.UpdatedAt = s.now().UTC()
	if err := s.hostels.UpdateHostel(ctx, h); err != nil {
		return domain.Hostel{}, fmt.Errorf("archiving: %w", err)
	}
	s.invalidate(ctx, h)
	return h, nil
}

func (s *HostelService) DeleteDraft(ctx context.Context, actor domain.Identity, id string) error {
	h, err := s.managed(ctx, actor, id)
	if err != nil {
		return err
	}
	if h.Status != domain.HostelDraft {
		return fmt.Errorf("%w: only drafts can be deleted", domain.ErrConflict)
	}
	return s.hostels.DeleteHostel(ctx, id)
}

func (s *HostelService) UploadImage(ctx context.Context, actor domain.Identity, id string, body io.Reader) (domain.Hostel, error) {
	if s.blobs == nil {
		return domain.Hostel{}, domain.ErrUnavailable
	}
	h, err := s.managed(ctx, actor, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	if len(h.Images) >= domain.MaxHostelImages {
		return domain.Hostel{}, domain.NewValidationError(domain.FieldError{Field: "images", Message: fmt.Sprintf("a hostel can have at most %d images", domain.MaxHostelImages)})
	}
	img, err := readImage(body)
	if err != nil {
		return domain.Hostel{}, err
	}
	url, err := s.blobs.Put(ctx, img.key("hostels/"+h.ID), img.contentType, img.reader(), img.size())
	if err != nil {
		return domain.Hostel{}, fmt.Errorf("storing image: %w", err)
	}
	h.Images = append(h.Images, url)
	h.UpdatedAt = s.now().UTC()
	if err := s.hostels.UpdateHostel(ctx, h); err != nil {
		return domain.Hostel{}, fmt.Errorf("saving image: %w", err)
	}
	s.invalidate(ctx, h)
	return h, nil
}

// managed loads a hostel the actor owns or manages. Others get ErrNotFound
// for drafts and ErrForbidden for public listings.
func (s *HostelService) managed(ctx context.Context, actor domain.Identity, id string) (domain.Hostel, error) {
	if err := Authorize(&actor, domain.RoleBusiness, domain.RoleAgent); err != nil {
		return domain.Hostel{}, err
	}
	h, err := s.hostels.GetHostel(ctx, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	if !h.ManagedBy(actor.UserID) {
		if h.Status == domain.HostelPublished {
			return domain.Hostel{}, domain.ErrForbidden
		}
		return domain.Hostel{}, domain.ErrNotFound
	}
	return h, nil
}

func cleanBasics(b Basics) Basics {
	b.Name = cleanString(b.Name)
	b.Type = cleanString(b.Type, true)
	b.Description = trimText(b.Description)
	b.OwnerEmail = cleanString(b.OwnerEmail, true)
	return b
}

func applyBasics(h *domain.Hostel, b Basics) {
	h.Name, h.Type, h.Description = b.Name, b.Type, b.Description
}

// validateHostel re-checks every step on the assembled hostel.
func validateHostel(h domain.Hostel) error {
	steps := []any{
		Basics{Name: h.Name, Type: h.Type, Description: h.Description},
		Location{Address: h.Address, City: h.City, Lat: h.Lat, Lon: h.Lon, NearbyUniversity: h.NearbyUniversity},
		Pricing{PriceCents: h.PriceCents, Currency: h.Currency, Rooms: h.Rooms, AvailableRooms: h.AvailableRooms, GenderPolicy: h.GenderPolicy},
		AmenitiesStep{Amenities: h.Amenities, Images: h.Images},
	}
	var fields []domain.FieldError
	for _, st := range steps {
		if err := validateStruct(st); err != nil {
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				return err
			}
			fields = append(fields, ve.Fields...)
		}
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

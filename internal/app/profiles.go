package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"hostel_hub/internal/domain"
)

// ProfileUpdate is a partial update; nil fields are left unchanged and
// empty strings clear optional fields.
type ProfileUpdate struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=2,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,e164"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	University  *string `json:"university" validate:"omitempty,max=160"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=160"`
	AgencyName  *string `json:"agency_name" validate:"omitempty,max=160"`
}

type ProfileService struct {
	users domain.UserRepository
	blobs domain.BlobStore
	now   func() time.Time
}

func NewProfileService(users domain.UserRepository, blobs domain.BlobStore) *ProfileService {
	return &ProfileService{users: users, blobs: blobs, now: time.Now}
}

func (s *ProfileService) Get(ctx context.Context, id domain.Identity) (domain.Profile, error) {
	if err := Authorize(&id); err != nil {
		return domain.Profile{}, err
	}
	return s.users.GetProfile(ctx, id.UserID)
}

func (s *ProfileService) Update(ctx context.Context, id domain.Identity, pu ProfileUpdate) (domain.Profile, error) {
	if err := Authorize(&id); err != nil {
		return domain.Profile{}, err
	}
	if pu.FullName != nil {
		n := cleanString(*pu.FullName)
		pu.FullName = &n
	}
	// blank values clear a field and are not validated
	check := pu
	check.Phone = cleanOptional(pu.Phone)
	check.Bio = cleanOptional(pu.Bio)
	check.University = cleanOptional(pu.University)
	check.CompanyName = cleanOptional(pu.CompanyName)
	check.AgencyName = cleanOptional(pu.AgencyName)
	if err := validateStruct(check); err != nil {
		return domain.Profile{}, err
	}
	if err := checkRoleFields(id.Role, pu); err != nil {
		return domain.Profile{}, err
	}

	p, err := s.users.GetProfile(ctx, id.UserID)
	if err != nil {
		return domain.Profile{}, err
	}
	if pu.FullName != nil {
		p.FullName = *pu.FullName
	}
	apply := func(dst **string, src *string) {
		if src != nil {
			*dst = cleanOptional(src)
		}
	}
	apply(&p.Phone, pu.Phone)
	apply(&p.Bio, pu.Bio)
	apply(&p.University, pu.University)
	apply(&p.CompanyName, pu.CompanyName)
	apply(&p.AgencyName, pu.AgencyName)
	p.Role = id.Role
	p.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateProfile(ctx, p); err != nil {
		return domain.Profile{}, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}

// checkRoleFields rejects role-specific fields sent by another role.
func checkRoleFields(role domain.Role, pu ProfileUpdate) error {
	var fields []domain.FieldError
	deny := func(field string, v *string, owner domain.Role) {
		if v != nil && role != owner {
			fields = append(fields, domain.FieldError{Field: field, Message: field + " is only available to " + string(owner) + " accounts"})
		}
	}
	deny("university", pu.University, domain.RoleStudent)
	deny("company_name", pu.CompanyName, domain.RoleBusiness)
	deny("agency_name", pu.AgencyName, domain.RoleAgent)
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

func (s *ProfileService) UploadAvatar(ctx context.Context, id domain.Identity, body io.Reader) (domain.Profile, error) {
	if err := Authorize(&id); err != nil {
		return domain.Profile{}, err
	}
	if s.blobs == nil {
		return domain.Profile{}, domain.ErrUnavailable
	}
	img, err := readImage(body)
	if err != nil {
		return domain.Profile{}, err
	}
	key := img.key("avatars/" + id.UserID)
	url, err := s.blobs.Put(ctx, key, img.contentType, img.reader(), img.size())
	if err != nil {
		return domain.Profile{}, fmt.Errorf("storing avatar: %w", err)
	}

	p, err := s.users.GetProfile(ctx, id.UserID)
	if err != nil {
		return domain.Profile{}, err
	}
	p.AvatarURL = &url
	p.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateProfile(ctx, p); err != nil {
		return domain.Profile{}, fmt.Errorf("updating profile: %w", err)
	}
	log.Info().Str("user_id", id.UserID).Str("key", key).Msg("avatar uploaded")
	return p, nil
}

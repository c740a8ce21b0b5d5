package app

import (
	"context"
	"time"

	"hostel_hub/internal/domain"
)

type FavoriteService struct {
	favorites domain.FavoriteRepository
	hostels   domain.HostelRepository
	now       func() time.Time
}

func NewFavoriteService(f domain.FavoriteRepository, h domain.HostelRepository) *FavoriteService {
	return &FavoriteService{favorites: f, hostels: h, now: time.Now}
}

// Add is idempotent; only published hostels can be saved.
func (s *FavoriteService) Add(ctx context.Context, actor domain.Identity, hostelID string) error {
	if err := Authorize(&actor, domain.RoleStudent); err != nil {
		return err
	}
	h, err := s.hostels.GetHostel(ctx, hostelID)
	if err != nil {
		return err
	}
	if h.Status != domain.HostelPublished {
		return domain.ErrNotFound
	}
	return s.favorites.AddFavorite(ctx, domain.Favorite{UserID: actor.UserID, HostelID: hostelID, CreatedAt: s.now().UTC()})
}

func (s *FavoriteService) Remove(ctx context.Context, actor domain.Identity, hostelID string) error {
	if err := Authorize(&actor, domain.RoleStudent); err != nil {
		return err
	}
	return s.favorites.RemoveFavorite(ctx, actor.UserID, hostelID)
}

func (s *FavoriteService) List(ctx context.Context, actor domain.Identity) ([]domain.Hostel, error) {
	if err := Authorize(&actor, domain.RoleStudent); err != nil {
		return nil, err
	}
	out, err := s.favorites.ListFavorites(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Hostel{}
	}
	return out, nil
}

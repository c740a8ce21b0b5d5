package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"hostel_hub/internal/domain"
)

type hostelRow struct {
	ID               string          `db:"id"`
	OwnerID          string          `db:"owner_id"`
	AgentID          sql.NullString  `db:"agent_id"`
	Status           string          `db:"status"`
	CompletedStep    int             `db:"completed_step"`
	Name             string          `db:"name"`
	Type             string          `db:"type"`
	Description      string          `db:"description"`
	Address          string          `db:"address"`
	City             string          `db:"city"`
	Lat              sql.NullFloat64 `db:"lat"`
	Lon              sql.NullFloat64 `db:"lon"`
	NearbyUniversity sql.NullString  `db:"nearby_university"`
	PriceCents       int64           `db:"price_cents"`
	Currency         string          `db:"currency"`
	Rooms            int             `db:"rooms"`
	AvailableRooms   int             `db:"available_rooms"`
	GenderPolicy     string          `db:"gender_policy"`
	Amenities        string          `db:"amenities"` // JSON text
	Images           string          `db:"images"`    // JSON text
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func jsonList(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func toHostelRow(h domain.Hostel) hostelRow {
	return hostelRow{
		ID:               h.ID,
		OwnerID:          h.OwnerID,
		AgentID:          nullStr(h.AgentID),
		Status:           string(h.Status),
		CompletedStep:    h.CompletedStep,
		Name:             h.Name,
		Type:             h.Type,
		Description:      h.Description,
		Address:          h.Address,
		City:             h.City,
		Lat:              nullF64(h.Lat),
		Lon:              nullF64(h.Lon),
		NearbyUniversity: nullStr(h.NearbyUniversity),
		PriceCents:       h.PriceCents,
		Currency:         h.Currency,
		Rooms:            h.Rooms,
		AvailableRooms:   h.AvailableRooms,
		GenderPolicy:     h.GenderPolicy,
		Amenities:        jsonList(h.Amenities),
		Images:           jsonList(h.Images),
		CreatedAt:        h.CreatedAt.UTC(),
		UpdatedAt:        h.UpdatedAt.UTC(),
	}
}

func (r hostelRow) toDomain() domain.Hostel {
	h := domain.Hostel{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		AgentID:          ptrStr(r.AgentID),
		Status:           domain.HostelStatus(r.Status),
		CompletedStep:    r.CompletedStep,
		Name:             r.Name,
		Type:             r.Type,
		Description:      r.Description,
		Address:          r.Address,
		City:             r.City,
		Lat:              ptrF64(r.Lat),
		Lon:              ptrF64(r.Lon),
		NearbyUniversity: ptrStr(r.NearbyUniversity),
		PriceCents:       r.PriceCents,
		Currency:         r.Currency,
		Rooms:            r.Rooms,
		AvailableRooms:   r.AvailableRooms,
		GenderPolicy:     r.GenderPolicy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	_ = json.Unmarshal([]byte(r.Amenities), &h.Amenities)
	_ = json.Unmarshal([]byte(r.Images), &h.Images)
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	if h.Images == nil {
		h.Images = []string{}
	}
	return h
}

func hostelsFromRows(rows []hostelRow) []domain.Hostel {
	out := make([]domain.Hostel, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

func (r *Repo) CreateHostel(ctx context.Context, h domain.Hostel) error {
	_, err := r.db.NamedExecContext(ctx, insertHostelSQL, toHostelRow(h))
	if isDuplicate(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *Repo) UpdateHostel(ctx context.Context, h domain.Hostel) error {
	_, err := r.db.NamedExecContext(ctx, updateHostelSQL, toHostelRow(h))
	return err
}

func (r *Repo) AdjustRooms(ctx context.Context, id string, rooms, delta int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, adjustRoomsSQL, rooms, delta, rooms, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// zero also means "matched but unchanged"
		if _, err := r.GetHostel(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) DeleteHostel(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hostels WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) GetHostel(ctx context.Context, id string) (domain.Hostel, error) {
	var row hostelRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+hostelColumns+` FROM hostels h WHERE h.id = ?`, id); err != nil {
		return domain.Hostel{}, notFound(err)
	}
	return row.toDomain(), nil
}

// SearchHostels returns published hostels newest first, starting after
// q.After when set. At most q.Limit rows are returned.
func (r *Repo) SearchHostels(ctx context.Context, q domain.HostelQuery) (domain.HostelsPage, error) {
	var (
		where = []string{"h.status = 'published'"}
		args  []any
	)
	if q.Q != "" {
		like := "%" + escapeLike(q.Q) + "%"
		where = append(where, "(h.name LIKE ? OR h.description LIKE ? OR h.city LIKE ? OR h.nearby_university LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if q.City != "" {
		where = append(where, "h.city = ?")
		args = append(args, q.City)
	}
	if q.Type != "" {
		where = append(where, "h.`type` = ?")
		args = append(args, q.Type)
	}
	if q.Gender != "" {
		where = append(where, "h.gender_policy = ?")
		args = append(args, q.Gender)
	}
	if q.Amenity != "" {
		where = append(where, "JSON_CONTAINS(h.amenities, JSON_QUOTE(?))")
		args = append(args, q.Amenity)
	}
	if q.MinPrice != nil {
		where = append(where, "h.price_cents >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		where = append(where, "h.price_cents <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.After != nil {
		at := q.After.CreatedAt.UTC()
		where = append(where, "(h.created_at < ? OR (h.created_at = ? AND h.id < ?))")
		args = append(args, at, at, q.After.ID)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)

	query := `SELECT ` + hostelColumns + ` FROM hostels h WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY h.created_at DESC, h.id DESC LIMIT ?`

	var rows []hostelRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return domain.HostelsPage{}, err
	}
	return domain.HostelsPage{Items: hostelsFromRows(rows)}, nil
}

func (r *Repo) ListHostelsByOwner(ctx context.Context, ownerID string) ([]domain.Hostel, error) {
	var rows []hostelRow
	q := `SELECT ` + hostelColumns + ` FROM hostels h WHERE h.owner_id = ? ORDER BY h.updated_at DESC`
	if err := r.db.SelectContext(ctx, &rows, q, ownerID); err != nil {
		return nil, err
	}
	return hostelsFromRows(rows), nil
}

func (r *Repo) ListHostelsByAgent(ctx context.Context, agentID string) ([]domain.Hostel, error) {
	var rows []hostelRow
	q := `SELECT ` + hostelColumns + ` FROM hostels h WHERE h.agent_id = ? ORDER BY h.updated_at DESC`
	if err := r.db.SelectContext(ctx, &rows, q, agentID); err != nil {
		return nil, err
	}
	return hostelsFromRows(rows), nil
}

func (r *Repo) LandingStats(ctx context.Context) (domain.LandingStats, error) {
	var s domain.LandingStats
	row := r.db.QueryRowxContext(ctx, landingStatsSQL)
	if err := row.Scan(&s.Hostels, &s.Cities); err != nil {
		return domain.LandingStats{}, err
	}
	return s, nil
}

// ---- favorites ----

func (r *Repo) AddFavorite(ctx context.Context, f domain.Favorite) error {
	_, err := r.db.ExecContext(ctx, insertFavoriteSQL, f.UserID, f.HostelID, f.CreatedAt.UTC())
	return err
}

func (r *Repo) RemoveFavorite(ctx context.Context, userID, hostelID string) error {
	_, err := r.db.ExecContext(ctx, deleteFavoriteSQL, userID, hostelID)
	return err
}

func (r *Repo) ListFavorites(ctx context.Context, userID string) ([]domain.Hostel, error) {
	var rows []hostelRow
	if err := r.db.SelectContext(ctx, &rows, listFavoritesSQL, userID); err != nil {
		return nil, err
	}
	return hostelsFromRows(rows), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

package app

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hostel_hub/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50

	landingKey   = "landing"
	searchPrefix = "hostels:"
)

func hostelKey(id string) string { return "hostel:" + id }

// SearchParams is the raw, public search input.
type SearchParams struct {
	Q        string
	City     string
	Type     string
	Gender   string
	Amenity  string
	MinPrice *int64
	MaxPrice *int64
	Limit    int
	Cursor   string
}

// Search lists published hostels, newest first, with keyset pagination.
func (s *HostelService) Search(ctx context.Context, p SearchParams) (domain.HostelsPage, error) {
	q, err := normalizeSearch(p)
	if err != nil {
		return domain.HostelsPage{}, err
	}
	key := searchPrefix + searchFingerprint(q)
	var out domain.HostelsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	limit := q.Limit
	q.Limit = limit + 1
	page, err := s.hostels.SearchHostels(ctx, q)
	if err != nil {
		return domain.HostelsPage{}, err
	}
	out = domain.HostelsPage{Items: page.Items}
	if out.Items == nil {
		out.Items = []domain.Hostel{}
	}
	if len(out.Items) > limit {
		out.Items = out.Items[:limit]
		last := out.Items[limit-1]
		c := EncodeCursor(domain.PageCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		out.NextCursor = &c
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

func normalizeSearch(p SearchParams) (domain.HostelQuery, error) {
	q := domain.HostelQuery{
		Q:        cleanString(p.Q),
		City:     cleanString(p.City),
		Type:     cleanString(p.Type, true),
		Gender:   cleanString(p.Gender, true),
		Amenity:  cleanString(p.Amenity, true),
		MinPrice: p.MinPrice,
		MaxPrice: p.MaxPrice,
		Limit:    p.Limit,
	}
	switch {
	case q.Limit == 0:
		q.Limit = defaultPageSize
	case q.Limit < 0 || q.Limit > maxPageSize:
		return q, domain.NewValidationError(domain.FieldError{Field: "limit", Message: fmt.Sprintf("limit must be between 1 and %d", maxPageSize)})
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, domain.NewValidationError(domain.FieldError{Field: "min_price", Message: "min_price must not exceed max_price"})
	}
	if p.Cursor != "" {
		c, err := DecodeCursor(p.Cursor)
		if err != nil {
			return q, domain.NewValidationError(domain.FieldError{Field: "cursor", Message: "cursor is invalid"})
		}
		q.After = &c
	}
	return q, nil
}

func searchFingerprint(q domain.HostelQuery) string {
	i64 := func(p *int64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatInt(*p, 10)
	}
	after := ""
	if q.After != nil {
		after = EncodeCursor(*q.After)
	}
	sig := strings.Join([]string{
		strings.ToLower(q.Q), strings.ToLower(q.City), q.Type, q.Gender, q.Amenity,
		i64(q.MinPrice), i64(q.MaxPrice), strconv.Itoa(q.Limit), after,
	}, "|")
	sum := sha1.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}

// EncodeCursor renders an opaque page cursor.
func EncodeCursor(c domain.PageCursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + ":" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(s string) (domain.PageCursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return domain.PageCursor{}, err
	}
	ts, id, ok := strings.Cut(string(b), ":")
	if !ok || id == "" {
		return domain.PageCursor{}, fmt.Errorf("malformed cursor")
	}
	n, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return domain.PageCursor{}, err
	}
	return domain.PageCursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}

// Get returns a hostel. Published hostels are public; drafts and archived
// listings are only visible to whoever manages them.
func (s *HostelService) Get(ctx context.Context, viewer *domain.Identity, id string) (domain.Hostel, error) {
	key := hostelKey(id)
	var h domain.Hostel
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, err := s.hostels.GetHostel(ctx, id)
	if err != nil {
		return domain.Hostel{}, err
	}
	if h.Status != domain.HostelPublished {
		if viewer == nil || !h.ManagedBy(viewer.UserID) {
			return domain.Hostel{}, domain.ErrNotFound
		}
		return h, nil
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

// invalidate drops every cached view a hostel change can affect.
func (s *HostelService) invalidate(ctx context.Context, h domain.Hostel) {
	_ = s.cache.Del(ctx, hostelKey(h.ID))
	_ = s.cache.DelPrefix(ctx, searchPrefix)
	_ = s.cache.Del(ctx, landingKey)
}

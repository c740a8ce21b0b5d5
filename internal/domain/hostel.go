package domain

import "time"

type HostelStatus string

const (
	HostelDraft     HostelStatus = "draft"
	HostelPublished HostelStatus = "published"
	HostelArchived  HostelStatus = "archived"
)

// Wizard steps, 1-based. Publishing follows StepAmenities.
const (
	StepBasics    = 1
	StepLocation  = 2
	StepPricing   = 3
	StepAmenities = 4

	LastStep = StepAmenities
)

const MaxHostelImages = 20

var HostelTypes = []string{"hostel", "apartment", "shared_room", "studio"}

var GenderPolicies = []string{"mixed", "male", "female"}

// Amenities is the closed catalogue accepted on listings.
var Amenities = []string{
	"wifi", "laundry", "kitchen", "security", "parking", "study_room",
	"gym", "air_conditioning", "water", "electricity", "furnished", "cleaning",
}

type Hostel struct {
	ID               string       `json:"id"`
	OwnerID          string       `json:"owner_id"`
	AgentID          *string      `json:"agent_id,omitempty"`
	Status           HostelStatus `json:"status"`
	CompletedStep    int          `json:"completed_step"`
	Name             string       `json:"name"`
	Type             string       `json:"type"`
	Description      string       `json:"description"`
	Address          string       `json:"address,omitempty"`
	City             string       `json:"city,omitempty"`
	Lat              *float64     `json:"lat,omitempty"`
	Lon              *float64     `json:"lon,omitempty"`
	NearbyUniversity *string      `json:"nearby_university,omitempty"`
	PriceCents       int64        `json:"price_cents"`
	Currency         string       `json:"currency,omitempty"`
	Rooms            int          `json:"rooms"`
	AvailableRooms   int          `json:"available_rooms"`
	GenderPolicy     string       `json:"gender_policy,omitempty"`
	Amenities        []string     `json:"amenities"`
	Images           []string     `json:"images"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ManagedBy reports whether userID owns the hostel or manages it as agent.
func (h Hostel) ManagedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return h.OwnerID == userID || (h.AgentID != nil && *h.AgentID == userID)
}

func (h Hostel) Bookable() bool {
	return h.Status == HostelPublished && h.AvailableRooms > 0
}

type HostelQuery struct {
	Q        string
	City     string
	Type     string
	Gender   string
	Amenity  string
	MinPrice *int64
	MaxPrice *int64
	Limit    int
	After    *PageCursor
}

// PageCursor is the keyset position of the last item of a page.
type PageCursor struct {
	CreatedAt time.Time
	ID        string
}

type HostelsPage struct {
	Items      []Hostel `json:"items"`
	NextCursor *string  `json:"next_cursor,omitempty"`
}

type LandingStats struct {
	Hostels int `json:"hostels"`
	Cities  int `json:"cities"`
}

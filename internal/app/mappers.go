package app

import (
	"math"
	"strconv"
	"strings"

	"hostel_hub/internal/domain"
)

/********** alias registries (single source of truth) **********/

var listingAliases = map[string][]string{
	"name":        {"name", "title", "hostel_name", "property_name"},
	"type":        {"type", "property_type", "category"},
	"description": {"description", "about", "summary", "details"},
	"address": {
		"address", "address.line", "full_address", "street_address",
		"location.address", "street",
	},
	"city":       {"city", "address.city", "location.city", "town"},
	"university": {"nearby_university", "university", "campus", "location.university"},
	"currency":   {"currency", "price.currency", "currency_code"},
	"gender":     {"gender_policy", "gender", "occupancy"},
}

var amenitySynonyms = map[string]string{
	"wi-fi":           "wifi",
	"wi_fi":           "wifi",
	"internet":        "wifi",
	"ac":              "air_conditioning",
	"aircon":          "air_conditioning",
	"study":           "study_room",
	"library":         "study_room",
	"cctv":            "security",
	"guard":           "security",
	"washing":         "laundry",
	"running_water":   "water",
	"power":           "electricity",
	"housekeeping":    "cleaning",
	"fully_furnished": "furnished",
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) *string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return &s
		}
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/name},
// or a single comma separated string.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		switch raw := lookupAny(m, k).(type) {
		case []any:
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					if u, ok := t["url"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if u, ok := t["src"].(string); ok && u != "" {
						out = append(out, u)
						continue
					}
					if n, ok := t["name"].(string); ok && n != "" {
						out = append(out, n)
						continue
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, part := range strings.Split(raw, ",") {
				if t := strings.TrimSpace(part); t != "" {
					out = append(out, t)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

/********** listing mapper **********/

// listing is one feed record split into wizard steps.
type listing struct {
	Basics    Basics
	Location  Location
	Pricing   Pricing
	Amenities AmenitiesStep
}

func mapListing(rec map[string]any, defaultCurrency string) listing {
	var l listing

	l.Basics = Basics{
		Name:        deref(firstNonEmptyAlias(rec, listingAliases, "name")),
		Type:        normalizeType(deref(firstNonEmptyAlias(rec, listingAliases, "type"))),
		Description: deref(firstNonEmptyAlias(rec, listingAliases, "description")),
	}

	l.Location = Location{
		Address:          deref(firstNonEmptyAlias(rec, listingAliases, "address")),
		City:             deref(firstNonEmptyAlias(rec, listingAliases, "city")),
		Lat:              getFloatFlexible(rec, "lat", "latitude", "location.lat", "coordinates.lat"),
		Lon:              getFloatFlexible(rec, "lon", "lng", "longitude", "location.lon", "location.lng", "coordinates.lng"),
		NearbyUniversity: firstNonEmptyAlias(rec, listingAliases, "university"),
	}

	l.Pricing = Pricing{
		PriceCents:   priceCents(rec),
		Currency:     strings.ToUpper(deref(firstNonEmptyAlias(rec, listingAliases, "currency"))),
		GenderPolicy: normalizeGender(deref(firstNonEmptyAlias(rec, listingAliases, "gender"))),
	}
	if l.Pricing.Currency == "" {
		l.Pricing.Currency = strings.ToUpper(defaultCurrency)
	}
	if n := firstInt64Flexible(rec, "rooms", "total_rooms", "room_count", "capacity"); n != nil {
		l.Pricing.Rooms = int(*n)
	}
	l.Pricing.AvailableRooms = l.Pricing.Rooms
	if n := firstInt64Flexible(rec, "available_rooms", "vacancies", "rooms_available"); n != nil {
		l.Pricing.AvailableRooms = int(*n)
	}

	l.Amenities = AmenitiesStep{
		Amenities: normalizeAmenities(firstSliceStrings(rec, "amenities", "facilities", "features")),
		Images:    firstSliceStrings(rec, "images", "photos", "pictures"),
	}
	if l.Amenities.Images == nil {
		l.Amenities.Images = []string{}
	}
	return l
}

// priceCents prefers explicit cents, else a major-unit monthly price.
func priceCents(rec map[string]any) int64 {
	if c := firstInt64Flexible(rec, "price_cents", "price.cents"); c != nil {
		return *c
	}
	if f := getFloatFlexible(rec, "price_per_month", "monthly_rent", "rent", "price", "price.amount"); f != nil {
		return int64(math.Round(*f * 100))
	}
	return 0
}

func normalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(strings.ReplaceAll(s, "-", "_"), " ", "_")
	switch s {
	case "", "hostels", "dorm", "dormitory":
		return "hostel"
	case "room", "shared", "shared_rooms":
		return "shared_room"
	case "flat", "apartments":
		return "apartment"
	}
	return s
}

func normalizeGender(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "boys", "men", "m":
		return "male"
	case "female", "girls", "women", "ladies", "f":
		return "female"
	}
	return "mixed"
}

// normalizeAmenities maps feed labels onto the catalogue and drops the rest.
func normalizeAmenities(in []string) []string {
	known := make(map[string]struct{}, len(domain.Amenities))
	for _, a := range domain.Amenities {
		known[a] = struct{}{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		a := strings.ToLower(strings.TrimSpace(raw))
		a = strings.ReplaceAll(a, " ", "_")
		if syn, ok := amenitySynonyms[a]; ok {
			a = syn
		}
		if _, ok := known[a]; !ok {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

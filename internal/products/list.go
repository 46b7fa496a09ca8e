package products

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/urbancart/urbancart-backend/pkg/enums"
)

// ListFilters describe the supported filter knobs for the browse endpoint.
// Filters combine conjunctively.
type ListFilters struct {
	Categories  []string
	Gender      *enums.Gender
	MaxPrice    *int64
	MinDiscount *int
	Search      string
}

// FiltersFromQuery reads the browse query string. Unparseable numbers and
// unknown genders are ignored rather than rejected.
func FiltersFromQuery(q url.Values) ListFilters {
	var f ListFilters
	for _, raw := range q["category"] {
		for _, part := range strings.Split(raw, ",") {
			if c := strings.ToLower(strings.TrimSpace(part)); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
	}
	if g, err := enums.ParseGender(q.Get("gender")); err == nil {
		f.Gender = &g
	}
	if v, ok := parseLenientInt(q.Get("price")); ok {
		f.MaxPrice = &v
	}
	if v, ok := parseLenientInt(q.Get("discount")); ok {
		d := int(v)
		f.MinDiscount = &d
	}
	f.Search = strings.TrimSpace(q.Get("search"))
	return f
}

func parseLenientInt(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int64(v), true
}

package params

import (
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"eventconnect/internal/domain/events"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination windows the in-memory card list: /v1/events?page=2&limit=10.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination reads ?limit= and ?page=, clamping bad values to the defaults.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{
		Limit: DefaultLimit,
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta fills the totals once the full list size is known.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}

// Page returns the window of items p selects and records the totals on p.
func Page[T any](p *Pagination, items []T) []T {
	p.ComputeMeta(len(items))
	if p.Offset >= len(items) {
		return []T{}
	}
	end := min(p.Offset+p.Limit, len(items))
	return items[p.Offset:end]
}

// ParseFilterForm reads a filter submission from query or form values. Code lists may be
// repeated (?eventcode=LIVE&eventcode=CLUB) or comma separated (?eventcode=LIVE,CLUB).
func ParseFilterForm(v url.Values) events.FilterForm {
	return events.FilterForm{
		Location:   v.Get("location"),
		EventCodes: splitList(v[events.KeyEventCode]),
		Genres:     splitList(slices.Concat(v[events.KeyGenre], v["genre"])),
		Keyword:    v.Get(events.KeyKeyword),
		MinDate:    v.Get(events.KeyMinDate),
		MaxDate:    v.Get(events.KeyMaxDate),
	}
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ErrInvalidFilter is returned when a filter parameter cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

// PaymentFilter selects and pages payments for the admin console.
type PaymentFilter struct {
	Page          int
	Limit         int
	Search        string
	Status        PaymentStatus // Optional
	PaymentMethod PaymentMethod // Optional
	StartDate     *time.Time    // Inclusive lower bound on CreatedAt
	EndDate       *time.Time    // Inclusive upper bound on CreatedAt
}

// Normalize returns a copy of the filter with defaults applied.
func (f PaymentFilter) Normalize() PaymentFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultPageLimit
	case f.Limit > MaxPageLimit:
		f.Limit = MaxPageLimit
	}
	// Past this page the offset would overflow int.
	if maxPage := math.MaxInt / f.Limit; f.Page > maxPage {
		f.Page = maxPage
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Offset returns the number of rows skipped before the current page.
func (f PaymentFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether p satisfies every predicate of the filter.
// Paging fields are ignored.
func (f PaymentFilter) Matches(p *Payment) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.PaymentMethod != "" && p.PaymentMethod != f.PaymentMethod {
		return false
	}
	if f.StartDate != nil && p.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && p.CreatedAt.After(*f.EndDate) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := []string{
			p.OrderID,
			p.CustomerName,
			p.CustomerEmail,
			p.PaymentMethod.DisplayName(),
		}
		for _, h := range haystack {
			if strings.Contains(strings.ToLower(h), needle) {
				return true
			}
		}
		return false
	}
	return true
}

// ParseFilterDate parses a YYYY-MM-DD or RFC3339 date. A date-only value used
// as an upper bound covers the whole day.
func ParseFilterDate(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidFilter, value)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

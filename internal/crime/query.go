package crime

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/neogan74/intent/internal/metrics"
)

// Criteria narrows Filter results. Zero-valued fields are ignored.
type Criteria struct {
	Solved     *bool
	SearchTerm string
	From       *time.Time // inclusive
	To         *time.Time // inclusive
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.Solved == nil && strings.TrimSpace(c.SearchTerm) == "" && c.From == nil && c.To == nil
}

// Matches reports whether crime satisfies every set criterion.
func (c Criteria) Matches(crime Crime) bool {
	if c.Solved != nil && crime.Solved != *c.Solved {
		return false
	}

	if term := strings.ToLower(strings.TrimSpace(c.SearchTerm)); term != "" {
		if !strings.Contains(strings.ToLower(crime.Title), term) &&
			!strings.Contains(strings.ToLower(crime.Details), term) {
			return false
		}
	}

	if c.From != nil || c.To != nil {
		date, err := ParseTime(crime.Date)
		if err != nil {
			return false
		}
		if c.From != nil && date.Before(*c.From) {
			return false
		}
		if c.To != nil && date.After(*c.To) {
			return false
		}
	}

	return true
}

// ParseUpperBound parses an inclusive upper date bound. A date without a
// time covers the whole day, so "2024-01-01" ends at 23:59:59.999999999 UTC.
func ParseUpperBound(s string) (time.Time, error) {
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, err
	}
	if _, dateOnly := time.Parse(time.DateOnly, strings.TrimSpace(s)); dateOnly == nil {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// Filter returns the records matching criteria, newest date first.
func (s *Service) Filter(ctx context.Context, criteria Criteria) ([]Crime, error) {
	ctx, span := s.tracer.Start(ctx, "crime.Filter")
	defer span.End()

	crimes, err := s.load(ctx)
	if err != nil {
		s.fail(span, "filter", err)
		return nil, err
	}

	result := make([]Crime, 0, len(crimes))
	for _, c := range crimes {
		if criteria.Matches(c) {
			result = append(result, c)
		}
	}
	sortByDateDesc(result)

	span.SetAttributes(attribute.Int("crime.matches", len(result)))
	metrics.CrimeOperationsTotal.WithLabelValues("filter", "success").Inc()
	return result, nil
}

// Stats summarizes the collection.
type Stats struct {
	Total       int     `json:"total"`
	Solved      int     `json:"solved"`
	Unsolved    int     `json:"unsolved"`
	WithPhotos  int     `json:"withPhotos"`
	LastUpdated *string `json:"lastUpdated"`
}

// Stats counts records by status and reports the latest updatedAt, which is
// nil for an empty collection.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	ctx, span := s.tracer.Start(ctx, "crime.Stats")
	defer span.End()

	crimes, err := s.load(ctx)
	if err != nil {
		s.fail(span, "stats", err)
		return Stats{}, err
	}

	stats := Stats{Total: len(crimes)}
	var latest time.Time
	for _, c := range crimes {
		if c.Solved {
			stats.Solved++
		} else {
			stats.Unsolved++
		}
		if c.HasPhoto() {
			stats.WithPhotos++
		}

		updated, err := ParseTime(c.UpdatedAt)
		if err != nil {
			continue
		}
		if stats.LastUpdated == nil || updated.After(latest) {
			latest = updated
			value := c.UpdatedAt
			stats.LastUpdated = &value
		}
	}

	metrics.CrimeOperationsTotal.WithLabelValues("stats", "success").Inc()
	return stats, nil
}

// Package crime implements the crime record service: validation, upsert,
// lookup, deletion, filtering and statistics over the persisted collection.
package crime

import (
	"strings"
	"time"
)

// TimeLayout is the ISO-8601 layout used for every timestamp the service
// writes (UTC, millisecond precision).
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Crime is a single incident record as persisted under the crimes key.
type Crime struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Details   string  `json:"details"`
	Date      string  `json:"date"`
	Solved    bool    `json:"solved"`
	Photo     *string `json:"photo"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// HasPhoto reports whether a photo URI is attached.
func (c Crime) HasPhoto() bool {
	return c.Photo != nil && strings.TrimSpace(*c.Photo) != ""
}

// Input carries caller-supplied fields for Save. ID and CreatedAt are
// optional; an empty ID creates a new record.
type Input struct {
	ID        string  `json:"id,omitempty"`
	Title     string  `json:"title"`
	Details   string  `json:"details"`
	Date      string  `json:"date"`
	Solved    bool    `json:"solved"`
	Photo     *string `json:"photo,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// New returns a blank record with placeholder values, the starting point
// for a record that has not been filled in yet.
func New(now time.Time) Crime {
	ts := FormatTime(now)
	return Crime{
		Date:      ts,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// Input converts a stored record back into save input.
func (c Crime) Input() Input {
	return Input{
		ID:        c.ID,
		Title:     c.Title,
		Details:   c.Details,
		Date:      c.Date,
		Solved:    c.Solved,
		Photo:     c.Photo,
		CreatedAt: c.CreatedAt,
	}
}

// IsWellFormed checks the structural shape of a decoded record: the fields
// every persisted record must carry are present.
func IsWellFormed(c Crime) bool {
	return c.ID != "" &&
		c.Title != "" &&
		c.Date != "" &&
		c.CreatedAt != "" &&
		c.UpdatedAt != ""
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp. Values without a zone are read as
// UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

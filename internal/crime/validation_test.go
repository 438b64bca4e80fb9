package crime

import (
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func validCrime() Crime {
	return Crime{
		ID:        "crime-1",
		Title:     "Stolen bicycle",
		Details:   "Taken from the rack outside the library.",
		Date:      "2024-05-30T09:15:00.000Z",
		CreatedAt: FormatTime(testNow),
		UpdatedAt: FormatTime(testNow),
	}
}

func strPtr(s string) *string { return &s }

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Crime)
		wantField Field
		wantMsg   string
	}{
		{
			name:   "valid crime",
			mutate: func(c *Crime) {},
		},
		{
			name:      "empty title",
			mutate:    func(c *Crime) { c.Title = "" },
			wantField: FieldTitle,
			wantMsg:   "Title is required",
		},
		{
			name:      "blank title",
			mutate:    func(c *Crime) { c.Title = "   " },
			wantField: FieldTitle,
			wantMsg:   "Title is required",
		},
		{
			name:      "title of length 2",
			mutate:    func(c *Crime) { c.Title = "ab" },
			wantField: FieldTitle,
			wantMsg:   "Title must be at least 3 characters long",
		},
		{
			name:   "title of length 3",
			mutate: func(c *Crime) { c.Title = "abc" },
		},
		{
			name:   "title of length 100",
			mutate: func(c *Crime) { c.Title = strings.Repeat("a", 100) },
		},
		{
			name:      "title of length 101",
			mutate:    func(c *Crime) { c.Title = strings.Repeat("a", 101) },
			wantField: FieldTitle,
			wantMsg:   "Title must be less than 100 characters",
		},
		{
			name:   "title with allowed punctuation",
			mutate: func(c *Crime) { c.Title = `Who took "the" cake? It's gone - again_1.0, sadly!` },
		},
		{
			name:   "title with non-ASCII letters",
			mutate: func(c *Crime) { c.Title = "Café théft" },
		},
		{
			name:      "title with forbidden characters",
			mutate:    func(c *Crime) { c.Title = "<script>alert(1)</script>" },
			wantField: FieldTitle,
			wantMsg:   "Title contains invalid characters",
		},
		{
			name:   "details of 1000 characters",
			mutate: func(c *Crime) { c.Details = strings.Repeat("d", 1000) },
		},
		{
			name:      "details of 1001 characters",
			mutate:    func(c *Crime) { c.Details = strings.Repeat("d", 1001) },
			wantField: FieldDetails,
			wantMsg:   "Details must be less than 1000 characters",
		},
		{
			name:      "missing date",
			mutate:    func(c *Crime) { c.Date = "" },
			wantField: FieldDate,
			wantMsg:   "Date is required",
		},
		{
			name:      "garbage date",
			mutate:    func(c *Crime) { c.Date = "yesterday-ish" },
			wantField: FieldDate,
			wantMsg:   "Invalid date format",
		},
		{
			name:   "date equal to now",
			mutate: func(c *Crime) { c.Date = FormatTime(testNow) },
		},
		{
			name:      "date one second in the future",
			mutate:    func(c *Crime) { c.Date = FormatTime(testNow.Add(time.Second)) },
			wantField: FieldDate,
			wantMsg:   "Date cannot be in the future",
		},
		{
			name:   "date on 1900-01-01",
			mutate: func(c *Crime) { c.Date = "1900-01-01T00:00:00.000Z" },
		},
		{
			name:      "date before 1900",
			mutate:    func(c *Crime) { c.Date = "1899-12-31T23:59:59.000Z" },
			wantField: FieldDate,
			wantMsg:   "Date cannot be before 1900",
		},
		{
			name:   "date only",
			mutate: func(c *Crime) { c.Date = "2020-02-29" },
		},
		{
			name:   "date with offset",
			mutate: func(c *Crime) { c.Date = "2024-06-01T13:30:00+02:00" },
		},
		{
			name:   "file photo",
			mutate: func(c *Crime) { c.Photo = strPtr("file:///data/photo.jpg") },
		},
		{
			name:   "content photo",
			mutate: func(c *Crime) { c.Photo = strPtr("content://media/external/images/1") },
		},
		{
			name:   "data image photo",
			mutate: func(c *Crime) { c.Photo = strPtr("data:image/png;base64,iVBORw0KGgo=") },
		},
		{
			name:   "https photo",
			mutate: func(c *Crime) { c.Photo = strPtr("https://example.com/p.jpg") },
		},
		{
			name:   "empty photo is absent",
			mutate: func(c *Crime) { c.Photo = strPtr("") },
		},
		{
			name:      "ftp photo",
			mutate:    func(c *Crime) { c.Photo = strPtr("ftp://example.com/p.jpg") },
			wantField: FieldPhoto,
			wantMsg:   "Invalid photo URI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCrime()
			tt.mutate(&c)
			errs := Validate(c, testNow)

			if tt.wantMsg == "" {
				if errs != nil {
					t.Errorf("Validate() unexpected errors = %v", errs)
				}
				return
			}

			if errs == nil {
				t.Fatalf("Validate() expected error %q, got nil", tt.wantMsg)
			}
			if got := errs[tt.wantField]; got != tt.wantMsg {
				t.Errorf("Validate()[%s] = %q, want %q", tt.wantField, got, tt.wantMsg)
			}
		})
	}
}

func TestFieldErrors_Priority(t *testing.T) {
	tests := []struct {
		name      string
		errs      FieldErrors
		wantField Field
		wantMsg   string
	}{
		{
			name: "title beats everything",
			errs: FieldErrors{
				FieldPhoto:   "Invalid photo URI",
				FieldDetails: "Details must be less than 1000 characters",
				FieldDate:    "Date is required",
				FieldTitle:   "Title is required",
			},
			wantField: FieldTitle,
			wantMsg:   "Title is required",
		},
		{
			name: "date before details",
			errs: FieldErrors{
				FieldDetails: "Details must be less than 1000 characters",
				FieldDate:    "Invalid date format",
			},
			wantField: FieldDate,
			wantMsg:   "Invalid date format",
		},
		{
			name: "details before photo",
			errs: FieldErrors{
				FieldPhoto:   "Invalid photo URI",
				FieldDetails: "Details must be less than 1000 characters",
			},
			wantField: FieldDetails,
			wantMsg:   "Details must be less than 1000 characters",
		},
		{
			name:      "photo alone",
			errs:      FieldErrors{FieldPhoto: "Invalid photo URI"},
			wantField: FieldPhoto,
			wantMsg:   "Invalid photo URI",
		},
		{
			name: "no errors",
			errs: FieldErrors{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.errs.First(); got != tt.wantMsg {
				t.Errorf("First() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.errs.FirstField(); got != tt.wantField {
				t.Errorf("FirstField() = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestValidate_OneMessagePerField(t *testing.T) {
	c := validCrime()
	c.Title = "<>"
	c.Date = "not a date"
	c.Details = strings.Repeat("x", 2000)
	c.Photo = strPtr("gopher://hole")

	errs := Validate(c, testNow)
	if len(errs) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(errs), errs)
	}
	if errs.First() != "Title must be at least 3 characters long" {
		t.Errorf("First() = %q", errs.First())
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"title trims", SanitizeTitle, "  Arson  ", "Arson"},
		{"title collapses whitespace", SanitizeTitle, "Arson \t in\n the   park", "Arson in the park"},
		{"title strips zero width", SanitizeTitle, "Ar\u200bson\ufeff", "Arson"},
		{"details trims", SanitizeDetails, "\n  fire alarm  \n", "fire alarm"},
		{"details keeps line breaks", SanitizeDetails, "line one\nline two", "line one\nline two"},
		{"details strips zero width", SanitizeDetails, "a\u200cb\u200dc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsWellFormed(t *testing.T) {
	if !IsWellFormed(validCrime()) {
		t.Error("expected valid crime to be well formed")
	}

	c := validCrime()
	c.ID = ""
	if IsWellFormed(c) {
		t.Error("expected crime without id to be malformed")
	}

	placeholder := New(testNow)
	if IsWellFormed(placeholder) {
		t.Error("expected placeholder crime to be malformed until it has an id and title")
	}
	if placeholder.Date != "2024-06-01T12:00:00.000Z" || placeholder.Solved || placeholder.Photo != nil {
		t.Errorf("unexpected placeholder: %+v", placeholder)
	}
}

func TestParseTime(t *testing.T) {
	valid := []string{
		"2024-05-30T09:15:00.000Z",
		"2024-05-30T09:15:00Z",
		"2024-05-30T09:15:00.123456+05:30",
		"2024-05-30T09:15:00",
		"2024-05-30T09:15",
		"2024-05-30",
	}
	for _, s := range valid {
		if _, err := ParseTime(s); err != nil {
			t.Errorf("ParseTime(%q) unexpected error: %v", s, err)
		}
	}

	invalid := []string{"", "30/05/2024", "2024-13-01", "2024-02-30"}
	for _, s := range invalid {
		if _, err := ParseTime(s); err == nil {
			t.Errorf("ParseTime(%q) expected error", s)
		}
	}
}

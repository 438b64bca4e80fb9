package crime

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Title and details limits
const (
	MinTitleLength   = 3
	MaxTitleLength   = 100
	MaxDetailsLength = 1000
)

// Field names a validated record field.
type Field string

const (
	FieldTitle   Field = "title"
	FieldDate    Field = "date"
	FieldDetails Field = "details"
	FieldPhoto   Field = "photo"
)

// fieldPriority is the order in which a single message is surfaced.
var fieldPriority = []Field{FieldTitle, FieldDate, FieldDetails, FieldPhoto}

// PhotoSchemes lists the accepted photo URI prefixes.
var PhotoSchemes = []string{
	"file://",
	"http://",
	"https://",
	"content://",
	"data:image/",
}

// Title format: letters, digits, whitespace and -_.,!?'"
var titleFormatRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-_.,!?'"]+$`)

var zeroWidthReplacer = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// minDate is the earliest accepted record date.
var minDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// FieldErrors maps each failing field to its single message.
type FieldErrors map[Field]string

// First returns the highest-priority message, or "" when there are none.
func (fe FieldErrors) First() string {
	for _, field := range fieldPriority {
		if msg, ok := fe[field]; ok {
			return msg
		}
	}
	return ""
}

// FirstField returns the field whose message First reports.
func (fe FieldErrors) FirstField() Field {
	for _, field := range fieldPriority {
		if _, ok := fe[field]; ok {
			return field
		}
	}
	return ""
}

// Validate checks c against the record rules as of now. It returns nil when
// c may be saved.
func Validate(c Crime, now time.Time) FieldErrors {
	errs := FieldErrors{}

	if msg := validateTitle(c.Title); msg != "" {
		errs[FieldTitle] = msg
	}
	if utf8.RuneCountInString(c.Details) > MaxDetailsLength {
		errs[FieldDetails] = "Details must be less than 1000 characters"
	}
	if msg := validateDate(c.Date, now); msg != "" {
		errs[FieldDate] = msg
	}
	if c.Photo != nil && *c.Photo != "" && !IsValidPhotoURI(*c.Photo) {
		errs[FieldPhoto] = "Invalid photo URI"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateTitle(title string) string {
	title = strings.TrimSpace(title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		return "Title is required"
	case n < MinTitleLength:
		return "Title must be at least 3 characters long"
	case n > MaxTitleLength:
		return "Title must be less than 100 characters"
	}
	if !titleFormatRegex.MatchString(title) {
		return "Title contains invalid characters"
	}
	return ""
}

func validateDate(value string, now time.Time) string {
	if strings.TrimSpace(value) == "" {
		return "Date is required"
	}
	date, err := ParseTime(value)
	if err != nil {
		return "Invalid date format"
	}
	if date.After(now) {
		return "Date cannot be in the future"
	}
	if date.Before(minDate) {
		return "Date cannot be before 1900"
	}
	return ""
}

// IsValidPhotoURI reports whether uri starts with an accepted scheme.
func IsValidPhotoURI(uri string) bool {
	for _, scheme := range PhotoSchemes {
		if strings.HasPrefix(uri, scheme) {
			return true
		}
	}
	return false
}

// SanitizeTitle trims, collapses whitespace runs and strips zero-width
// characters.
func SanitizeTitle(s string) string {
	s = zeroWidthReplacer.Replace(s)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// SanitizeDetails trims and strips zero-width characters; inner line breaks
// are kept.
func SanitizeDetails(s string) string {
	return strings.TrimSpace(zeroWidthReplacer.Replace(s))
}

package format

import (
	"fmt"
	"strings"
	"time"
)

const (
	DisplayLayout = "2006-01-02 15:04:05"
	InputLayout   = "2006-01-02T15:04:05"
	isoLayout     = "2006-01-02T15:04:05.000Z"
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

var inputLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a log timestamp. Values without a zone are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders a log timestamp in loc. Unparseable values are
// returned as they are.
func FormatTimestamp(s string, loc *time.Location) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return s
	}
	return t.In(loc).Format(DisplayLayout)
}

// ParseLocalInput parses a filter date typed by the user in loc.
func ParseLocalInput(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DDTHH:MM[:SS]", s)
}

// ISO renders t as an ISO-8601 UTC timestamp with milliseconds.
func ISO(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// InputValue renders t the way the date filter inputs expect it.
func InputValue(t time.Time) string {
	return t.Format(InputLayout)
}

// DayLabel names a calendar day, e.g. "Mon Oct 19 2026".
func DayLabel(t time.Time) string {
	return t.Format("Mon Jan 02 2006")
}

package format

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

// Placeholder is shown for missing scalar values.
const Placeholder = "—"

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeHTML replaces &, <, > and " with their entities.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// EscapeMarkup keeps log content from being read as tview colour or region tags.
func EscapeMarkup(s string) string {
	return tview.Escape(s)
}

// Truncate shortens s to max display cells and appends an ellipsis when
// anything was cut.
func Truncate(s string, max int) string {
	if s == "" || runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "") + "…"
}

// ShortID returns the first eight characters of a request id.
func ShortID(id string) string {
	if id == "" {
		return ""
	}
	r := []rune(id)
	if len(r) <= 8 {
		return id
	}
	return string(r[:8]) + "…"
}

// OrDash returns s, or the placeholder when s is empty.
func OrDash(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Duration renders an optional millisecond duration as "N ms".
func Duration(ms *int64) string {
	if ms == nil {
		return Placeholder
	}
	return itoa(*ms) + " ms"
}

// Millis renders an optional millisecond duration as a bare number.
func Millis(ms *int64) string {
	if ms == nil {
		return Placeholder
	}
	return itoa(*ms)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

package format

import (
	"time"

	"apilog-cli/internal/model"
)

// MarkDayBoundaries flags the first entry of every calendar day (in loc)
// after the first day seen. Entries must be sorted by timestamp, newest
// first; entries without a parseable timestamp are skipped.
func MarkDayBoundaries(entries []model.LogEntry, loc *time.Location) []model.LogEntry {
	var prev string
	for i := range entries {
		entries[i].NewDay = false
		entries[i].DayLabel = ""

		t, ok := ParseTimestamp(entries[i].Timestamp)
		if !ok {
			continue
		}
		day := DayLabel(t.In(loc))
		if prev != "" && day != prev {
			entries[i].NewDay = true
			entries[i].DayLabel = day
		}
		prev = day
	}
	return entries
}

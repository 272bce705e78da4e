package viewmodel

import (
	"strings"
	"time"

	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
)

type ColumnKey string

const (
	ColTimestamp ColumnKey = "ts"
	ColMethod    ColumnKey = "method"
	ColEndpoint  ColumnKey = "endpoint"
	ColStatus    ColumnKey = "status"
	ColDuration  ColumnKey = "duration_ms"
	ColUser      ColumnKey = "user_name"
	ColIP        ColumnKey = "client_ip"
	ColRequestID ColumnKey = "request_id"
	ColDB        ColumnKey = "db"
)

// Column describes one grid column. Width is in terminal cells; columns
// with a non-zero Expansion share the remaining space.
type Column struct {
	Key        ColumnKey
	Header     string
	Width      int
	Expansion  int
	Sortable   bool
	Filterable bool
	Center     bool

	text func(e model.LogEntry, loc *time.Location) string
	less func(a, b model.LogEntry) bool
}

// Text renders the cell value of e.
func (c Column) Text(e model.LogEntry, loc *time.Location) string {
	return c.text(e, loc)
}

// DBButton is the label of the DB-logs cell.
const DBButton = "DB"

// HasDBButton reports whether the DB-logs cell of e carries a button.
func HasDBButton(e model.LogEntry) bool {
	return e.HasDBLogs && e.RequestID != ""
}

// Columns is the fixed grid schema, in display order.
var Columns = []Column{
	{
		Key: ColTimestamp, Header: "Timestamp", Width: 19, Sortable: true,
		text: func(e model.LogEntry, loc *time.Location) string {
			if e.Timestamp == "" {
				return ""
			}
			return format.FormatTimestamp(e.Timestamp, loc)
		},
		less: func(a, b model.LogEntry) bool {
			ta, _ := format.ParseTimestamp(a.Timestamp)
			tb, _ := format.ParseTimestamp(b.Timestamp)
			return ta.Before(tb)
		},
	},
	{
		Key: ColMethod, Header: "Method", Width: 7, Sortable: true, Filterable: true, Center: true,
		text: func(e model.LogEntry, _ *time.Location) string { return e.Method },
		less: func(a, b model.LogEntry) bool { return a.Method < b.Method },
	},
	{
		Key: ColEndpoint, Header: "Endpoint", Expansion: 2, Sortable: true, Filterable: true,
		text: func(e model.LogEntry, _ *time.Location) string { return e.Endpoint },
		less: func(a, b model.LogEntry) bool { return a.Endpoint < b.Endpoint },
	},
	{
		Key: ColStatus, Header: "Status", Width: 6, Sortable: true, Filterable: true, Center: true,
		text: func(e model.LogEntry, _ *time.Location) string { return format.StatusText(e.Status) },
		less: func(a, b model.LogEntry) bool { return intLess(a.Status, b.Status) },
	},
	{
		Key: ColDuration, Header: "Duration (ms)", Width: 13, Sortable: true,
		text: func(e model.LogEntry, _ *time.Location) string {
			if e.DurationMs == nil {
				return ""
			}
			return format.Millis(e.DurationMs)
		},
		less: func(a, b model.LogEntry) bool { return int64Less(a.DurationMs, b.DurationMs) },
	},
	{
		Key: ColUser, Header: "User", Width: 14, Sortable: true, Filterable: true,
		text: func(e model.LogEntry, _ *time.Location) string { return e.UserName },
		less: func(a, b model.LogEntry) bool { return a.UserName < b.UserName },
	},
	{
		Key: ColIP, Header: "IP", Width: 15, Sortable: true,
		text: func(e model.LogEntry, _ *time.Location) string { return e.ClientIP },
		less: func(a, b model.LogEntry) bool { return a.ClientIP < b.ClientIP },
	},
	{
		Key: ColRequestID, Header: "Request ID", Width: 10,
		text: func(e model.LogEntry, _ *time.Location) string { return format.ShortID(e.RequestID) },
	},
	{
		Key: ColDB, Header: "", Width: 4, Center: true,
		text: func(e model.LogEntry, _ *time.Location) string {
			if HasDBButton(e) {
				return DBButton
			}
			return ""
		},
	},
}

// ColumnIndex returns the position of key in Columns, or -1.
func ColumnIndex(key ColumnKey) int {
	for i, c := range Columns {
		if c.Key == key {
			return i
		}
	}
	return -1
}

// Matches reports whether any filterable column of e contains needle,
// ignoring case. An empty needle matches everything.
func Matches(e model.LogEntry, needle string, loc *time.Location) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, c := range Columns {
		if c.Filterable && strings.Contains(strings.ToLower(c.Text(e, loc)), needle) {
			return true
		}
	}
	return false
}

// OpenRequest says how a click on a grid row opens the drawer.
type OpenRequest struct {
	Entry      model.LogEntry
	ScrollToDB bool
}

// Dispatch maps a click on column key of e to a drawer request. Only the DB
// button scrolls the drawer to the nested logs.
func Dispatch(key ColumnKey, e model.LogEntry) OpenRequest {
	return OpenRequest{Entry: e, ScrollToDB: key == ColDB && HasDBButton(e)}
}

func intLess(a, b *int) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

func int64Less(a, b *int64) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

package viewmodel

import (
	"sort"
	"time"

	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
)

// Row is one displayed grid row.
type Row struct {
	Entry model.LogEntry
	// Separator is set when a day separator is drawn above the row.
	Separator bool
}

// Grid holds the loaded page and the client-side view over it: display
// filter and sort. Neither triggers a refetch.
type Grid struct {
	Loc           *time.Location
	DaySeparators bool

	entries  []model.LogEntry
	sortKey  ColumnKey
	sortDesc bool
	filter   string
}

func NewGrid(loc *time.Location, daySeparators bool) *Grid {
	if loc == nil {
		loc = time.Local
	}
	return &Grid{Loc: loc, DaySeparators: daySeparators}
}

// SetEntries replaces the page. Entries are expected newest first; day
// boundaries are recomputed for this page only.
func (g *Grid) SetEntries(entries []model.LogEntry) {
	g.entries = format.MarkDayBoundaries(entries, g.Loc)
}

func (g *Grid) Entries() []model.LogEntry {
	return g.entries
}

func (g *Grid) SetFilter(text string) {
	g.filter = text
}

func (g *Grid) Filter() string {
	return g.filter
}

// Rows returns the filtered and sorted view of the page.
func (g *Grid) Rows() []Row {
	rows := make([]Row, 0, len(g.entries))
	for _, e := range g.entries {
		if Matches(e, g.filter, g.Loc) {
			rows = append(rows, Row{Entry: e})
		}
	}

	if g.sortKey != "" {
		col := Columns[ColumnIndex(g.sortKey)]
		sort.SliceStable(rows, func(i, j int) bool {
			if g.sortDesc {
				return col.less(rows[j].Entry, rows[i].Entry)
			}
			return col.less(rows[i].Entry, rows[j].Entry)
		})
		return rows
	}

	if g.DaySeparators {
		// Boundaries between visible rows; a hidden row may have started the day.
		visible := make([]model.LogEntry, len(rows))
		for i := range rows {
			visible[i] = rows[i].Entry
		}
		format.MarkDayBoundaries(visible, g.Loc)
		for i := range rows {
			rows[i].Entry = visible[i]
			rows[i].Separator = visible[i].NewDay
		}
	}
	return rows
}

// CycleSort moves the sort to the next sortable column, wrapping back to
// the fetched order after the last one.
func (g *Grid) CycleSort() {
	start := 0
	if g.sortKey != "" {
		start = ColumnIndex(g.sortKey) + 1
	}
	for i := start; i < len(Columns); i++ {
		if Columns[i].Sortable {
			g.sortKey = Columns[i].Key
			return
		}
	}
	g.sortKey = ""
	g.sortDesc = false
}

func (g *Grid) FlipSort() {
	if g.sortKey != "" {
		g.sortDesc = !g.sortDesc
	}
}

func (g *Grid) Sort() (ColumnKey, bool) {
	return g.sortKey, g.sortDesc
}

// SortLabel describes the active sort for the status bar.
func (g *Grid) SortLabel() string {
	if g.sortKey == "" {
		return "fetched order"
	}
	dir := "asc"
	if g.sortDesc {
		dir = "desc"
	}
	return Columns[ColumnIndex(g.sortKey)].Header + " " + dir
}

package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"apilog-cli/internal/client"
	"apilog-cli/internal/model"
	"apilog-cli/internal/viewmodel"
)

type fakeSource struct {
	mu      sync.Mutex
	logs    *model.ListResult
	logsErr error
	db      map[string][]model.DbLogEntry
	dbErr   error

	queries []client.Query
	dbCalls []string
	dbCtx   []context.Context
}

func (f *fakeSource) FetchLogs(_ context.Context, q client.Query) (*model.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.logsErr != nil {
		return nil, f.logsErr
	}
	res := &model.ListResult{Count: f.logs.Count}
	res.Items = append(res.Items, f.logs.Items...)
	return res, nil
}

func (f *fakeSource) FetchDBLogs(ctx context.Context, requestID string) ([]model.DbLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbCalls = append(f.dbCalls, requestID)
	f.dbCtx = append(f.dbCtx, ctx)
	if f.dbErr != nil {
		return nil, f.dbErr
	}
	return f.db[requestID], nil
}

type recordedCopy struct {
	texts []string
}

func (r *recordedCopy) write(s string) error {
	r.texts = append(r.texts, s)
	return nil
}

func intPtr(n int) *int { return &n }

func sampleLogs() *model.ListResult {
	return &model.ListResult{
		Items: []model.LogEntry{
			{Timestamp: "2026-10-19T09:00:00Z", Method: "GET", Endpoint: "/alpha", Status: intPtr(200), RequestID: "req-alpha-1", HasDBLogs: true},
			{Timestamp: "2026-10-19T08:00:00Z", Method: "POST", Endpoint: "/beta", Status: intPtr(500), RequestID: "req-beta-2"},
			{Timestamp: "2026-10-18T23:00:00Z", Method: "DELETE", Endpoint: "/gamma", Status: intPtr(404)},
		},
		Count: 3,
	}
}

func newTestApp(t *testing.T, src Source) (*App, *recordedCopy) {
	t.Helper()
	clip := &recordedCopy{}
	a := New(src, Options{
		Version:       "test",
		Base:          "http://logs.test/api/v1",
		Limit:         200,
		Location:      time.UTC,
		DaySeparators: true,
		Clipboard:     &Clipboard{write: clip.write},
		Now:           func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
	})
	a.spawn = func(f func()) { f() }
	a.queue = func(f func()) { f() }
	a.after = func(time.Duration, func()) {}
	return a, clip
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestSearchRendersPage(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)

	a.search()

	if len(src.queries) != 1 {
		t.Fatalf("want 1 query, got %d", len(src.queries))
	}
	q := src.queries[0]
	if q.Limit != 200 || q.Offset != 0 {
		t.Errorf("want limit 200 offset 0, got %d/%d", q.Limit, q.Offset)
	}
	if q.Filter.From != "2026-10-18T12:00:00.000Z" || q.Filter.To != "2026-10-19T12:00:00.000Z" {
		t.Errorf("want last 24h, got %q..%q", q.Filter.From, q.Filter.To)
	}
	if q.Filter.Endpoint != "" || q.Filter.Method != "" {
		t.Errorf("want empty filters, got %+v", q.Filter)
	}

	if len(a.rowEntries) != 3 {
		t.Fatalf("want 3 entry rows, got %d", len(a.rowEntries))
	}
	// header + 3 entries + 1 day separator
	if got := a.table.GetRowCount(); got != 5 {
		t.Errorf("want 5 table rows, got %d", got)
	}
	if sep := a.table.GetCell(3, 0); !strings.Contains(sep.Text, "Sun Oct 18 2026") || !sep.NotSelectable {
		t.Errorf("want day separator before the third entry, got %q", sep.Text)
	}
	if got := a.table.GetCell(1, viewmodel.ColumnIndex(viewmodel.ColDB)).Text; got != viewmodel.DBButton {
		t.Errorf("want DB button on first row, got %q", got)
	}
	if got := a.pager.GetText(false); !strings.Contains(got, "Showing 1–3") || !strings.Contains(got, "3 rows loaded") {
		t.Errorf("want range and count labels, got %q", got)
	}
}

func TestFailedFetchKeepsPreviousRows(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)
	a.search()

	src.logsErr = errors.New("boom")
	a.search()

	if len(a.rowEntries) != 3 {
		t.Errorf("want previous rows kept, got %d", len(a.rowEntries))
	}
	if !strings.Contains(a.statusBar.GetText(false), "Fetch failed") {
		t.Errorf("want failure message, got %q", a.statusBar.GetText(false))
	}
}

func TestStaleListResponseIsDropped(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)

	var pending []func()
	a.spawn = func(f func()) { pending = append(pending, f) }

	a.search()
	src.logs = &model.ListResult{Items: []model.LogEntry{{Method: "PUT", Endpoint: "/late"}}, Count: 1}
	a.filters.endpoint.SetText("/late")
	a.search()

	pending[1]()
	// First request answers last; it must not overwrite the newer page.
	src.logs = sampleLogs()
	pending[0]()

	if len(a.rowEntries) != 1 {
		t.Fatalf("want the newer page, got %d rows", len(a.rowEntries))
	}
	for _, e := range a.rowEntries {
		if e.Endpoint != "/late" {
			t.Errorf("want /late, got %q", e.Endpoint)
		}
	}
}

func TestPagination(t *testing.T) {
	src := &fakeSource{logs: &model.ListResult{Items: sampleLogs().Items[:2], Count: 2}}
	a, _ := newTestApp(t, src)
	a.filters.limit.SetText("2")

	a.search()
	if !a.page.CanNext() || a.page.CanPrev() {
		t.Fatalf("want next enabled and prev disabled, got next=%v prev=%v", a.page.CanNext(), a.page.CanPrev())
	}

	a.focusGrid()
	a.keys.Dispatch(runeKey('n'))
	if got := src.queries[len(src.queries)-1]; got.Offset != 2 || got.Limit != 2 {
		t.Errorf("want offset 2 limit 2, got %d/%d", got.Offset, got.Limit)
	}

	src.logs = &model.ListResult{Items: sampleLogs().Items[:1], Count: 1}
	a.nextPage()
	if a.page.Offset != 4 || a.page.CanNext() {
		t.Errorf("want offset 4 and next disabled, got %d next=%v", a.page.Offset, a.page.CanNext())
	}

	calls := len(src.queries)
	a.nextPage()
	if len(src.queries) != calls {
		t.Error("want next page ignored when disabled")
	}

	a.prevPage()
	if got := src.queries[len(src.queries)-1].Offset; got != 2 {
		t.Errorf("want offset 2 after prev, got %d", got)
	}
	a.search()
	if a.page.Offset != 0 {
		t.Errorf("want offset reset by search, got %d", a.page.Offset)
	}
}

func TestInvalidDateAbortsFetch(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)
	a.filters.from.SetText("yesterday-ish")

	a.search()

	if len(src.queries) != 0 {
		t.Errorf("want no request, got %d", len(src.queries))
	}
	if !strings.Contains(a.statusBar.GetText(false), "invalid date") {
		t.Errorf("want date error in status bar, got %q", a.statusBar.GetText(false))
	}
}

func TestDisplayFilter(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)
	a.search()

	a.display.SetText("bet")
	if len(a.rowEntries) != 1 {
		t.Fatalf("want 1 matching row, got %d", len(a.rowEntries))
	}
	if got := a.table.GetCell(1, viewmodel.ColumnIndex(viewmodel.ColEndpoint)).Text; got != "/[yellow]bet[-]a" {
		t.Errorf("want highlighted match, got %q", got)
	}
	if len(src.queries) != 1 {
		t.Error("want display filter not to refetch")
	}

	a.keys.Dispatch(key(tcell.KeyF4))
	if len(a.rowEntries) != 3 {
		t.Errorf("want all rows after clearing, got %d", len(a.rowEntries))
	}
}

func TestOpenDrawerLoadsDBLogs(t *testing.T) {
	src := &fakeSource{
		logs: sampleLogs(),
		db: map[string][]model.DbLogEntry{
			"req-alpha-1": {
				{FunctionName: "gw_fct_getinfo", SQLText: "SELECT 1", ResponseJSON: model.Body(`{"a":1}`)},
				{FunctionName: "gw_fct_setinfo", Error: "permission denied"},
			},
		},
	}
	a, _ := newTestApp(t, src)
	a.search()

	a.focusGrid()
	a.table.Select(1, 0)
	a.keys.Dispatch(runeKey('d'))

	if a.drawer == nil || !a.pages.HasPage(drawerPage) {
		t.Fatal("want drawer open")
	}
	if !a.drawer.view.ScrollToDB {
		t.Error("want drawer scrolled to DB logs")
	}
	if a.app.GetFocus() != a.drawer.dbTable {
		t.Error("want DB table focused")
	}
	if len(src.dbCalls) != 1 || src.dbCalls[0] != "req-alpha-1" {
		t.Fatalf("want one DB fetch for req-alpha-1, got %v", src.dbCalls)
	}

	tbl := a.drawer.dbTable
	if got := tbl.GetRowCount(); got != 3 {
		t.Fatalf("want header + 2 rows, got %d", got)
	}
	if c := tbl.GetCell(1, 2); c.Text != viewLabel || c.NotSelectable {
		t.Errorf("want enabled SQL view action, got %q selectable=%v", c.Text, !c.NotSelectable)
	}
	if c := tbl.GetCell(2, 2); !c.NotSelectable {
		t.Error("want SQL action disabled without SQL text")
	}
	if c := tbl.GetCell(2, 5); !c.NotSelectable {
		t.Error("want JSON action disabled without response")
	}
	if row, col := tbl.GetSelection(); row != 1 || col != 2 {
		t.Errorf("want first action selected, got %d,%d", row, col)
	}
}

func TestOpenDrawerWithoutRequestIDSkipsDBFetch(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)
	a.search()

	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[2]})

	if len(src.dbCalls) != 0 {
		t.Errorf("want no DB fetch, got %v", src.dbCalls)
	}
	if got := a.drawer.dbTable.GetCell(0, 0).Text; got != viewmodel.DBNoIDText {
		t.Errorf("want no-id message, got %q", got)
	}
}

func TestDBFetchFailureShowsEmptyState(t *testing.T) {
	src := &fakeSource{logs: sampleLogs(), dbErr: errors.New("down")}
	a, _ := newTestApp(t, src)

	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[0]})

	if got := a.drawer.dbTable.GetCell(0, 0).Text; got != viewmodel.DBEmptyText {
		t.Errorf("want empty message, got %q", got)
	}
}

func TestStaleDBLogsAreDropped(t *testing.T) {
	src := &fakeSource{
		logs: sampleLogs(),
		db: map[string][]model.DbLogEntry{
			"req-alpha-1": {{FunctionName: "from_alpha", SQLText: "SELECT 'a'"}},
		},
	}
	a, _ := newTestApp(t, src)

	var pending []func()
	a.spawn = func(f func()) { pending = append(pending, f) }

	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[0]})
	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[1]})

	pending[0]()

	if got := a.drawer.dbTable.GetCell(0, 0).Text; got != viewmodel.DBLoadingText {
		t.Errorf("want newer drawer still loading, got %q", got)
	}
	if err := src.dbCtx[0].Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("want first DB request cancelled, got %v", err)
	}

	pending[1]()
	if got := a.drawer.dbTable.GetCell(0, 0).Text; got != viewmodel.DBEmptyText {
		t.Errorf("want empty state for req-beta-2, got %q", got)
	}
}

func TestCloseDrawerCancelsDBFetch(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)

	var pending []func()
	a.spawn = func(f func()) { pending = append(pending, f) }
	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[0]})
	a.keys.Dispatch(key(tcell.KeyEscape))

	if a.drawer != nil || a.pages.HasPage(drawerPage) {
		t.Fatal("want drawer closed")
	}
	pending[0]()
	if err := src.dbCtx[0].Err(); !errors.Is(err, context.Canceled) {
		t.Errorf("want DB request cancelled, got %v", err)
	}
	if a.keys.Len() != 1 {
		t.Errorf("want only the base key handler left, got %d", a.keys.Len())
	}
}

func TestPopupEscapeKeepsDrawerOpen(t *testing.T) {
	src := &fakeSource{
		logs: sampleLogs(),
		db:   map[string][]model.DbLogEntry{"req-alpha-1": {{SQLText: "SELECT <1>"}}},
	}
	a, _ := newTestApp(t, src)
	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[0], ScrollToDB: true})

	a.runDBCell(1, 2)
	if a.popup == nil || !a.pages.HasPage(popupPage) {
		t.Fatal("want popup open")
	}
	if got := a.popup.body.GetText(false); got != "SELECT <1>" {
		t.Errorf("want raw SQL in popup, got %q", got)
	}

	a.keys.Dispatch(key(tcell.KeyEscape))
	if a.popup != nil || a.pages.HasPage(popupPage) {
		t.Fatal("want popup closed")
	}
	if a.drawer == nil {
		t.Fatal("want drawer still open after closing the popup")
	}
	if a.app.GetFocus() != a.drawer.dbTable {
		t.Error("want focus back on the DB table")
	}

	a.keys.Dispatch(key(tcell.KeyEscape))
	if a.drawer != nil {
		t.Error("want second Escape to close the drawer")
	}
}

func TestPopupIsSingleInstance(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{logs: sampleLogs()})

	a.showPopup(viewmodel.PopupContent{Title: "SQL Query", Text: "one"})
	first := a.popup
	a.showPopup(viewmodel.PopupContent{Title: "Response JSON", Text: "two"})

	if a.popup == first {
		t.Fatal("want a new popup")
	}
	if a.popup.body.GetText(false) != "two" {
		t.Errorf("want second content, got %q", a.popup.body.GetText(false))
	}
	// base handler + one popup handler
	if a.keys.Len() != 2 {
		t.Errorf("want 2 key handlers, got %d", a.keys.Len())
	}
}

func TestPopupSwallowsDrawerKeys(t *testing.T) {
	a, clip := newTestApp(t, &fakeSource{logs: sampleLogs()})
	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[1]})
	a.showPopup(viewmodel.PopupContent{Title: "SQL Query", Text: "x"})

	a.keys.Dispatch(runeKey('c'))
	if len(clip.texts) != 0 {
		t.Errorf("want drawer copy shortcut blocked by popup, got %v", clip.texts)
	}
}

func TestCopyCurlFeedback(t *testing.T) {
	a, clip := newTestApp(t, &fakeSource{logs: sampleLogs()})
	var revert func()
	var delay time.Duration
	a.after = func(d time.Duration, f func()) { delay, revert = d, f }

	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[1]})
	a.keys.Dispatch(runeKey('c'))

	if len(clip.texts) != 1 || !strings.HasPrefix(clip.texts[0], "curl -X POST 'http://logs.test/api/v1/beta'") {
		t.Fatalf("want curl copied, got %v", clip.texts)
	}
	if got := a.drawer.curlBtn.GetLabel(); got != copiedLabel {
		t.Errorf("want %q, got %q", copiedLabel, got)
	}
	if delay != 1500*time.Millisecond {
		t.Errorf("want 1.5s revert, got %v", delay)
	}
	revert()
	if got := a.drawer.curlBtn.GetLabel(); got != curlLabel {
		t.Errorf("want label restored, got %q", got)
	}
}

func TestCopyDBJSONFeedback(t *testing.T) {
	src := &fakeSource{
		logs: sampleLogs(),
		db:   map[string][]model.DbLogEntry{"req-alpha-1": {{ResponseJSON: model.Body(`{"ok":true}`)}}},
	}
	a, clip := newTestApp(t, src)
	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[0]})

	a.runDBCell(1, 5)
	if len(clip.texts) != 1 || clip.texts[0] != "{\n  \"ok\": true\n}" {
		t.Errorf("want pretty JSON copied, got %v", clip.texts)
	}
	if got := a.drawer.dbTable.GetCell(1, 5).Text; got != copiedLabel {
		t.Errorf("want copied label on the cell, got %q", got)
	}

	// disabled SQL copy does nothing
	a.runDBCell(1, 3)
	if len(clip.texts) != 1 {
		t.Errorf("want disabled action ignored, got %v", clip.texts)
	}
}

func TestDrawerSections(t *testing.T) {
	e := model.LogEntry{
		Method:          "POST",
		Endpoint:        "/x",
		QueryParams:     model.Fields{"q": "[red]"},
		ResponseHeaders: model.Fields{"A": "b"},
	}
	a, _ := newTestApp(t, &fakeSource{logs: sampleLogs()})
	a.openDrawer(viewmodel.OpenRequest{Entry: e})

	text := a.drawer.details.GetText(false)
	if !strings.Contains(text, "▼ Query Params") || !strings.Contains(text, "▶ Response Headers") {
		t.Fatalf("want request expanded and response collapsed, got:\n%s", text)
	}
	if !strings.Contains(text, `"q": "[red[]"`) {
		t.Errorf("want log text escaped, got:\n%s", text)
	}
	if strings.Contains(text, `"A": "b"`) {
		t.Error("want collapsed section body hidden")
	}

	a.moveSection(-1)
	a.toggleSection()
	if !strings.Contains(a.drawer.details.GetText(false), `"A": "b"`) {
		t.Error("want response headers expanded after toggle")
	}
}

func TestHelpModal(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{logs: sampleLogs()})
	a.focusGrid()

	a.keys.Dispatch(key(tcell.KeyF1))
	if !a.pages.HasPage("help") {
		t.Fatal("want help shown")
	}
	a.keys.Dispatch(key(tcell.KeyEscape))
	if a.pages.HasPage("help") {
		t.Error("want help closed by Escape")
	}
	if a.keys.Len() != 1 {
		t.Errorf("want help key handler removed, got %d handlers", a.keys.Len())
	}
}

func TestSortKeys(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{logs: sampleLogs()})
	a.search()
	a.focusGrid()

	a.keys.Dispatch(runeKey('s'))
	if sortKey, _ := a.grid.Sort(); sortKey != viewmodel.ColTimestamp {
		t.Fatalf("want timestamp sort, got %q", sortKey)
	}
	if got := a.table.GetCell(0, 0).Text; got != "Timestamp ▲" {
		t.Errorf("want sort arrow in header, got %q", got)
	}
	// sorted views drop day separators
	if got := a.table.GetRowCount(); got != 4 {
		t.Errorf("want 4 rows without separators, got %d", got)
	}
	a.keys.Dispatch(runeKey('S'))
	if _, desc := a.grid.Sort(); !desc {
		t.Error("want direction flipped")
	}
}

func TestFilterBarQuery(t *testing.T) {
	src := &fakeSource{logs: sampleLogs()}
	a, _ := newTestApp(t, src)

	a.filters.method.SetCurrentOption(2)
	a.filters.status.SetText(" 500 ")
	a.filters.user.SetText("alice")
	a.filters.limit.SetText("abc")
	a.search()

	q := src.queries[0]
	if q.Filter.Method != "POST" || q.Filter.Status != "500" || q.Filter.User != "alice" {
		t.Errorf("want POST/500/alice, got %+v", q.Filter)
	}
	if q.Limit != viewmodel.DefaultLimit {
		t.Errorf("want invalid limit to fall back to %d, got %d", viewmodel.DefaultLimit, q.Limit)
	}

	a.filters.method.SetCurrentOption(0)
	if got := a.filters.Input().Method; got != "" {
		t.Errorf("want any method as empty filter, got %q", got)
	}
}

func TestCopyFailureKeepsLabel(t *testing.T) {
	a, _ := newTestApp(t, &fakeSource{logs: sampleLogs()})
	a.clip = &Clipboard{write: func(string) error { return errors.New("no clipboard") }}

	a.openDrawer(viewmodel.OpenRequest{Entry: sampleLogs().Items[1]})
	a.keys.Dispatch(runeKey('c'))

	if got := a.drawer.curlBtn.GetLabel(); got != curlLabel {
		t.Errorf("want label unchanged, got %q", got)
	}
	if !strings.Contains(a.statusBar.GetText(false), "Copy failed") {
		t.Errorf("want failure in status bar, got %q", a.statusBar.GetText(false))
	}
}

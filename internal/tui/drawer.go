package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	log "github.com/sirupsen/logrus"

	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
	"apilog-cli/internal/viewmodel"
)

const (
	drawerPage = "drawer"
	curlLabel  = "Copy cURL"
	viewLabel  = "view"
	copyLabel  = "copy"
)

type dbAction int

const (
	viewSQL dbAction = iota
	copySQL
	viewJSON
	copyJSON
)

// dbCell is stored as the reference of DB-log action cells.
type dbCell struct {
	row    int
	action dbAction
}

type drawer struct {
	session int
	view    viewmodel.DrawerView
	current int
	dbRows  []viewmodel.DBRow
	cancel  context.CancelFunc

	removeKeys func()

	panel   *tview.Flex
	details *tview.TextView
	curlBtn *tview.Button
	dbTable *tview.Table
	focus   []tview.Primitive
}

func sectionRegion(i int) string {
	return "sec-" + strconv.Itoa(i)
}

// openDrawer replaces any open drawer with one for req.Entry and starts
// loading its DB logs.
func (a *App) openDrawer(req viewmodel.OpenRequest) {
	a.closeDrawer()

	a.drawerSeq++
	d := &drawer{
		session: a.drawerSeq,
		view:    viewmodel.BuildDrawer(req.Entry, a.opts.Base, a.loc, req.ScrollToDB),
		current: -1,
	}

	d.details = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetScrollable(true).
		SetWrap(true)
	d.details.SetHighlightedFunc(func(added, _, _ []string) {
		if len(added) == 0 {
			return
		}
		if i, err := strconv.Atoi(strings.TrimPrefix(added[0], "sec-")); err == nil {
			d.current = i
		}
	})
	d.details.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyTab:
			a.moveSection(1)
		case tcell.KeyBacktab:
			a.moveSection(-1)
		case tcell.KeyEnter:
			a.toggleSection()
		case tcell.KeyRune:
			if ev.Rune() != ' ' {
				return ev
			}
			a.toggleSection()
		default:
			return ev
		}
		return nil
	})

	d.curlBtn = tview.NewButton(curlLabel).SetSelectedFunc(a.copyCurl)

	d.dbTable = tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0).
		SetSelectable(true, true).
		SetSelectedFunc(func(row, col int) {
			a.runDBCell(row, col)
		})

	hint := tview.NewTextView().SetDynamicColors(true).
		SetText("[gray]Tab section   Enter toggle   c copy cURL   F6 focus   Esc close[-]")
	top := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(hint, 0, 1, false).
		AddItem(d.curlBtn, len(curlLabel)+2, 0, false)

	dbTitle := tview.NewTextView().SetDynamicColors(true).SetText("[::b]DB Logs[::-]")

	d.panel = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 1, 0, false).
		AddItem(d.details, 0, 3, true).
		AddItem(dbTitle, 1, 0, false).
		AddItem(d.dbTable, 0, 2, false)
	d.panel.SetBorder(true).SetTitle(" Request " + tview.Escape(format.OrDash(format.ShortID(req.Entry.RequestID))) + " ")
	d.focus = []tview.Primitive{d.details, d.curlBtn, d.dbTable}

	layout := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 0, 2, false).
		AddItem(d.panel, 0, 3, true)
	layout.SetMouseCapture(outsideClick(d.panel, a.closeDrawer))

	a.drawer = d
	a.pages.AddPage(drawerPage, layout, true, true)
	d.removeKeys = a.keys.Push(a.drawerKeys, true)

	a.renderDetails()
	if d.view.FetchDB {
		a.setDBMessage(viewmodel.DBLoadingText)
		a.loadDBLogs(d)
	} else {
		a.setDBMessage(viewmodel.DBNoIDText)
	}

	if d.view.ScrollToDB {
		a.app.SetFocus(d.dbTable)
	} else {
		d.details.ScrollToBeginning()
		a.app.SetFocus(d.details)
	}
}

// closeDrawer removes the drawer, its key handler and any popup, and
// cancels its DB-log request.
func (a *App) closeDrawer() {
	d := a.drawer
	if d == nil {
		return
	}
	a.closePopup()
	if d.cancel != nil {
		d.cancel()
	}
	d.removeKeys()
	a.pages.RemovePage(drawerPage)
	a.drawer = nil
	a.focusGrid()
}

func (a *App) drawerKeys(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.closeDrawer()
		return nil
	case tcell.KeyF6:
		a.cycleDrawerFocus()
		return nil
	case tcell.KeyRune:
		if ev.Rune() == 'c' {
			a.copyCurl()
			return nil
		}
	}
	return ev
}

func (a *App) cycleDrawerFocus() {
	d := a.drawer
	focus := a.app.GetFocus()
	for i, p := range d.focus {
		if p == focus {
			a.app.SetFocus(d.focus[(i+1)%len(d.focus)])
			return
		}
	}
	a.app.SetFocus(d.details)
}

func (a *App) copyCurl() {
	d := a.drawer
	if d == nil {
		return
	}
	btn := d.curlBtn
	a.copyWithFeedback(d.view.Curl, func(s string) { btn.SetLabel(s) }, curlLabel)
}

func (a *App) moveSection(delta int) {
	d := a.drawer
	n := len(d.view.Sections)
	if n == 0 {
		return
	}
	next := d.current + delta
	switch {
	case d.current < 0 && delta < 0:
		next = n - 1
	case next < 0:
		next = n - 1
	case next >= n:
		next = 0
	}
	d.current = next
	d.details.Highlight(sectionRegion(next))
	d.details.ScrollToHighlight()
}

func (a *App) toggleSection() {
	d := a.drawer
	if d.current < 0 {
		return
	}
	d.view.Toggle(d.current)
	a.renderDetails()
}

func (a *App) renderDetails() {
	d := a.drawer
	e := d.view.Entry

	var b strings.Builder
	b.WriteString("[::b]Summary[::-]\n")
	for _, f := range d.view.Summary {
		value := tview.Escape(f.Value)
		switch f.Kind {
		case viewmodel.FieldMethod:
			if e.Method != "" {
				value = colorTag(format.MethodColor(e.Method)) + value + "[-]"
			}
		case viewmodel.FieldStatus:
			if bucket := format.StatusBucket(e.Status); bucket != format.BucketNone {
				value = colorTag(format.StatusColor(bucket)) + value + "[-]"
			}
		case viewmodel.FieldError:
			value = colorTag(errorColor) + value + "[-]"
		}
		fmt.Fprintf(&b, "[gray]%-11s[-] %s\n", f.Label, value)
	}

	for i, s := range d.view.Sections {
		arrow := "▼"
		if s.Collapsed {
			arrow = "▶"
		}
		fmt.Fprintf(&b, "\n[\"%s\"][::b]%s %s[::-][\"\"]\n", sectionRegion(i), arrow, s.Title)
		if !s.Collapsed {
			b.WriteString(tview.Escape(s.Body))
			b.WriteString("\n")
		}
	}

	d.details.SetText(b.String())
	if d.current >= 0 {
		d.details.Highlight(sectionRegion(d.current))
	}
}

func (a *App) loadDBLogs(d *drawer) {
	ctx, cancel := context.WithCancel(a.ctx)
	d.cancel = cancel
	session, requestID := d.session, d.view.Entry.RequestID

	a.spawn(func() {
		items, err := a.src.FetchDBLogs(ctx, requestID)
		a.queue(func() { a.applyDBLogs(session, requestID, items, err) })
	})
}

// applyDBLogs fills the DB table unless the drawer that asked for the
// logs has been closed or replaced since.
func (a *App) applyDBLogs(session int, requestID string, items []model.DbLogEntry, err error) {
	d := a.drawer
	if d == nil || d.session != session || d.view.Entry.RequestID != requestID {
		log.Debugf("[tui] dropping stale db logs for request %s", requestID)
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Errorf("[tui] fetch db logs for %s failed: %v", requestID, err)
		}
		items = nil
	}

	d.dbRows = viewmodel.BuildDBRows(items)
	if len(d.dbRows) == 0 {
		a.setDBMessage(viewmodel.DBEmptyText)
		return
	}
	a.renderDBTable()
}

func (a *App) setDBMessage(text string) {
	t := a.drawer.dbTable
	t.Clear()
	t.SetCell(0, 0, tview.NewTableCell(text).SetTextColor(disabledColor).SetSelectable(false))
}

func (a *App) renderDBTable() {
	d := a.drawer
	t := d.dbTable
	t.Clear()

	headers := []string{"Function", "Schema", "SQL", "", "JSON", "", "ms", "Status", "Error"}
	for i, h := range headers {
		t.SetCell(0, i, tview.NewTableCell(h).SetTextColor(headerColor).SetSelectable(false))
	}

	for i, r := range d.dbRows {
		row := i + 1
		plain := func(col int, text string) *tview.TableCell {
			cell := tview.NewTableCell(tview.Escape(text)).SetSelectable(false)
			t.SetCell(row, col, cell)
			return cell
		}
		plain(0, r.Function).SetMaxWidth(28)
		plain(1, r.Schema).SetMaxWidth(16)
		a.setActionCell(row, 2, viewLabel, r.HasSQL, dbCell{row: i, action: viewSQL})
		a.setActionCell(row, 3, copyLabel, r.HasSQL, dbCell{row: i, action: copySQL})
		a.setActionCell(row, 4, viewLabel, r.HasJSON, dbCell{row: i, action: viewJSON})
		a.setActionCell(row, 5, copyLabel, r.HasJSON, dbCell{row: i, action: copyJSON})
		plain(6, r.Millis).SetAlign(tview.AlignRight)
		status := plain(7, r.Status)
		if r.StatusOK {
			status.SetTextColor(okColor)
		} else {
			status.SetTextColor(errorColor)
		}
		plain(8, r.Error).SetExpansion(1)
	}

	t.ScrollToBeginning()
	if d.view.ScrollToDB {
		selectFirstAction(t)
	}
}

func selectFirstAction(t *tview.Table) {
	for row := 1; row < t.GetRowCount(); row++ {
		for col := 0; col < t.GetColumnCount(); col++ {
			if !t.GetCell(row, col).NotSelectable {
				t.Select(row, col)
				return
			}
		}
	}
}

func (a *App) setActionCell(row, col int, label string, enabled bool, ref dbCell) {
	t := a.drawer.dbTable
	cell := tview.NewTableCell(label).SetReference(ref)
	if !enabled {
		cell.SetTextColor(disabledColor).SetSelectable(false)
		t.SetCell(row, col, cell)
		return
	}
	cell.SetTextColor(tcell.NewHexColor(0x61AFFE)).SetAttributes(tcell.AttrUnderline)
	cell.SetClickedFunc(func() bool {
		a.queue(func() { a.runDBCell(row, col) })
		return false
	})
	t.SetCell(row, col, cell)
}

func (a *App) runDBCell(row, col int) {
	d := a.drawer
	if d == nil {
		return
	}
	cell := d.dbTable.GetCell(row, col)
	ref, ok := cell.GetReference().(dbCell)
	if !ok || cell.NotSelectable || ref.row >= len(d.dbRows) {
		return
	}
	r := d.dbRows[ref.row]
	setLabel := func(s string) { cell.SetText(s) }

	switch ref.action {
	case viewSQL:
		a.showPopup(viewmodel.SQLPopup(r))
	case copySQL:
		a.copyWithFeedback(r.SQL, setLabel, copyLabel)
	case viewJSON:
		a.showPopup(viewmodel.JSONPopup(r))
	case copyJSON:
		a.copyWithFeedback(r.JSON, setLabel, copyLabel)
	}
}

// outsideClick returns a mouse capture that swallows events outside inner
// and calls onClick for left clicks there.
func outsideClick(inner *tview.Flex, onClick func()) func(tview.MouseAction, *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
	return func(action tview.MouseAction, ev *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if ev == nil || inner.InRect(ev.Position()) {
			return action, ev
		}
		if action == tview.MouseLeftClick {
			onClick()
		}
		return action, nil
	}
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	log "github.com/sirupsen/logrus"

	"apilog-cli/internal/client"
	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
	"apilog-cli/internal/viewmodel"
)

const (
	mainPage    = "main"
	copiedLabel = "Copied!"
	copiedDelay = 1500 * time.Millisecond
)

// Source is the API the viewer reads from.
type Source interface {
	FetchLogs(ctx context.Context, q client.Query) (*model.ListResult, error)
	FetchDBLogs(ctx context.Context, requestID string) ([]model.DbLogEntry, error)
}

type Options struct {
	Version       string
	Base          string
	Limit         int
	Location      *time.Location
	DaySeparators bool
	Clipboard     *Clipboard
	Now           func() time.Time
	// Screen replaces the terminal, e.g. with a simulation screen.
	Screen tcell.Screen
}

type App struct {
	app   *tview.Application
	pages *tview.Pages
	keys  *keyStack
	src   Source
	opts  Options
	loc   *time.Location
	clip  *Clipboard
	ctx   context.Context

	page viewmodel.PageState
	grid *viewmodel.Grid
	gen  int

	layout    *tview.Flex
	statusBar *tview.TextView
	message   string
	filters   *filterBar
	display   *tview.InputField
	table     *tview.Table
	pager     *tview.TextView
	hotBar    *tview.TextView

	// table row -> entry; separator and header rows are absent
	rowEntries map[int]model.LogEntry

	drawer    *drawer
	drawerSeq int
	popup     *popup
	help      func()

	spawn func(func())
	queue func(func())
	after func(time.Duration, func())
}

func New(src Source, opts Options) *App {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Clipboard == nil {
		opts.Clipboard = NewClipboard(true)
	}

	a := &App{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		keys:       &keyStack{},
		src:        src,
		opts:       opts,
		loc:        opts.Location,
		clip:       opts.Clipboard,
		ctx:        context.Background(),
		page:       *viewmodel.NewPageState(opts.Limit),
		grid:       viewmodel.NewGrid(opts.Location, opts.DaySeparators),
		rowEntries: map[int]model.LogEntry{},
	}
	a.spawn = func(f func()) { go f() }
	// QueueUpdateDraw waits for the event loop, and click handlers run on
	// it, so updates are handed over from a separate goroutine.
	a.queue = func(f func()) { go a.app.QueueUpdateDraw(f) }
	a.after = func(d time.Duration, f func()) { time.AfterFunc(d, f) }

	if opts.Screen != nil {
		a.app.SetScreen(opts.Screen)
	}

	a.build()
	a.keys.Push(a.baseKeys, false)
	a.app.SetInputCapture(a.keys.Dispatch)
	return a
}

func (a *App) build() {
	a.statusBar = tview.NewTextView().SetDynamicColors(true)

	displayLabel := tview.NewTextView().SetText("Display Filter:")
	a.display = tview.NewInputField().
		SetPlaceholder("Filter loaded rows...").
		SetFieldWidth(40).
		SetChangedFunc(func(text string) {
			a.grid.SetFilter(text)
			a.renderGrid()
			a.renderStatus()
		}).
		SetDoneFunc(func(key tcell.Key) {
			switch key {
			case tcell.KeyEnter, tcell.KeyTab:
				a.focusGrid()
			}
		})

	findLine := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(displayLabel, 15, 0, false).
		AddItem(a.display, 40, 0, false)

	status := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(findLine, 1, 0, false)
	status.SetBorder(true).SetTitle(" Status ")

	a.filters = newFilterBar(viewmodel.DefaultFilterInput(a.opts.Now().In(a.loc)), a.page.Limit,
		a.search, a.focusGrid, func(p tview.Primitive) { a.app.SetFocus(p) })

	a.table = tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0).
		SetSelectable(true, false).
		SetSelectedFunc(func(row, _ int) {
			if e, ok := a.rowEntries[row]; ok {
				a.openDrawer(viewmodel.OpenRequest{Entry: e})
			}
		})
	a.table.SetSelectedStyle(tcell.StyleDefault.Background(tcell.NewHexColor(0x3A5F8A)).Foreground(tcell.ColorWhite))

	a.pager = tview.NewTextView().SetDynamicColors(true)

	a.hotBar = tview.NewTextView().SetDynamicColors(true)
	a.hotBar.SetText("Esc Quit   F1 Help   F2 Filters   F3 Find   F4 Clear Find   F5 Search   n/p Page   s/S Sort   Enter Open   d DB Logs")
	a.hotBar.SetBorder(true).SetTitle(" Hotkeys ")

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(status, 4, 0, false).
		AddItem(a.filters.root, 3, 0, false).
		AddItem(a.table, 0, 1, true).
		AddItem(a.pager, 1, 0, false).
		AddItem(a.hotBar, 3, 0, false)

	a.pages.AddPage(mainPage, a.layout, true, true)

	a.renderGrid()
	a.renderPager()
	a.renderStatus()
}

// Run starts the first search and blocks until the viewer is closed.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	a.queue(a.search)
	log.Infof("[tui] starting viewer for %s", a.opts.Base)
	return a.app.SetRoot(a.pages, true).EnableMouse(true).SetFocus(a.table).Run()
}

func (a *App) baseKeys(ev *tcell.EventKey) *tcell.EventKey {
	focus := a.app.GetFocus()
	inDisplay := focus == a.display
	inForm := inDisplay || a.filters.Contains(focus)

	switch ev.Key() {
	case tcell.KeyEscape:
		switch {
		case inDisplay:
			a.display.SetText("")
			a.focusGrid()
		case inForm:
			a.focusGrid()
		case focus != a.table:
			// an open drop-down list closes itself
			return ev
		default:
			a.app.Stop()
		}
		return nil
	case tcell.KeyF1:
		a.showHelp()
		return nil
	case tcell.KeyF2:
		a.app.SetFocus(a.filters.from)
		return nil
	case tcell.KeyF3:
		a.app.SetFocus(a.display)
		return nil
	case tcell.KeyF4:
		a.display.SetText("")
		return nil
	case tcell.KeyF5:
		a.search()
		return nil
	case tcell.KeyRune:
		if focus != a.table {
			return ev
		}
		switch ev.Rune() {
		case 'n':
			a.nextPage()
		case 'p':
			a.prevPage()
		case 's':
			a.grid.CycleSort()
			a.renderGrid()
			a.renderStatus()
		case 'S':
			a.grid.FlipSort()
			a.renderGrid()
			a.renderStatus()
		case 'd':
			a.openSelected(viewmodel.ColDB)
		default:
			return ev
		}
		return nil
	}
	return ev
}

func (a *App) focusGrid() {
	a.app.SetFocus(a.table)
}

// search starts over from the first page with the current filters.
func (a *App) search() {
	p := a.page
	p.Reset()
	a.fetchPage(p)
	a.focusGrid()
}

func (a *App) nextPage() {
	if !a.page.CanNext() {
		return
	}
	p := a.page
	p.Next()
	a.fetchPage(p)
}

func (a *App) prevPage() {
	if !a.page.CanPrev() {
		return
	}
	p := a.page
	p.Prev()
	a.fetchPage(p)
}

// fetchPage requests page p. The page state is only committed when the
// response arrives and is still the latest request.
func (a *App) fetchPage(p viewmodel.PageState) {
	f, err := a.filters.Input().Filter(a.loc)
	if err != nil {
		log.Warnf("[tui] invalid filter: %v", err)
		a.setMessage("[red]" + tview.Escape(err.Error()) + "[-]")
		return
	}
	p.SetLimit(viewmodel.ParseLimit(a.filters.Limit()))

	a.gen++
	gen := a.gen
	q := client.Query{Filter: f, Limit: p.Limit, Offset: p.Offset}
	a.setMessage("Loading...")

	ctx := a.ctx
	a.spawn(func() {
		res, err := a.src.FetchLogs(ctx, q)
		a.queue(func() { a.applyLogs(gen, p, res, err) })
	})
}

func (a *App) applyLogs(gen int, p viewmodel.PageState, res *model.ListResult, err error) {
	if gen != a.gen {
		log.Debugf("[tui] dropping stale page response (gen %d, current %d)", gen, a.gen)
		return
	}
	if err != nil {
		log.Errorf("[tui] fetch logs failed: %v", err)
		a.setMessage("[red]Fetch failed, showing previous results[-]")
		return
	}

	p.Loaded(res.Count)
	a.page = p
	a.grid.SetEntries(res.Items)
	a.message = ""
	a.renderGrid()
	a.renderPager()
	a.renderStatus()
}

func (a *App) setMessage(msg string) {
	a.message = msg
	a.renderStatus()
}

func (a *App) renderStatus() {
	shown := len(a.grid.Rows())
	total := len(a.grid.Entries())

	rows := fmt.Sprintf("Logs: %d", total)
	if a.grid.Filter() != "" {
		rows = fmt.Sprintf("Mode: Filtered    Logs: %d/%d", shown, total)
	}
	a.statusBar.SetText(fmt.Sprintf("apilog-cli v.%s    [%s]    %s    Sort: %s    %s",
		a.opts.Version, tview.Escape(a.opts.Base), rows, a.grid.SortLabel(), a.message))
}

func (a *App) renderPager() {
	prev := "[gray]p Prev[-]"
	if a.page.CanPrev() {
		prev = "[white]p Prev[-]"
	}
	next := "[gray]n Next[-]"
	if a.page.CanNext() {
		next = "[white]n Next[-]"
	}
	a.pager.SetText(fmt.Sprintf(" %s   %s    %s    %s", prev, next, a.page.RangeLabel(), a.page.CountLabel()))
}

func (a *App) renderGrid() {
	a.table.Clear()
	a.rowEntries = map[int]model.LogEntry{}

	sortKey, desc := a.grid.Sort()
	for i, c := range viewmodel.Columns {
		header := c.Header
		if c.Key == sortKey {
			if desc {
				header += " ▼"
			} else {
				header += " ▲"
			}
		}
		a.table.SetCell(0, i, tview.NewTableCell(header).
			SetTextColor(headerColor).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(c.Expansion))
	}

	needle := a.grid.Filter()
	row := 1
	first := -1
	for i, r := range a.grid.Rows() {
		if r.Separator {
			a.setSeparatorRow(row, r.Entry.DayLabel)
			row++
		}
		a.setEntryRow(row, i, r.Entry, needle)
		a.rowEntries[row] = r.Entry
		if first < 0 {
			first = row
		}
		row++
	}

	if first > 0 {
		a.table.Select(first, 0)
	}
	a.table.ScrollToBeginning()
}

func (a *App) setSeparatorRow(row int, label string) {
	for i, c := range viewmodel.Columns {
		width := c.Width
		if width == 0 {
			width = 8
		}
		text := strings.Repeat("━", width)
		if i == 0 {
			text = "━━ " + label
		}
		a.table.SetCell(row, i, tview.NewTableCell(text).
			SetTextColor(separatorColor).
			SetSelectable(false).
			SetExpansion(c.Expansion))
	}
}

func (a *App) setEntryRow(row, index int, e model.LogEntry, needle string) {
	bucket := format.StatusBucket(e.Status)
	bg := rowBackground(bucket, index)

	for i, c := range viewmodel.Columns {
		text := c.Text(e, a.loc)
		if c.Filterable {
			text = highlight(text, needle)
		} else {
			text = tview.Escape(text)
		}

		cell := tview.NewTableCell(text).
			SetBackgroundColor(bg).
			SetTextColor(tcell.ColorWhite).
			SetExpansion(c.Expansion)
		if c.Width > 0 {
			cell.SetMaxWidth(c.Width)
		}
		if c.Center {
			cell.SetAlign(tview.AlignCenter)
		}

		switch c.Key {
		case viewmodel.ColMethod:
			cell.SetTextColor(format.MethodColor(e.Method))
		case viewmodel.ColStatus:
			if bucket != format.BucketNone {
				cell.SetTextColor(format.StatusColor(bucket))
			}
		case viewmodel.ColDB:
			if viewmodel.HasDBButton(e) {
				cell.SetTextColor(tcell.ColorBlack).SetBackgroundColor(tcell.NewHexColor(0x61AFFE))
			}
		}

		key, entry := c.Key, e
		// The table focuses itself after a click; open the drawer after that.
		cell.SetClickedFunc(func() bool {
			a.queue(func() { a.openDrawer(viewmodel.Dispatch(key, entry)) })
			return false
		})
		a.table.SetCell(row, i, cell)
	}
}

// openSelected opens the drawer for the selected row as if column key had
// been clicked.
func (a *App) openSelected(key viewmodel.ColumnKey) {
	row, _ := a.table.GetSelection()
	e, ok := a.rowEntries[row]
	if !ok {
		return
	}
	a.openDrawer(viewmodel.Dispatch(key, e))
}

func (a *App) showHelp() {
	if a.help != nil {
		return
	}
	text := "Hotkeys:\n\n" +
		"Esc: Quit / close panel\nF1: Help\nF2: Focus filters (Enter searches)\nF3: Focus display filter\nF4: Clear display filter\n" +
		"F5: Search from the first page\nn / p: Next / previous page\ns / S: Cycle sort column / flip direction\n" +
		"Enter, click: Open details\nd, click on DB: Open details at DB logs\n\n" +
		"Details: Tab moves between sections, Enter toggles, c copies cURL, F6 switches focus\n\n" +
		"API: " + a.opts.Base + "\nDisplay filter searches Method, Endpoint, Status, User"

	var removeKeys func()
	closeHelp := func() {
		removeKeys()
		a.pages.RemovePage("help")
		a.help = nil
		a.restoreFocus()
	}
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(int, string) { closeHelp() })

	removeKeys = a.keys.Push(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape {
			closeHelp()
			return nil
		}
		return ev
	}, true)
	a.help = closeHelp
	a.pages.AddPage("help", modal, true, true)
	a.app.SetFocus(modal)
}

// restoreFocus puts the focus back on the top-most open layer.
func (a *App) restoreFocus() {
	switch {
	case a.popup != nil:
		a.app.SetFocus(a.popup.body)
	case a.drawer != nil:
		a.app.SetFocus(a.drawer.details)
	default:
		a.focusGrid()
	}
}

func (a *App) copyWithFeedback(text string, setLabel func(string), original string) {
	if err := a.clip.Copy(text); err != nil {
		log.Errorf("[tui] copy to clipboard failed: %v", err)
		a.setMessage("[red]Copy failed[-]")
		return
	}
	setLabel(copiedLabel)
	a.after(copiedDelay, func() {
		a.queue(func() { setLabel(original) })
	})
}

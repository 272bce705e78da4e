package tui

import (
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"apilog-cli/internal/viewmodel"
)

const anyMethod = "any"

// filterBar holds the server-side filter inputs. Enter in any of them, or
// the Search button, starts a new search.
type filterBar struct {
	root *tview.Flex

	from     *tview.InputField
	to       *tview.InputField
	endpoint *tview.InputField
	method   *tview.DropDown
	status   *tview.InputField
	user     *tview.InputField
	limit    *tview.InputField
	search   *tview.Button

	items []tview.Primitive
}

func newFilterBar(initial viewmodel.FilterInput, limit int, onSearch func(), onLeave func(), setFocus func(tview.Primitive)) *filterBar {
	f := &filterBar{}

	input := func(label, text string, width int) *tview.InputField {
		return tview.NewInputField().
			SetLabel(label).
			SetText(text).
			SetFieldWidth(width)
	}
	f.from = input("From ", initial.From, 19)
	f.to = input(" To ", initial.To, 19)
	f.endpoint = input(" Endpoint ", initial.Endpoint, 0)
	f.status = input(" Status ", initial.Status, 5)
	f.user = input(" User ", initial.User, 12)
	f.limit = input(" Limit ", strconv.Itoa(limit), 5)

	options := make([]string, len(viewmodel.Methods))
	current := 0
	for i, m := range viewmodel.Methods {
		options[i] = m
		if m == "" {
			options[i] = anyMethod
		}
		if m == initial.Method {
			current = i
		}
	}
	f.method = tview.NewDropDown().
		SetLabel(" Method ").
		SetOptions(options, nil).
		SetCurrentOption(current)

	f.search = tview.NewButton("Search").SetSelectedFunc(onSearch)

	f.items = []tview.Primitive{f.from, f.to, f.endpoint, f.method, f.status, f.user, f.limit, f.search}

	move := func(from tview.Primitive, delta int) {
		for i, p := range f.items {
			if p == from {
				setFocus(f.items[(i+delta+len(f.items))%len(f.items)])
				return
			}
		}
	}
	done := func(p tview.Primitive) func(tcell.Key) {
		return func(key tcell.Key) {
			switch key {
			case tcell.KeyEnter:
				onSearch()
			case tcell.KeyTab:
				move(p, 1)
			case tcell.KeyBacktab:
				move(p, -1)
			case tcell.KeyEscape:
				onLeave()
			}
		}
	}
	for _, in := range []*tview.InputField{f.from, f.to, f.endpoint, f.status, f.user, f.limit} {
		in.SetDoneFunc(done(in))
	}
	f.method.SetDoneFunc(done(f.method))
	f.search.SetExitFunc(done(f.search))

	f.root = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(f.from, 24, 0, false).
		AddItem(f.to, 23, 0, false).
		AddItem(f.endpoint, 0, 1, false).
		AddItem(f.method, 16, 0, false).
		AddItem(f.status, 13, 0, false).
		AddItem(f.user, 18, 0, false).
		AddItem(f.limit, 12, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(f.search, 8, 0, false)
	f.root.SetBorder(true).SetTitle(" Filters ")
	return f
}

func (f *filterBar) Input() viewmodel.FilterInput {
	_, method := f.method.GetCurrentOption()
	if method == anyMethod {
		method = ""
	}
	return viewmodel.FilterInput{
		From:     f.from.GetText(),
		To:       f.to.GetText(),
		Endpoint: f.endpoint.GetText(),
		Method:   method,
		Status:   f.status.GetText(),
		User:     f.user.GetText(),
	}
}

func (f *filterBar) Limit() string {
	return f.limit.GetText()
}

// Contains reports whether p is one of the filter widgets.
func (f *filterBar) Contains(p tview.Primitive) bool {
	for _, item := range f.items {
		if item == p {
			return true
		}
	}
	return false
}

package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"apilog-cli/internal/viewmodel"
)

const (
	popupPage   = "popup"
	popupWidth  = 100
	popupHeight = 30
)

type popup struct {
	content    viewmodel.PopupContent
	removeKeys func()
	prevFocus  tview.Primitive

	body     *tview.TextView
	copyBtn  *tview.Button
	closeBtn *tview.Button
	focus    []tview.Primitive
}

// showPopup displays c in a modal. Only one popup exists at a time; an
// open one is closed first.
func (a *App) showPopup(c viewmodel.PopupContent) {
	a.closePopup()

	p := &popup{content: c, prevFocus: a.app.GetFocus()}
	// Plain text view: log content is never read as style tags here.
	p.body = tview.NewTextView().
		SetText(c.Text).
		SetScrollable(true).
		SetWrap(true)
	p.copyBtn = tview.NewButton("Copy")
	p.copyBtn.SetSelectedFunc(func() {
		btn := p.copyBtn
		a.copyWithFeedback(c.Text, func(s string) { btn.SetLabel(s) }, "Copy")
	})
	p.closeBtn = tview.NewButton("Close").SetSelectedFunc(a.closePopup)
	p.focus = []tview.Primitive{p.body, p.copyBtn, p.closeBtn}

	buttons := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(nil, 0, 1, false).
		AddItem(p.copyBtn, 9, 0, false).
		AddItem(nil, 1, 0, false).
		AddItem(p.closeBtn, 7, 0, false)

	frame := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(p.body, 0, 1, true).
		AddItem(buttons, 1, 0, false)
	frame.SetBorder(true).SetTitle(" " + tview.Escape(c.Title) + " ")

	layout := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(frame, popupHeight, 1, true).
			AddItem(nil, 0, 1, false), popupWidth, 1, true).
		AddItem(nil, 0, 1, false)
	layout.SetMouseCapture(outsideClick(frame, a.closePopup))

	a.popup = p
	a.pages.AddPage(popupPage, layout, true, true)
	p.removeKeys = a.keys.Push(a.popupKeys, true)
	a.app.SetFocus(p.body)
}

func (a *App) closePopup() {
	p := a.popup
	if p == nil {
		return
	}
	p.removeKeys()
	a.pages.RemovePage(popupPage)
	a.popup = nil
	if a.drawer != nil && p.prevFocus != nil {
		a.app.SetFocus(p.prevFocus)
		return
	}
	a.restoreFocus()
}

// popupKeys consumes Escape so the drawer below stays open.
func (a *App) popupKeys(ev *tcell.EventKey) *tcell.EventKey {
	p := a.popup
	if p == nil {
		return ev
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		a.closePopup()
		return nil
	case tcell.KeyTab, tcell.KeyBacktab:
		delta := 1
		if ev.Key() == tcell.KeyBacktab {
			delta = len(p.focus) - 1
		}
		focus := a.app.GetFocus()
		for i, f := range p.focus {
			if f == focus {
				a.app.SetFocus(p.focus[(i+delta)%len(p.focus)])
				return nil
			}
		}
		a.app.SetFocus(p.body)
		return nil
	}
	return ev
}

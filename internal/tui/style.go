package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/tview"

	"apilog-cli/internal/format"
)

var (
	headerColor    = tcell.ColorYellow
	separatorColor = tcell.NewHexColor(0x8A8A8A)
	disabledColor  = tcell.ColorGray
	okColor        = tcell.NewHexColor(0x4CAF50)
	errorColor     = tcell.NewHexColor(0xF44336)
)

const statusMix = 0.3

// rowBackground blends the status colour into the alternating base grey
// and keeps every channel within 25..90 so text stays readable.
func rowBackground(b format.Bucket, row int) tcell.Color {
	base := tcell.NewHexColor(0x1E1E1E)
	if row%2 == 1 {
		base = tcell.NewHexColor(0x2D2D2D)
	}
	if b == format.BucketNone {
		return base
	}

	mixed := toColorful(base).BlendRgb(toColorful(format.StatusColor(b)), statusMix)
	r, g, bl := mixed.RGB255()
	return tcell.NewRGBColor(clamp(int32(r)), clamp(int32(g)), clamp(int32(bl)))
}

func toColorful(c tcell.Color) colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func clamp(v int32) int32 {
	switch {
	case v < 25:
		return 25
	case v > 90:
		return 90
	default:
		return v
	}
}

func colorTag(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return "[-]"
	}
	return fmt.Sprintf("[#%06x]", c.Hex())
}

// highlight escapes text for a tview cell and marks every case-insensitive
// occurrence of needle.
func highlight(text, needle string) string {
	if needle == "" || text == "" {
		return tview.Escape(text)
	}
	lower := strings.ToLower(text)
	lowerNeedle := strings.ToLower(needle)
	if len(lower) != len(text) || len(lowerNeedle) != len(needle) {
		return tview.Escape(text)
	}

	var b strings.Builder
	last := 0
	for {
		idx := strings.Index(lower[last:], lowerNeedle)
		if idx == -1 {
			break
		}
		start := last + idx
		end := start + len(needle)
		b.WriteString(tview.Escape(text[last:start]))
		b.WriteString("[yellow]")
		b.WriteString(tview.Escape(text[start:end]))
		b.WriteString("[-]")
		last = end
	}
	b.WriteString(tview.Escape(text[last:]))
	return b.String()
}

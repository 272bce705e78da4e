package tui

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"apilog-cli/internal/format"
)

func TestRowBackground(t *testing.T) {
	if got := rowBackground(format.BucketNone, 0); got != tcell.NewHexColor(0x1E1E1E) {
		t.Errorf("want even base grey, got %06x", got.Hex())
	}
	if got := rowBackground(format.BucketNone, 1); got != tcell.NewHexColor(0x2D2D2D) {
		t.Errorf("want odd base grey, got %06x", got.Hex())
	}

	for _, b := range []format.Bucket{format.Bucket2xx, format.Bucket3xx, format.Bucket4xx, format.Bucket5xx} {
		for row := 0; row < 2; row++ {
			r, g, bl := rowBackground(b, row).RGB()
			for _, c := range []int32{r, g, bl} {
				if c < 25 || c > 90 {
					t.Errorf("bucket %s row %d: channel %d outside 25..90", b, row, c)
				}
			}
		}
	}

	if rowBackground(format.Bucket2xx, 0) == rowBackground(format.Bucket5xx, 0) {
		t.Error("want different tints for 2xx and 5xx")
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		text, needle, want string
	}{
		{"/users/42", "", "/users/42"},
		{"/Users/users", "users", "/[yellow]Users[-]/[yellow]users[-]"},
		{"[red]", "red", "[[yellow]red[-]]"},
		{"GET", "x", "GET"},
	}
	for _, tt := range tests {
		if got := highlight(tt.text, tt.needle); got != tt.want {
			t.Errorf("highlight(%q, %q): want %q, got %q", tt.text, tt.needle, tt.want, got)
		}
	}
}

func TestColorTag(t *testing.T) {
	if got := colorTag(tcell.NewHexColor(0xF44336)); got != "[#f44336]" {
		t.Errorf("want hex tag, got %q", got)
	}
	if got := colorTag(tcell.ColorDefault); got != "[-]" {
		t.Errorf("want reset tag, got %q", got)
	}
}

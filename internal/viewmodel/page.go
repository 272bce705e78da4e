package viewmodel

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultLimit = 200

// PageState is the offset/limit window over the list endpoint.
type PageState struct {
	Offset    int
	Limit     int
	LastCount int
}

func NewPageState(limit int) *PageState {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &PageState{Limit: limit}
}

// ParseLimit reads the page size typed by the user; anything that is not a
// positive integer yields DefaultLimit.
func ParseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return DefaultLimit
	}
	return n
}

func (p *PageState) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	p.Limit = limit
}

func (p *PageState) Next() {
	p.Offset += p.Limit
}

func (p *PageState) Prev() {
	p.Offset -= p.Limit
	if p.Offset < 0 {
		p.Offset = 0
	}
}

func (p *PageState) Reset() {
	p.Offset = 0
}

// Loaded records how many rows the last fetch returned.
func (p *PageState) Loaded(count int) {
	if count < 0 {
		count = 0
	}
	p.LastCount = count
}

// CanNext reports whether another page may exist. A full page is the only
// signal available, so an exact multiple of the limit yields one empty page.
func (p *PageState) CanNext() bool {
	return p.LastCount >= p.Limit
}

func (p *PageState) CanPrev() bool {
	return p.Offset > 0
}

func (p *PageState) RangeLabel() string {
	if p.LastCount <= 0 {
		return "No results"
	}
	return fmt.Sprintf("Showing %d–%d", p.Offset+1, p.Offset+p.LastCount)
}

func (p *PageState) CountLabel() string {
	if p.LastCount <= 0 {
		return ""
	}
	return fmt.Sprintf("%d rows loaded", p.LastCount)
}

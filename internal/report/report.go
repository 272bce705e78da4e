// Package report renders a loaded page of logs as a standalone HTML file.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
	"apilog-cli/internal/viewmodel"
)

//go:embed report.html.tmpl
var reportHTML string

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	// pre writes already escaped text into a <pre> block verbatim.
	"pre": func(s string) template.HTML { return template.HTML(format.EscapeHTML(s)) },
}).Parse(reportHTML))

type Options struct {
	Title     string
	Base      string
	Location  *time.Location
	Page      viewmodel.PageState
	Details   bool
	Generated time.Time
}

type cell struct {
	Text  string
	Class string
	Link  string
}

type row struct {
	Class    string
	DayLabel string
	Cells    []cell
}

type field struct {
	Label string
	Value string
	Error bool
}

type section struct {
	Title string
	Body  string
	Open  bool
}

type detail struct {
	Anchor   string
	Heading  string
	Summary  []field
	Sections []section
	Curl     string
}

type page struct {
	Title       string
	Base        string
	Generated   string
	RangeLabel  string
	Palette     []template.CSS
	Headers     []string
	ColumnCount int
	Rows        []row
	Details     []detail
}

// Write renders entries, newest first, as an HTML report.
func Write(w io.Writer, entries []model.LogEntry, opts Options) error {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Title == "" {
		opts.Title = "API logs"
	}
	if opts.Generated.IsZero() {
		opts.Generated = time.Now()
	}

	marked := format.MarkDayBoundaries(append([]model.LogEntry(nil), entries...), opts.Location)

	p := page{
		Title:       opts.Title,
		Base:        opts.Base,
		Generated:   opts.Generated.In(opts.Location).Format("2006-01-02 15:04:05 MST"),
		RangeLabel:  opts.Page.RangeLabel(),
		Palette:     palette(),
		ColumnCount: len(viewmodel.Columns),
	}
	for _, c := range viewmodel.Columns {
		p.Headers = append(p.Headers, c.Header)
	}

	for i, e := range marked {
		anchor := "entry-" + strconv.Itoa(i+1)
		r := row{Class: bucketClass(format.StatusBucket(e.Status))}
		if e.NewDay {
			r.DayLabel = e.DayLabel
			r.Class += " day-start"
		}
		for _, c := range viewmodel.Columns {
			cl := cell{Text: c.Text(e, opts.Location)}
			switch {
			case c.Key == viewmodel.ColEndpoint:
				cl.Class = "endpoint"
				if opts.Details {
					cl.Link = anchor
				}
			case c.Center:
				cl.Class = "center"
			}
			r.Cells = append(r.Cells, cl)
		}
		p.Rows = append(p.Rows, r)

		if opts.Details {
			p.Details = append(p.Details, buildDetail(anchor, e, opts))
		}
	}

	if err := reportTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func buildDetail(anchor string, e model.LogEntry, opts Options) detail {
	v := viewmodel.BuildDrawer(e, opts.Base, opts.Location, false)
	d := detail{
		Anchor:  anchor,
		Heading: format.OrDash(e.Method) + " " + format.OrDash(e.Endpoint),
		Curl:    v.Curl,
	}
	for _, f := range v.Summary {
		d.Summary = append(d.Summary, field{Label: f.Label, Value: f.Value, Error: f.Kind == viewmodel.FieldError})
	}
	for _, s := range v.Sections {
		d.Sections = append(d.Sections, section{Title: s.Title, Body: s.Body, Open: !s.Collapsed})
	}
	return d
}

func bucketClass(b format.Bucket) string {
	if b == format.BucketNone {
		return "status-none"
	}
	return "status-" + string(b)
}

// palette tints each status bucket's rows with its status colour.
func palette() []template.CSS {
	var rules []template.CSS
	for _, b := range []format.Bucket{format.Bucket2xx, format.Bucket3xx, format.Bucket4xx, format.Bucket5xx} {
		r, g, bl := format.StatusColor(b).RGB()
		rules = append(rules, template.CSS(fmt.Sprintf(
			"tr.%s td { background: rgba(%d, %d, %d, 0.18); }", bucketClass(b), r, g, bl)))
	}
	return rules
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"apilog-cli/internal/client"
	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
	"apilog-cli/internal/report"
	"apilog-cli/internal/viewmodel"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputHTML  = "html"

	minEndpointWidth = 20
	columnGap        = 2
)

type listOptions struct {
	filter  viewmodel.FilterInput
	offset  int
	output  string
	details bool
	file    string
}

func (a *app) newListCmd() *cobra.Command {
	o := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of request logs",
		Long: `Fetches one page of request logs with the same filters as the viewer and
prints it as a table, as JSON, or as a standalone HTML report.

Dates are local time (YYYY-MM-DDTHH:MM[:SS]); without --from/--to the last
24 hours are listed.`,
		Example: `  # Failed requests of the last day
  apilog-cli list --status 500

  # Second page of POSTs to /widgets as JSON
  apilog-cli list --method post --endpoint /widgets --limit 50 --offset 50 --output json

  # HTML report with one breakdown per request
  apilog-cli list --output html --details --file report.html`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runList(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.filter.From, "from", "", "start of the range, local time (default 24h ago)")
	f.StringVar(&o.filter.To, "to", "", "end of the range, local time (default now)")
	f.StringVar(&o.filter.Endpoint, "endpoint", "", "endpoint substring")
	f.StringVar(&o.filter.Method, "method", "", "HTTP method: "+strings.Join(viewmodel.Methods[1:], ", "))
	f.StringVar(&o.filter.Status, "status", "", "status code")
	f.StringVar(&o.filter.User, "user", "", "user name")
	f.IntVar(&o.offset, "offset", 0, "rows to skip")
	f.StringVarP(&o.output, "output", "o", outputTable, "output format: table, json, html")
	f.BoolVar(&o.details, "details", false, "html: add a detail section per request")
	f.StringVar(&o.file, "file", "", "write to this file instead of stdout")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, o *listOptions) error {
	switch o.output {
	case outputTable, outputJSON, outputHTML:
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
	if o.offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}

	in := o.filter
	defaults := viewmodel.DefaultFilterInput(time.Now())
	if !cmd.Flags().Changed("from") {
		in.From = defaults.From
	}
	if !cmd.Flags().Changed("to") {
		in.To = defaults.To
	}
	if err := validMethod(in.Method); err != nil {
		return err
	}
	filter, err := in.Filter(time.Local)
	if err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	page := viewmodel.PageState{Offset: o.offset, Limit: a.cfg.Limit}
	res, err := c.FetchLogs(cmd.Context(), client.Query{Filter: filter, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return err
	}
	page.Loaded(res.Count)
	log.Infof("[cli] listed %d entries from %s", len(res.Items), c.Base())

	w := cmd.OutOrStdout()
	if o.file != "" {
		f, err := os.Create(o.file)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch o.output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputHTML:
		return report.Write(w, res.Items, report.Options{
			Base:     c.Base(),
			Location: time.Local,
			Page:     page,
			Details:  o.details,
		})
	default:
		writeTable(w, res.Items, page, tableWidth(w))
		return nil
	}
}

func validMethod(m string) error {
	m = strings.ToUpper(strings.TrimSpace(m))
	for _, allowed := range viewmodel.Methods {
		if m == allowed {
			return nil
		}
	}
	return fmt.Errorf("unknown method %q, want one of %s", m, strings.Join(viewmodel.Methods[1:], ", "))
}

// tableWidth is the terminal width when w is one, or 0 for no limit.
func tableWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		log.Debugf("[cli] terminal size unavailable: %v", err)
		return 0
	}
	return width
}

// cellText is the table text of column c. The full request id is printed
// so it can be passed to the db command.
func cellText(c viewmodel.Column, e model.LogEntry) string {
	if c.Key == viewmodel.ColRequestID {
		return e.RequestID
	}
	return c.Text(e, time.Local)
}

func header(c viewmodel.Column) string {
	if c.Key == viewmodel.ColDB {
		return "DB"
	}
	return c.Header
}

// writeTable prints entries in the grid's column order. When width is set
// the endpoint column shrinks so rows fit.
func writeTable(w io.Writer, entries []model.LogEntry, page viewmodel.PageState, width int) {
	cols := viewmodel.Columns
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = runewidth.StringWidth(header(c))
		for _, e := range entries {
			if n := runewidth.StringWidth(cellText(c, e)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	endpoint := viewmodel.ColumnIndex(viewmodel.ColEndpoint)
	if width > 0 {
		used := 0
		for i, n := range widths {
			if i != endpoint {
				used += n + columnGap
			}
		}
		if avail := width - used; avail < widths[endpoint] {
			widths[endpoint] = max(avail, minEndpointWidth)
		}
	}

	bold := color.New(color.Bold).SprintFunc()
	sep := color.New(color.FgHiBlack)

	line := make([]string, len(cols))
	for i, c := range cols {
		line[i] = runewidth.FillRight(header(c), widths[i])
	}
	fmt.Fprintln(w, bold(strings.TrimRight(strings.Join(line, strings.Repeat(" ", columnGap)), " ")))

	marked := format.MarkDayBoundaries(append([]model.LogEntry(nil), entries...), time.Local)
	for _, e := range marked {
		if e.NewDay {
			sep.Fprintln(w, "── "+e.DayLabel)
		}
		for i, c := range cols {
			text := cellText(c, e)
			if i == endpoint {
				text = format.Truncate(text, widths[i]-1)
			}
			text = runewidth.FillRight(text, widths[i])
			line[i] = paint(c.Key, e, text)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(line, strings.Repeat(" ", columnGap)), " "))
	}

	fmt.Fprintln(w, strings.TrimSpace(page.RangeLabel()+"    "+page.CountLabel()))
}

func paint(key viewmodel.ColumnKey, e model.LogEntry, text string) string {
	switch key {
	case viewmodel.ColMethod:
		return rgb(format.MethodColor(e.Method)).Sprint(text)
	case viewmodel.ColStatus:
		if b := format.StatusBucket(e.Status); b != format.BucketNone {
			return rgb(format.StatusColor(b)).Sprint(text)
		}
	}
	return text
}

func rgb(c tcell.Color) *color.Color {
	r, g, b := c.RGB()
	return color.RGB(int(r), int(g), int(b))
}

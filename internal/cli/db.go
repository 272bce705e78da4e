package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/TylerBrock/colorjson"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"apilog-cli/internal/viewmodel"
)

type dbOptions struct {
	sql  bool
	json bool
}

func (a *app) newDBCmd() *cobra.Command {
	o := &dbOptions{}
	cmd := &cobra.Command{
		Use:   "db <request-id>",
		Short: "Print the database calls of one request",
		Example: `  apilog-cli db 0f8fad5b-d9cb-469f-a165-70867728950e --sql
  apilog-cli db 0f8fad5b-d9cb-469f-a165-70867728950e --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDB(cmd, strings.TrimSpace(args[0]), o)
		},
	}
	cmd.Flags().BoolVar(&o.sql, "sql", false, "print the full SQL of every call")
	cmd.Flags().BoolVar(&o.json, "json", false, "print the response JSON of every call")
	return cmd
}

func (a *app) runDB(cmd *cobra.Command, requestID string, o *dbOptions) error {
	if requestID == "" {
		return fmt.Errorf("request id must not be empty")
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	items, err := c.FetchDBLogs(cmd.Context(), requestID)
	if err != nil {
		return err
	}
	log.Infof("[cli] %d db calls for request %s", len(items), requestID)

	w := cmd.OutOrStdout()
	rows := viewmodel.BuildDBRows(items)
	if len(rows) == 0 {
		fmt.Fprintln(w, viewmodel.DBEmptyText)
		return nil
	}

	writeDBTable(w, rows)
	for i, r := range rows {
		if o.sql && r.HasSQL {
			fmt.Fprintf(w, "\n-- #%d %s SQL\n%s\n", i+1, r.Function, r.SQL)
		}
		if o.json && r.HasJSON {
			fmt.Fprintf(w, "\n-- #%d %s response\n%s\n", i+1, r.Function, colorJSON(r.JSON))
		}
	}
	return nil
}

func writeDBTable(w io.Writer, rows []viewmodel.DBRow) {
	headers := []string{"#", "Function", "Schema", "ms", "Status", "Error"}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{fmt.Sprint(i + 1), r.Function, r.Schema, r.Millis, r.Status, r.Error}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
		for _, row := range cells {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	ok := color.New(color.FgGreen)
	failed := color.New(color.FgRed)
	join := func(cols []string, paint func(i int, s string) string) string {
		out := make([]string, len(cols))
		for i, s := range cols {
			out[i] = paint(i, runewidth.FillRight(s, widths[i]))
		}
		return strings.TrimRight(strings.Join(out, "  "), " ")
	}

	fmt.Fprintln(w, color.New(color.Bold).Sprint(join(headers, func(_ int, s string) string { return s })))
	for i, row := range cells {
		r := rows[i]
		fmt.Fprintln(w, join(row, func(col int, s string) string {
			switch col {
			case 4:
				if r.StatusOK {
					return ok.Sprint(s)
				}
				return failed.Sprint(s)
			case 5:
				return failed.Sprint(s)
			}
			return s
		}))
	}
}

// colorJSON colours pretty-printed JSON for terminals; without colour
// support the text is returned as is.
func colorJSON(text string) string {
	if color.NoColor {
		return text
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	f := colorjson.NewFormatter()
	f.Indent = 2
	out, err := f.Marshal(v)
	if err != nil {
		log.Debugf("[cli] colorjson: %v", err)
		return text
	}
	return string(out)
}

package viewmodel

import (
	"time"

	"apilog-cli/internal/format"
	"apilog-cli/internal/model"
)

type FieldKind int

const (
	FieldPlain FieldKind = iota
	FieldMethod
	FieldStatus
	FieldError
)

type SummaryField struct {
	Label     string
	Value     string
	Kind      FieldKind
	FullWidth bool
}

type SectionID string

const (
	SectionQueryParams     SectionID = "query_params"
	SectionRequestHeaders  SectionID = "request_headers"
	SectionRequestBody     SectionID = "request_body"
	SectionResponseHeaders SectionID = "response_headers"
	SectionResponseBody    SectionID = "response_body"
)

// Section is one collapsible block of the drawer. Body is plain text;
// escaping is left to the surface that draws it.
type Section struct {
	ID        SectionID
	Title     string
	Body      string
	Collapsed bool
}

const (
	DBLoadingText = "Loading DB logs…"
	DBEmptyText   = "No DB logs for this request."
	DBNoIDText    = "No request id; DB logs are not available."
)

// DrawerView is the detail breakdown of one log entry.
type DrawerView struct {
	Entry    model.LogEntry
	Summary  []SummaryField
	Sections []Section
	Curl     string

	// FetchDB is false when the entry has no request id to look up.
	FetchDB    bool
	ScrollToDB bool
}

// BuildDrawer renders e for the drawer. base is the API root used by the
// cURL command; timestamps are shown in loc.
func BuildDrawer(e model.LogEntry, base string, loc *time.Location, scrollToDB bool) DrawerView {
	v := DrawerView{
		Entry:      e,
		Curl:       format.BuildCurl(base, e),
		FetchDB:    e.RequestID != "",
		ScrollToDB: scrollToDB,
	}

	ts := format.Placeholder
	if e.Timestamp != "" {
		ts = format.FormatTimestamp(e.Timestamp, loc)
	}
	status := format.StatusText(e.Status)
	if status == "" {
		status = format.Placeholder
	}

	v.Summary = []SummaryField{
		{Label: "Method", Value: format.OrDash(e.Method), Kind: FieldMethod},
		{Label: "Status", Value: status, Kind: FieldStatus},
		{Label: "Endpoint", Value: format.OrDash(e.Endpoint), FullWidth: true},
		{Label: "Duration", Value: format.Duration(e.DurationMs)},
		{Label: "User", Value: format.OrDash(e.UserName)},
		{Label: "Client IP", Value: format.OrDash(e.ClientIP)},
		{Label: "Timestamp", Value: ts},
		{Label: "Request ID", Value: format.OrDash(e.RequestID), FullWidth: true},
	}
	if e.Error != "" {
		v.Summary = append(v.Summary, SummaryField{Label: "Error", Value: e.Error, Kind: FieldError, FullWidth: true})
	}

	if len(e.QueryParams) > 0 {
		v.Sections = append(v.Sections, Section{ID: SectionQueryParams, Title: "Query Params", Body: format.FieldsJSON(e.QueryParams)})
	}
	if len(e.RequestHeaders) > 0 {
		v.Sections = append(v.Sections, Section{ID: SectionRequestHeaders, Title: "Request Headers", Body: format.FieldsJSON(e.RequestHeaders)})
	}
	if body := e.RequestBody.String(); body != "" {
		v.Sections = append(v.Sections, Section{ID: SectionRequestBody, Title: "Request Body", Body: format.JSONOrText(body)})
	}
	if len(e.ResponseHeaders) > 0 {
		v.Sections = append(v.Sections, Section{ID: SectionResponseHeaders, Title: "Response Headers", Body: format.FieldsJSON(e.ResponseHeaders), Collapsed: true})
	}
	if body := e.ResponseBody.String(); body != "" {
		v.Sections = append(v.Sections, Section{ID: SectionResponseBody, Title: "Response Body", Body: format.JSONOrText(body), Collapsed: true})
	}
	return v
}

// Toggle flips the collapsed state of section i.
func (v *DrawerView) Toggle(i int) {
	if i >= 0 && i < len(v.Sections) {
		v.Sections[i].Collapsed = !v.Sections[i].Collapsed
	}
}

// DBRow is one row of the nested DB-logs table.
type DBRow struct {
	Function string
	Schema   string
	Millis   string
	Status   string
	StatusOK bool
	Error    string

	SQL     string
	JSON    string
	HasSQL  bool
	HasJSON bool
}

const errorWidth = 80

func BuildDBRows(items []model.DbLogEntry) []DBRow {
	rows := make([]DBRow, 0, len(items))
	for _, it := range items {
		errText := format.Truncate(it.Error, errorWidth)
		if errText == "" {
			errText = format.Placeholder
		}
		raw := it.ResponseJSON.String()
		rows = append(rows, DBRow{
			Function: format.OrDash(it.FunctionName),
			Schema:   format.OrDash(it.SchemaName),
			Millis:   format.Millis(it.DurationMs),
			Status:   format.OrDash(it.Status),
			StatusOK: it.Error == "",
			Error:    errText,
			SQL:      it.SQLText,
			JSON:     format.JSONOrText(raw),
			HasSQL:   it.SQLText != "",
			HasJSON:  raw != "",
		})
	}
	return rows
}

// PopupContent is what the popup shows and copies.
type PopupContent struct {
	Title string
	Text  string
}

func SQLPopup(r DBRow) PopupContent {
	return PopupContent{Title: "SQL Query", Text: r.SQL}
}

func JSONPopup(r DBRow) PopupContent {
	return PopupContent{Title: "Response JSON", Text: r.JSON}
}

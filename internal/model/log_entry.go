package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// LogEntry is one recorded API call as returned by GET {base}/logs.
type LogEntry struct {
	Timestamp       string `json:"ts"`
	Method          string `json:"method"`
	Endpoint        string `json:"endpoint"`
	Status          *int   `json:"status"`
	DurationMs      *int64 `json:"duration_ms"`
	UserName        string `json:"user_name"`
	ClientIP        string `json:"client_ip"`
	RequestID       string `json:"request_id"`
	QueryParams     Fields `json:"query_params"`
	RequestHeaders  Fields `json:"request_headers"`
	RequestBody     Body   `json:"request_body"`
	ResponseHeaders Fields `json:"response_headers"`
	ResponseBody    Body   `json:"response_body"`
	BodySize        *int64 `json:"body_size,omitempty"`
	ResponseSize    *int64 `json:"response_size,omitempty"`
	Error           string `json:"error,omitempty"`
	HasDBLogs       bool   `json:"has_db_logs"`

	// Derived on the client after a page is fetched; never sent by the server.
	NewDay   bool   `json:"-"`
	DayLabel string `json:"-"`
}

// DbLogEntry is one database call attributed to a parent LogEntry.
type DbLogEntry struct {
	FunctionName string `json:"function_name"`
	SchemaName   string `json:"schema_name"`
	SQLText      string `json:"sql_text"`
	ResponseJSON Body   `json:"response_json"`
	DurationMs   *int64 `json:"duration_ms"`
	Status       string `json:"status"`
	Error        string `json:"error"`
}

// ListResult is the decoded body of the list endpoint.
type ListResult struct {
	Items []LogEntry `json:"items"`
	Count int        `json:"count"`
}

// Filter holds the list-endpoint filters. Empty fields are not sent.
type Filter struct {
	From     string
	To       string
	Endpoint string
	Method   string
	Status   string
	User     string
}

// Fields is a string mapping (query params, headers). Non-string JSON
// values are kept in their textual form.
type Fields map[string]string

func (f *Fields) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = nil
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("fields: %w", err)
	}

	out := make(Fields, len(raw))
	for k, v := range raw {
		out[k] = rawText(v)
	}
	*f = out
	return nil
}

// Keys returns the mapping keys in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Body is a stored request/response payload. The server may send it either
// as a JSON string (usually JSON-encoded text) or as an inline JSON value.
type Body string

func (b *Body) UnmarshalJSON(data []byte) error {
	*b = Body(rawText(data))
	return nil
}

func (b Body) String() string {
	return string(b)
}

func rawText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("null")):
		return ""
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return string(v)
		}
		return s
	default:
		return string(v)
	}
}

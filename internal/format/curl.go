package format

import (
	"net/url"
	"strings"

	"apilog-cli/internal/model"
)

// BuildCurl reconstructs an equivalent cURL command for a logged request
// against base. Query params and headers are emitted in key order.
func BuildCurl(base string, e model.LogEntry) string {
	method := e.Method
	if method == "" {
		method = "GET"
	}
	endpoint := e.Endpoint
	if endpoint == "" {
		endpoint = "/"
	}

	target := base + endpoint
	if len(e.QueryParams) > 0 {
		values := url.Values{}
		for k, v := range e.QueryParams {
			values.Set(k, v)
		}
		target += "?" + values.Encode()
	}

	parts := []string{"curl -X " + method + " " + shellQuote(target)}
	for _, k := range e.RequestHeaders.Keys() {
		parts = append(parts, "  -H "+shellQuote(k+": "+e.RequestHeaders[k]))
	}
	if body := e.RequestBody.String(); body != "" {
		parts = append(parts, "  -d "+shellQuote(MinifyJSON(body)))
	}

	return strings.Join(parts, " \\\n")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

package client

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"apilog-cli/internal/model"
)

var uiRouteSuffix = regexp.MustCompile(`/logs/ui/?$`)

// ResolveBase derives the API root from the viewer URL by stripping the
// /logs/ui route. Query and fragment are dropped.
func ResolveBase(viewerURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(viewerURL))
	if err != nil {
		return "", fmt.Errorf("parse viewer url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("viewer url %q must be absolute", viewerURL)
	}

	path := uiRouteSuffix.ReplaceAllString(u.Path, "")
	path = strings.TrimRight(path, "/")
	return u.Scheme + "://" + u.Host + path, nil
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Op     string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s", e.Op, e.Status)
}

// Query is one page request against the list endpoint.
type Query struct {
	Filter model.Filter
	Limit  int
	Offset int
}

// Values encodes the query. Filter fields that are empty are omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(key, val)
		}
	}
	set("from", q.Filter.From)
	set("to", q.Filter.To)
	set("endpoint", q.Filter.Endpoint)
	set("method", q.Filter.Method)
	set("status", q.Filter.Status)
	set("user", q.Filter.User)
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	return v
}

type Client struct {
	base string
	http *http.Client
}

// New returns a client for the API rooted at base. A zero timeout leaves
// requests unbounded.
func New(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Base() string {
	return c.base
}

// FetchLogs issues GET {base}/logs for one page.
func (c *Client) FetchLogs(ctx context.Context, q Query) (*model.ListResult, error) {
	target := c.base + "/logs?" + q.Values().Encode()

	body, err := c.get(ctx, "fetch logs", target)
	if err != nil {
		return nil, err
	}

	res := &model.ListResult{}
	if items := gjson.GetBytes(body, "items"); items.IsArray() {
		if err := json.Unmarshal([]byte(items.Raw), &res.Items); err != nil {
			return nil, fmt.Errorf("fetch logs: decode items: %w", err)
		}
	}
	if count := gjson.GetBytes(body, "count"); count.Exists() {
		res.Count = int(count.Int())
	} else {
		res.Count = len(res.Items)
	}

	log.Debugf("[client] fetched %d log entries (offset=%d limit=%d)", len(res.Items), q.Offset, q.Limit)
	return res, nil
}

// FetchDBLogs issues GET {base}/logs/db for one request id.
func (c *Client) FetchDBLogs(ctx context.Context, requestID string) ([]model.DbLogEntry, error) {
	target := c.base + "/logs/db?request_id=" + url.QueryEscape(requestID)

	body, err := c.get(ctx, "fetch db logs", target)
	if err != nil {
		return nil, err
	}

	var items []model.DbLogEntry
	if res := gjson.GetBytes(body, "items"); res.IsArray() {
		if err := json.Unmarshal([]byte(res.Raw), &items); err != nil {
			return nil, fmt.Errorf("fetch db logs: decode items: %w", err)
		}
	}

	log.Debugf("[client] fetched %d db log entries for request %s", len(items), requestID)
	return items, nil
}

func (c *Client) get(ctx context.Context, op, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	if id, err := uuid.NewV4(); err == nil {
		req.Header.Set("X-Request-Id", id.String())
	} else {
		log.Debugf("[client] failed to generate request id: %v", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: response is not valid JSON", op)
	}
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		return io.ReadAll(gz)
	default:
		return io.ReadAll(resp.Body)
	}
}

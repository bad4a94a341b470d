package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// DefaultBaseURL is the Vercel Web Analytics insights API.
const DefaultBaseURL = "https://vercel.com/api/web/insights"

// ErrNotConfigured is returned when the upstream token or project is missing.
var ErrNotConfigured = errors.New("analytics: upstream not configured")

// StatusError is a non-2xx reply from the upstream API.
type StatusError struct {
	Group Group
	Code  int
	Body  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analytics: %s: upstream status %d: %s", e.Group, e.Code, e.Body)
}

// Group is one metric group of the upstream API.
type Group string

const (
	GroupTimeseries Group = "timeseries"
	GroupPages      Group = "pages"
	GroupReferrers  Group = "referrers"
	GroupCountries  Group = "countries"
	GroupDevices    Group = "devices"
	GroupBrowsers   Group = "browsers"
)

var allGroups = []Group{GroupTimeseries, GroupPages, GroupReferrers, GroupCountries, GroupDevices, GroupBrowsers}

// GroupsFor maps the proxy's type parameter to the groups it fetches.
// Unknown types fetch nothing.
func GroupsFor(typ string) []Group {
	switch typ {
	case "", "all":
		return allGroups
	case "timeseries":
		return []Group{GroupTimeseries}
	case "pages":
		return []Group{GroupPages}
	case "referrers":
		return []Group{GroupReferrers}
	case "countries":
		return []Group{GroupCountries}
	case "devices":
		return []Group{GroupDevices, GroupBrowsers}
	default:
		return nil
	}
}

// Config configures the upstream client.
type Config struct {
	Token      string
	ProjectID  string
	TeamID     string
	BaseURL    string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Client talks to the upstream analytics API.
type Client struct {
	token     string
	projectID string
	teamID    string
	baseURL   string
	http      *http.Client
	now       func() time.Time
}

// NewClient builds a client. A client without token or project is valid but
// every fetch returns ErrNotConfigured.
func NewClient(cfg Config) *Client {
	c := &Client{
		token:     cfg.Token,
		projectID: cfg.ProjectID,
		teamID:    cfg.TeamID,
		baseURL:   cfg.BaseURL,
		http:      cfg.HTTPClient,
		now:       cfg.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 10 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.token != "" && c.projectID != ""
}

// groupRequest returns the endpoint path and extra query for a group.
func groupRequest(g Group, p Period) (string, url.Values) {
	q := url.Values{}
	switch g {
	case GroupTimeseries:
		q.Set("granularity", p.Granularity())
		return "/stats/path", q
	case GroupPages:
		q.Set("limit", "10")
		return "/stats/path", q
	case GroupReferrers:
		q.Set("limit", "10")
		return "/stats/referrer", q
	case GroupCountries:
		q.Set("limit", "10")
		return "/stats/country", q
	case GroupDevices:
		return "/stats/device", q
	case GroupBrowsers:
		return "/stats/browser", q
	}
	return "", nil
}

// FetchRaw returns the raw upstream body for one group.
func (c *Client) FetchRaw(ctx context.Context, p Period, g Group) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	path, q := groupRequest(g, p)
	if path == "" {
		return nil, fmt.Errorf("analytics: unknown group %q", g)
	}
	from, to := p.Range(c.now().UTC())
	q.Set("projectId", c.projectID)
	q.Set("from", from.Format(time.RFC3339Nano))
	q.Set("to", to.Format(time.RFC3339Nano))
	if c.teamID != "" {
		q.Set("teamId", c.teamID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analytics: %s: http request: %w", g, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("analytics: %s: read body: %w", g, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Group: g, Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("analytics: %s: invalid json body", g)
	}
	return json.RawMessage(body), nil
}

// Fetch returns one group decoded into the common envelope.
func (c *Client) Fetch(ctx context.Context, p Period, g Group) (Payload, error) {
	raw, err := c.FetchRaw(ctx, p, g)
	if err != nil {
		return Payload{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload Payload
	if err := dec.Decode(&payload); err != nil {
		return Payload{}, fmt.Errorf("analytics: %s: decode: %w", g, err)
	}
	return payload, nil
}

// Results holds the outcome of a multi-group fetch.
type Results struct {
	Data    map[Group]json.RawMessage
	Skipped map[Group]error // non-2xx replies, omitted from Data
}

// FetchGroups fetches groups concurrently. Non-2xx replies are recorded in
// Skipped; any other failure aborts the whole fetch with the first error.
func (c *Client) FetchGroups(ctx context.Context, p Period, groups []Group) (Results, error) {
	res := Results{
		Data:    make(map[Group]json.RawMessage, len(groups)),
		Skipped: make(map[Group]error),
	}
	if !c.Configured() {
		return res, ErrNotConfigured
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error

	for _, g := range groups {
		wg.Add(1)
		go func(g Group) {
			defer wg.Done()
			raw, err := c.FetchRaw(ctx, p, g)
			mu.Lock()
			defer mu.Unlock()
			var se *StatusError
			switch {
			case err == nil:
				res.Data[g] = raw
			case errors.As(err, &se):
				res.Skipped[g] = err
			case firstErr == nil:
				firstErr = err
			}
		}(g)
	}
	wg.Wait()

	if firstErr != nil {
		return res, firstErr
	}
	return res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…(" + strconv.Itoa(len(s)-n) + " more bytes)"
}

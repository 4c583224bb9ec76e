package stories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/pders01/stories/internal/config"
	"github.com/pders01/stories/internal/debuglog"
	"github.com/pders01/stories/internal/validation"
)

// maxBodySize caps how much of a response body is decoded.
const maxBodySize = 8 << 20

// Source is what the list view needs from the story API.
type Source interface {
	FetchPage(ctx context.Context, req PageRequest) (*PageResponse, error)
}

// Client talks to the remote story API. It issues exactly one request per
// call and never retries.
type Client struct {
	baseURL   *url.URL
	client    *http.Client
	userAgent string
	log       debuglog.Logger
}

func NewClient(cfg *config.Config, log debuglog.Logger) (*Client, error) {
	base, err := baseURLValidator(cfg).ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", cfg.API.BaseURL, err)
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}
	if log == nil {
		log = debuglog.Nop()
	}

	return &Client{
		baseURL: u,
		client: &http.Client{
			Timeout: cfg.API.Timeout,
		},
		userAgent: cfg.API.UserAgent,
		log:       log.WithFields(map[string]any{"component": "stories.client"}),
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchPage loads one page of stories. Invalid stories are dropped from
// Items; TotalCount is passed through as reported by the server.
func (c *Client) FetchPage(ctx context.Context, req PageRequest) (*PageResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("pageSize", strconv.Itoa(req.PageSize))
	if q := req.NormalizedQuery(); q != "" {
		params.Set("query", q)
	}
	endpoint := c.endpoint("stories", params)

	if err := req.Validate(); err != nil {
		return nil, &FetchError{Request: describe(endpoint), Err: err}
	}

	var raw PageResponse
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	items := FilterValid(raw.Items)
	c.log.WithFields(map[string]any{
		"page":     req.Page,
		"pageSize": req.PageSize,
		"query":    req.NormalizedQuery(),
	}).Debugf("fetched %d stories (%d dropped), total %d", len(items), len(raw.Items)-len(items), raw.TotalCount)

	return &PageResponse{Items: items, TotalCount: raw.TotalCount}, nil
}

// Search queries the standalone search endpoint, which answers with a
// bare array of stories. Invalid stories are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]Story, error) {
	params := url.Values{}
	params.Set("query", query)
	endpoint := c.endpoint("stories/search", params)

	var raw []Story
	if err := c.getJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	items := FilterValid(raw)
	c.log.Debugf("search %q matched %d stories (%d dropped)", query, len(items), len(raw)-len(items))
	return items, nil
}

func (c *Client) endpoint(rel string, params url.Values) string {
	u := *c.baseURL
	u.Path = path.Join("/", c.baseURL.Path, rel)
	u.RawPath = ""
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	desc := describe(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Request: desc, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &FetchError{Request: desc, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &FetchError{
			Request:    desc,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %s", ErrUnexpectedStatus, http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return &FetchError{Request: desc, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func describe(endpoint string) string {
	return http.MethodGet + " " + endpoint
}

func baseURLValidator(cfg *config.Config) *validation.BaseURLValidator {
	if cfg.API.AllowPrivate {
		return validation.NewBaseURLValidator()
	}
	return validation.NewStrictBaseURLValidator()
}

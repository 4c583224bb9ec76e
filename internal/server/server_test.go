package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/stories/internal/config"
	"github.com/pders01/stories/internal/debuglog"
	"github.com/pders01/stories/internal/index"
	"github.com/pders01/stories/internal/stories"
)

func catalogue(n int) []stories.Story {
	items := make([]stories.Story, n)
	for i := range items {
		items[i] = stories.Story{
			Title: fmt.Sprintf("Story %d", i+1),
			URL:   fmt.Sprintf("https://story%d.com", i+1),
		}
	}
	return items
}

func newTestServer(t *testing.T, items []stories.Story) *httptest.Server {
	t.Helper()
	idx, err := index.New(items)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	srv := New(config.TestConfig(), idx, debuglog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestServer_ListStories(t *testing.T) {
	ts := newTestServer(t, catalogue(23))

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantLen   int
	}{
		{"defaults", "", "Story 1", 10},
		{"second page", "?page=2&pageSize=10", "Story 11", 10},
		{"last partial page", "?page=3&pageSize=10", "Story 21", 3},
		{"custom size", "?page=2&pageSize=5", "Story 6", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body stories.PageResponse
			resp := getJSON(t, ts.URL+"/stories"+tt.query, &body)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.Equal(t, 23, body.TotalCount)
			require.Len(t, body.Items, tt.wantLen)
			assert.Equal(t, tt.wantFirst, body.Items[0].Title)
		})
	}
}

func TestServer_ListBeyondLastPage(t *testing.T) {
	ts := newTestServer(t, catalogue(3))

	resp, err := http.Get(ts.URL + "/stories?page=9&pageSize=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.JSONEq(t, `{"items": [], "totalCount": 3}`, string(raw))
}

func TestServer_ListWithQuery(t *testing.T) {
	ts := newTestServer(t, []stories.Story{
		{Title: "Go generics", URL: "https://go.dev/generics"},
		{Title: "Rust traits", URL: "https://rust-lang.org"},
		{Title: "Go modules", URL: "https://go.dev/modules"},
	})

	var body stories.PageResponse
	getJSON(t, ts.URL+"/stories?page=1&pageSize=10&query=go", &body)

	assert.Equal(t, 2, body.TotalCount)
	require.Len(t, body.Items, 2)
	for _, s := range body.Items {
		assert.Contains(t, s.Title, "Go")
	}
}

func TestServer_ServesInvalidStoriesVerbatim(t *testing.T) {
	ts := newTestServer(t, []stories.Story{
		{Title: "Story 1", URL: "https://story1.com"},
		{Title: "", URL: "https://story2.com"},
		{Title: "No link", URL: ""},
	})

	resp, err := http.Get(ts.URL + "/stories")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"items": [
			{"title": "Story 1", "url": "https://story1.com"},
			{"title": "", "url": "https://story2.com"},
			{"title": "No link", "url": ""}
		],
		"totalCount": 3
	}`, string(raw))
}

func TestServer_BadParameters(t *testing.T) {
	ts := newTestServer(t, catalogue(3))

	for _, query := range []string{
		"?page=0",
		"?page=-1",
		"?page=abc",
		"?pageSize=0",
		"?pageSize=101",
		"?pageSize=ten",
	} {
		t.Run(query, func(t *testing.T) {
			var body errorBody
			resp := getJSON(t, ts.URL+"/stories"+query, &body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestServer_Search(t *testing.T) {
	ts := newTestServer(t, []stories.Story{
		{Title: "Go generics", URL: "https://go.dev/generics"},
		{Title: "Rust traits", URL: "https://rust-lang.org"},
	})

	var items []stories.Story
	resp := getJSON(t, ts.URL+"/stories/search?query=rust", &items)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []stories.Story{{Title: "Rust traits", URL: "https://rust-lang.org"}}, items)

	items = nil
	getJSON(t, ts.URL+"/stories/search?query=haskell", &items)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	var errBody errorBody
	resp = getJSON(t, ts.URL+"/stories/search?limit=0", &errBody)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, catalogue(4))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	getJSON(t, ts.URL+"/stories", &stories.PageResponse{})

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	out := string(body)
	assert.Contains(t, out, `stories_http_requests_total{code="200",route="/stories"} 1`)
	assert.Contains(t, out, `stories_served_total{route="/stories"} 4`)
	assert.Contains(t, out, "stories_catalogue_size 4")
}

func TestServer_NotFoundAndMethod(t *testing.T) {
	ts := newTestServer(t, catalogue(1))

	var body errorBody
	resp := getJSON(t, ts.URL+"/nope", &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", body.Error)

	resp, err := http.Post(ts.URL+"/stories", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type failingCatalogue struct{}

func (failingCatalogue) Page(string, int, int) ([]stories.Story, int, error) {
	return nil, 0, errors.New("index closed")
}

func (failingCatalogue) Len() int { return 0 }

func TestServer_CatalogueError(t *testing.T) {
	ts := httptest.NewServer(New(config.TestConfig(), failingCatalogue{}, nil).Handler())
	defer ts.Close()

	var body errorBody
	resp := getJSON(t, ts.URL+"/stories", &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "listing stories failed", body.Error)
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	idx, err := index.New(catalogue(2))
	require.NoError(t, err)
	defer idx.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(config.TestConfig(), idx, nil).Serve(ctx, ln)
	}()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

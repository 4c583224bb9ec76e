package stories

import (
	"fmt"
	"strings"
)

// Story is one entry of the remote listing. A JSON null decodes to the
// empty string, so null and blank fields are treated the same way.
type Story struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Valid reports whether both title and url are present after trimming.
func (s Story) Valid() bool {
	return strings.TrimSpace(s.Title) != "" && strings.TrimSpace(s.URL) != ""
}

// HasURL reports whether the story carries a non-blank url.
func (s Story) HasURL() bool {
	return strings.TrimSpace(s.URL) != ""
}

// PageRequest describes one page of the listing. Page is one-based.
type PageRequest struct {
	Page     int
	PageSize int
	Query    string
}

// Validate rejects requests the API cannot answer meaningfully.
func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", r.Page)
	}
	if r.PageSize <= 0 {
		return fmt.Errorf("page size must be > 0, got %d", r.PageSize)
	}
	return nil
}

// NormalizedQuery returns the trimmed query; empty means "no query".
func (r PageRequest) NormalizedQuery() string {
	return strings.TrimSpace(r.Query)
}

// PageResponse is the listing envelope. TotalCount is the server's
// unfiltered total even when Items has been filtered client-side.
type PageResponse struct {
	Items      []Story `json:"items"`
	TotalCount int     `json:"totalCount"`
}

// FilterValid returns the valid stories of items in order. The input
// slice is never modified.
func FilterValid(items []Story) []Story {
	return filter(items, Story.Valid)
}

// FilterWithURL returns the stories of items that have a url.
func FilterWithURL(items []Story) []Story {
	return filter(items, Story.HasURL)
}

func filter(items []Story, keep func(Story) bool) []Story {
	out := make([]Story, 0, len(items))
	for _, s := range items {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

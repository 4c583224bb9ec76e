package tui

import "github.com/pders01/stories/internal/stories"

// LoadState tracks where the list is in its fetch cycle.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadLoaded
	LoadError
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadError:
		return "error"
	default:
		return "unknown"
	}
}

// ListState is the view state of the story list. CurrentPage is
// one-based, matching the API.
type ListState struct {
	CurrentPage    int
	PageSize       int
	SearchQuery    string
	IsLoading      bool
	DisplayedItems []stories.Story
	TotalItems     int
}

// TotalPages is never less than one so an empty result still renders 1/1.
func (s ListState) TotalPages() int {
	if s.PageSize <= 0 || s.TotalItems <= 0 {
		return 1
	}
	return (s.TotalItems + s.PageSize - 1) / s.PageSize
}

func (s ListState) HasNext() bool {
	return s.CurrentPage < s.TotalPages()
}

func (s ListState) HasPrev() bool {
	return s.CurrentPage > 1
}

// PageIndex is the zero-based index the paginator works with.
func (s ListState) PageIndex() int {
	return s.CurrentPage - 1
}

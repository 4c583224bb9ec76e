package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading     = "Loading stories…"
	MsgNoStories   = "No stories"
	MsgNoURL       = "Story has no link"
	MsgOpening     = "Opening…"
	MsgSearchHint  = "Type a query • Enter: search • Esc: cancel"
	MsgSearchClear = "Search cleared"
)

func MsgStoriesCount(n int) string {
	if n == 1 {
		return "1 story"
	}
	return fmt.Sprintf("%d stories", n)
}

func MsgQuery(q string) string {
	return fmt.Sprintf("query %q", strings.TrimSpace(q))
}

func MsgOpened(url string) string {
	return "Opened " + truncateMiddle(url, 48)
}

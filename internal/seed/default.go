package seed

import "github.com/pders01/stories/internal/stories"

var defaultStories = []stories.Story{
	{Title: "Go 1.24 is released", URL: "https://go.dev/blog/go1.24"},
	{Title: "Range over function types", URL: "https://go.dev/blog/range-functions"},
	{Title: "Structured logging with slog", URL: "https://go.dev/blog/slog"},
	{Title: "", URL: "https://example.com/untitled"},
	{Title: "Profile-guided optimization", URL: "https://go.dev/blog/pgo"},
	{Title: "Building terminal apps with Bubble Tea", URL: "https://github.com/charmbracelet/bubbletea"},
	{Title: "A draft with no link", URL: ""},
	{Title: "Full-text search with Bleve", URL: "https://blevesearch.com/docs/Home/"},
	{Title: "Robust generic functions on slices", URL: "https://go.dev/blog/generic-slice-functions"},
	{Title: "Lip Gloss: style definitions for terminal layouts", URL: "https://github.com/charmbracelet/lipgloss"},
	{Title: "More powerful Go execution traces", URL: "https://go.dev/blog/execution-traces-2024"},
	{Title: "Routing enhancements for Go 1.22", URL: "https://go.dev/blog/routing-enhancements"},
	{Title: "Prometheus instrumentation for Go services", URL: "https://prometheus.io/docs/guides/go-application/"},
	{Title: "   ", URL: "https://example.com/blank-title"},
	{Title: "Secure randomness in Go 1.22", URL: "https://go.dev/blog/chacha8rand"},
	{Title: "Glamour: markdown rendering for the terminal", URL: "https://github.com/charmbracelet/glamour"},
	{Title: "Go Protobuf: the new Opaque API", URL: "https://go.dev/blog/protobuf-opaque"},
	{Title: "Testable examples in Go", URL: "https://go.dev/blog/examples"},
	{Title: "Cobra: a framework for modern CLI apps", URL: "https://cobra.dev"},
	{Title: "Viper: configuration with fangs", URL: "https://github.com/spf13/viper"},
	{Title: "Zero allocation JSON logging", URL: "https://github.com/rs/zerolog"},
	{Title: "Fifteen years of Go", URL: "https://go.dev/blog/15years"},
	{Title: "Go Developer Survey results", URL: "https://go.dev/blog/survey2024-h2-results"},
}

// Default returns the built-in catalogue. A few entries are deliberately
// malformed so clients exercise their filtering.
func Default() []stories.Story {
	return append([]stories.Story(nil), defaultStories...)
}

// Package seed loads the story catalogue served by the development server.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/stories/internal/stories"
)

const userAgent = "stories-seed/1.0"

type tomlFile struct {
	Stories []tomlStory `toml:"stories"`
}

type tomlStory struct {
	Title string `toml:"title"`
	URL   string `toml:"url"`
}

type Loader struct {
	parser *gofeed.Parser
}

func NewLoader() *Loader {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	return &Loader{parser: p}
}

// Load reads stories from a TOML file, a feed file or a feed URL. Entries
// are returned verbatim; missing titles or links are kept.
func (l *Loader) Load(ctx context.Context, source string) ([]stories.Story, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Default(), nil
	}

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		feed, err := l.parser.ParseURLWithContext(source, ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching seed feed %s: %w", source, err)
		}
		return fromFeed(feed), nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(source), ".toml") {
		return ParseTOML(f)
	}
	return l.ParseFeed(f)
}

func ParseTOML(r io.Reader) ([]stories.Story, error) {
	var file tomlFile
	if err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing seed toml: %w", err)
	}

	out := make([]stories.Story, 0, len(file.Stories))
	for _, s := range file.Stories {
		out = append(out, stories.Story{Title: s.Title, URL: s.URL})
	}
	return out, nil
}

// ParseFeed maps RSS, Atom or JSON Feed items to stories.
func (l *Loader) ParseFeed(r io.Reader) ([]stories.Story, error) {
	feed, err := l.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing seed feed: %w", err)
	}
	return fromFeed(feed), nil
}

func fromFeed(feed *gofeed.Feed) []stories.Story {
	out := make([]stories.Story, 0, len(feed.Items))
	for _, item := range feed.Items {
		out = append(out, stories.Story{Title: item.Title, URL: itemLink(item)})
	}
	return out
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	for _, l := range item.Links {
		if l != "" {
			return l
		}
	}
	return ""
}

// WriteTOML renders stories in the seed file format.
func WriteTOML(w io.Writer, items []stories.Story) error {
	file := tomlFile{Stories: make([]tomlStory, len(items))}
	for i, s := range items {
		file.Stories[i] = tomlStory{Title: s.Title, URL: s.URL}
	}
	enc := toml.NewEncoder(w)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encoding seed toml: %w", err)
	}
	return nil
}

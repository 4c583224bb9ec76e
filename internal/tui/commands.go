package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/stories/internal/stories"
)

// loadStories starts a fetch for the current list state. Any fetch still
// in flight is canceled and its result will be ignored.
func (a *App) loadStories() tea.Cmd {
	if a.cancelLoad != nil {
		a.cancelLoad()
	}
	a.loadSeq++
	seq := a.loadSeq

	ctx, cancel := context.WithCancel(context.Background())
	a.cancelLoad = cancel

	a.state.IsLoading = true
	a.loadState = LoadLoading

	req := stories.PageRequest{
		Page:     a.state.CurrentPage,
		PageSize: a.state.PageSize,
		Query:    strings.TrimSpace(a.state.SearchQuery),
	}
	source := a.source

	fetch := func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = storiesLoadedMsg{seq: seq, req: req, err: fmt.Errorf("fetch panicked: %v", r)}
			}
		}()
		if source == nil {
			return storiesLoadedMsg{seq: seq, req: req, err: fmt.Errorf("no story source configured")}
		}
		resp, err := source.FetchPage(ctx, req)
		return storiesLoadedMsg{seq: seq, req: req, resp: resp, err: err}
	}

	return tea.Batch(a.spinner.Tick, fetch)
}

// cancelInFlight aborts the pending fetch, if any.
func (a *App) cancelInFlight() {
	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}
}

func (a *App) renderStory(story stories.Story, position int) tea.Cmd {
	markdown := storyMarkdown(story, position, a.state.TotalItems)
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return storyRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}

		rendered, err := r.Render(markdown)
		if err != nil {
			// keep loadingStory from sticking
			return storyRenderedMsg{content: fmt.Sprintf("# Error\n\nFailed to render story: %s\n\nPress Escape to go back.", err.Error())}
		}
		return storyRenderedMsg{content: rendered}
	}
}

// storyMarkdown describes a story for the detail view. position is the
// one-based rank of the story across all pages.
func storyMarkdown(story stories.Story, position, total int) string {
	title := strings.TrimSpace(story.Title)
	if title == "" {
		title = "Untitled story"
	}
	link := strings.TrimSpace(story.URL)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if total > 0 {
		fmt.Fprintf(&b, "*Story %d of %d*\n\n", position, total)
	}
	if link != "" {
		fmt.Fprintf(&b, "[Read Online](%s)\n\n", link)
		fmt.Fprintf(&b, "`%s`\n\n", link)
	} else {
		b.WriteString(MsgNoURL + "\n\n")
	}
	b.WriteString("---\n\n")
	b.WriteString("Press **o** to open in your browser, **esc** to go back.\n")
	return b.String()
}

func (a *App) openStory(story stories.Story) tea.Cmd {
	link := strings.TrimSpace(story.URL)
	opener := a.opener
	return func() tea.Msg {
		if link == "" {
			return storyOpenedMsg{url: link, err: fmt.Errorf("%s", MsgNoURL)}
		}
		if opener == nil {
			return storyOpenedMsg{url: link, err: fmt.Errorf("no opener configured")}
		}
		return storyOpenedMsg{url: link, err: opener.Open(link)}
	}
}

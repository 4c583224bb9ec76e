package tui

import (
	"sort"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/stories/internal/config"
)

type keyMap struct {
	Quit     key.Binding
	Search   key.Binding
	Reload   key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Grow     key.Binding
	Shrink   key.Binding
	Open     key.Binding
	Details  key.Binding
	Back     key.Binding
}

func newKeyMap(cfg *config.Config) keyMap {
	b := cfg.Keys.Bindings
	mod := cfg.Keys.Modifier + "+"
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
		Search:   key.NewBinding(key.WithKeys(b.Search, mod+"s"), key.WithHelp(b.Search, "search")),
		Reload:   key.NewBinding(key.WithKeys(b.Reload), key.WithHelp(b.Reload, "reload")),
		NextPage: key.NewBinding(key.WithKeys(b.NextPage, "l"), key.WithHelp("→/l", "next page")),
		PrevPage: key.NewBinding(key.WithKeys(b.PrevPage, "h"), key.WithHelp("←/h", "prev page")),
		Grow:     key.NewBinding(key.WithKeys(b.Grow, "="), key.WithHelp(b.Grow, "more per page")),
		Shrink:   key.NewBinding(key.WithKeys(b.Shrink), key.WithHelp(b.Shrink, "fewer per page")),
		Open:     key.NewBinding(key.WithKeys(b.Open, mod+"o"), key.WithHelp(b.Open, "open link")),
		Details:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:     key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "back")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.PrevPage, k.NextPage, k.Details, k.Open, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Reload, k.Back},
		{k.PrevPage, k.NextPage, k.Grow, k.Shrink},
		{k.Details, k.Open, k.Quit},
	}
}

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
	keys        keyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:         app,
		config:      cfg,
		modifierKey: cfg.Keys.Modifier + "+",
		keys:        newKeyMap(cfg),
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		return kh.handleSearchKeys(msg)
	case ViewDetail:
		return kh.handleDetailKeys(msg)
	default:
		return kh.handleListKeys(msg)
	}
}

// handleSearchKeys feeds the search input; only enter, esc and ctrl+c
// are intercepted so every printable key reaches the query.
func (kh *KeyHandler) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "ctrl+c":
		a.cancelInFlight()
		return a, tea.Quit
	case "enter":
		a.searchInput.Blur()
		a.view = ViewList
		return a, a.Search()
	case "esc":
		a.searchInput.SetValue(a.state.SearchQuery)
		a.searchInput.Blur()
		a.view = ViewList
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := kh.keys

	switch {
	case key.Matches(msg, k.Quit):
		a.cancelInFlight()
		return a, tea.Quit

	case key.Matches(msg, k.Search):
		a.view = ViewSearch
		a.setStatus("", StatusInfo)
		a.searchInput.SetValue(a.state.SearchQuery)
		a.searchInput.CursorEnd()
		return a, a.searchInput.Focus()

	case key.Matches(msg, k.Reload):
		return a, a.Reload()

	case key.Matches(msg, k.NextPage):
		if !a.state.HasNext() {
			return a, nil
		}
		return a, a.PageChange(a.state.PageIndex()+1, a.state.PageSize)

	case key.Matches(msg, k.PrevPage):
		if !a.state.HasPrev() {
			return a, nil
		}
		return a, a.PageChange(a.state.PageIndex()-1, a.state.PageSize)

	case key.Matches(msg, k.Grow):
		return a, kh.resizePage(+1)

	case key.Matches(msg, k.Shrink):
		return a, kh.resizePage(-1)

	case key.Matches(msg, k.Open):
		story, ok := a.selectedStory()
		if !ok {
			return a, nil
		}
		a.setStatus(MsgOpening, StatusInfo)
		return a, a.openStory(story)

	case key.Matches(msg, k.Details):
		story, ok := a.selectedStory()
		if !ok {
			return a, nil
		}
		a.selected = &story
		a.loadingStory = true
		a.view = ViewDetail
		position := (a.state.CurrentPage-1)*a.state.PageSize + a.table.Cursor() + 1
		return a, a.renderStory(story, position)

	case key.Matches(msg, k.Back):
		if a.state.SearchQuery == "" {
			return a, nil
		}
		a.searchInput.SetValue("")
		a.setStatus(MsgSearchClear, StatusInfo)
		return a, a.Search()
	}

	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	k := kh.keys

	switch {
	case key.Matches(msg, k.Quit):
		a.cancelInFlight()
		return a, tea.Quit

	case key.Matches(msg, k.Back):
		a.view = ViewList
		a.selected = nil
		a.loadingStory = false
		return a, nil

	case key.Matches(msg, k.Open):
		if a.selected == nil {
			return a, nil
		}
		a.setStatus(MsgOpening, StatusInfo)
		return a, a.openStory(*a.selected)
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

// resizePage steps through the configured page sizes. The new page is
// chosen so the first visible story stays on screen.
func (kh *KeyHandler) resizePage(step int) tea.Cmd {
	a := kh.app
	sizes := append([]int(nil), kh.config.List.PageSizes...)
	sort.Ints(sizes)
	if len(sizes) == 0 {
		return nil
	}

	current := a.state.PageSize
	next := 0
	if step > 0 {
		for _, s := range sizes {
			if s > current {
				next = s
				break
			}
		}
	} else {
		for i := len(sizes) - 1; i >= 0; i-- {
			if sizes[i] < current {
				next = sizes[i]
				break
			}
		}
	}
	if next == 0 {
		return nil
	}

	firstItem := a.state.PageIndex() * current
	return a.PageChange(firstItem/next, next)
}

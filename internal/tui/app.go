package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/stories/internal/config"
	"github.com/pders01/stories/internal/debuglog"
	"github.com/pders01/stories/internal/stories"
)

// Opener opens a story link outside the terminal.
type Opener interface {
	Open(url string) error
}

type App struct {
	config      *config.Config
	source      stories.Source
	log         debuglog.Logger
	opener      Opener
	keyHandler  *KeyHandler
	table       table.Model
	searchInput textinput.Model
	paginator   paginator.Model
	spinner     spinner.Model
	viewport    viewport.Model
	help        help.Model
	view        View

	state     ListState
	loadState LoadState
	// loadSeq identifies the newest fetch; results carrying an older
	// sequence number are dropped.
	loadSeq    uint64
	cancelLoad context.CancelFunc

	urlWidth        int
	selected        *stories.Story
	loadingStory    bool
	status          string
	statusKind      StatusKind
	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(source stories.Source, cfg *config.Config, log debuglog.Logger, opener Opener) *App {
	if log == nil {
		log = debuglog.Nop()
	}

	tbl := table.New(
		table.WithColumns(storyColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	tbl.SetStyles(tableStyles())

	si := textinput.New()
	si.Placeholder = "Search stories..."
	si.Prompt = "/ "
	si.CharLimit = 256

	pg := paginator.New()
	pg.Type = paginator.Arabic
	pg.ArabicFormat = "page %d/%d"

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(SecondaryColor)),
	)

	app := &App{
		config:      cfg,
		source:      source,
		log:         log.WithFields(map[string]any{"component": "tui"}),
		opener:      opener,
		table:       tbl,
		searchInput: si,
		paginator:   pg,
		spinner:     sp,
		viewport:    viewport.New(0, 0),
		help:        help.New(),
		view:        ViewList,
		state: ListState{
			CurrentPage: 1,
			PageSize:    cfg.List.PageSize,
		},
		loadState: LoadIdle,
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

// State returns a copy of the current list view state.
func (a *App) State() ListState {
	s := a.state
	s.DisplayedItems = append([]stories.Story(nil), a.state.DisplayedItems...)
	return s
}

// LoadState reports the fetch cycle state.
func (a *App) LoadState() LoadState {
	return a.loadState
}

func (a *App) Init() tea.Cmd {
	return a.loadStories()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case storiesLoadedMsg:
		a.applyLoaded(msg)
		return a, nil

	case storyRenderedMsg:
		if a.view == ViewDetail {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingStory = false
		}
		return a, nil

	case storyOpenedMsg:
		if msg.err != nil {
			a.log.Warnf("opening %s: %v", msg.url, msg.err)
			a.setStatus(wrapErr("open", msg.err).Error(), StatusError)
		} else {
			a.setStatus(MsgOpened(msg.url), StatusSuccess)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.state.IsLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	switch a.view {
	case ViewSearch:
		a.searchInput, cmd = a.searchInput.Update(msg)
	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
	default:
		a.table, cmd = a.table.Update(msg)
	}
	return a, cmd
}

// Search submits the current search input: the query is trimmed, an
// empty query lists everything, and the list goes back to page one.
func (a *App) Search() tea.Cmd {
	a.state.SearchQuery = strings.TrimSpace(a.searchInput.Value())
	a.searchInput.SetValue(a.state.SearchQuery)
	a.state.CurrentPage = 1
	return a.loadStories()
}

// PageChange moves to the zero-based pageIndex with the given page size.
func (a *App) PageChange(pageIndex, pageSize int) tea.Cmd {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize > 0 {
		a.state.PageSize = pageSize
	}
	a.state.CurrentPage = pageIndex + 1
	return a.loadStories()
}

// Reload fetches the current page again.
func (a *App) Reload() tea.Cmd {
	return a.loadStories()
}

func (a *App) applyLoaded(msg storiesLoadedMsg) {
	if msg.seq != a.loadSeq {
		a.log.Debugf("discarding stale result for page %d (seq %d, current %d)", msg.req.Page, msg.seq, a.loadSeq)
		return
	}

	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}
	a.state.IsLoading = false

	if msg.err != nil {
		a.loadState = LoadError
		a.log.WithFields(map[string]any{
			"page":     msg.req.Page,
			"pageSize": msg.req.PageSize,
			"query":    msg.req.Query,
		}).Errorf("loading stories: %v", msg.err)
		return
	}

	resp := msg.resp
	if resp == nil {
		resp = &stories.PageResponse{}
	}
	a.loadState = LoadLoaded
	a.state.DisplayedItems = stories.FilterWithURL(resp.Items)
	a.state.TotalItems = resp.TotalCount
	a.syncTable()
	if len(a.state.DisplayedItems) > 0 {
		a.table.SetCursor(0)
	}
	a.syncPaginator()
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height

	// header, search frame, separator, status and help lines
	tableHeight := height - 9
	if tableHeight < 3 {
		tableHeight = 3
	}
	cols := storyColumns(width)
	a.urlWidth = cols[2].Width
	a.table.SetColumns(cols)
	a.table.SetWidth(width)
	a.table.SetHeight(tableHeight)
	a.syncTable()

	inputWidth := width - 8
	if inputWidth < 10 {
		inputWidth = width
	}
	a.searchInput.Width = inputWidth

	// title, separator, status and help lines
	a.viewport.Width = width
	a.viewport.Height = height - 4
	if a.viewport.Height < 1 {
		a.viewport.Height = 1
	}
	a.help.Width = width
}

func (a *App) syncTable() {
	urlWidth := a.urlWidth
	if urlWidth <= 0 {
		urlWidth = storyColumns(80)[2].Width
	}

	offset := (a.state.CurrentPage - 1) * a.state.PageSize
	rows := make([]table.Row, len(a.state.DisplayedItems))
	for i, s := range a.state.DisplayedItems {
		rows[i] = table.Row{
			fmt.Sprintf("%d", offset+i+1),
			strings.TrimSpace(s.Title),
			truncateMiddle(strings.TrimSpace(s.URL), urlWidth),
		}
	}
	a.table.SetRows(rows)
}

func (a *App) syncPaginator() {
	a.paginator.PerPage = a.state.PageSize
	a.paginator.TotalPages = a.state.TotalPages()
	a.paginator.Page = a.state.PageIndex()
}

func (a *App) selectedStory() (stories.Story, bool) {
	idx := a.table.Cursor()
	if idx < 0 || idx >= len(a.state.DisplayedItems) {
		return stories.Story{}, false
	}
	return a.state.DisplayedItems[idx], true
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewDetail:
		title := ""
		if a.selected != nil {
			title = truncateEnd(strings.TrimSpace(a.selected.Title), a.width-2)
		}
		body := a.viewport.View()
		if a.loadingStory {
			body = renderCentered(a.width, a.viewport.Height, renderMuted("Loading story…"))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, TitleStyle.Render(title), body)
	default:
		content = a.listView()
	}

	separatorWidth := a.width - 1
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusLine(), a.help.View(a.keyHandler.keys))
}

func (a *App) listView() string {
	subtitle := "all stories"
	if a.state.SearchQuery != "" {
		subtitle = MsgQuery(a.state.SearchQuery)
	}
	rows := []string{renderHeader("› "+AppName, subtitle, a.width)}

	if a.view == ViewSearch || a.state.SearchQuery != "" {
		rows = append(rows, renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width))
	}

	switch {
	case len(a.state.DisplayedItems) == 0 && a.state.IsLoading:
		rows = append(rows, renderCentered(a.width, a.table.Height(), GetCompactBanner(MsgLoading)))
	case len(a.state.DisplayedItems) == 0:
		rows = append(rows, renderCentered(a.width, a.table.Height(), renderMuted(MsgNoStories)))
	default:
		rows = append(rows, a.table.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) statusLine() string {
	var parts []string
	if a.state.IsLoading {
		parts = append(parts, a.spinner.View()+" "+MsgLoading)
	} else {
		parts = append(parts, a.paginator.View(), MsgStoriesCount(a.state.TotalItems))
	}

	if a.view == ViewSearch {
		parts = append(parts, MsgSearchHint)
	} else if a.status != "" {
		parts = append(parts, statusStyle(a.statusKind).Render(a.status))
	}

	return StatusBarStyle.Width(a.width).Render(strings.Join(parts, " • "))
}

func statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

func storyColumns(width int) []table.Column {
	numWidth := 5
	// cell padding of the default table styles
	available := width - numWidth - 8
	if available < 20 {
		available = 20
	}
	titleWidth := available * 55 / 100
	return []table.Column{
		{Title: "#", Width: numWidth},
		{Title: "Title", Width: titleWidth},
		{Title: "URL", Width: available - titleWidth},
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(MutedColor).
		BorderBottom(true).
		Foreground(SecondaryColor).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#1A1A2E")).
		Background(AccentColor).
		Bold(true)
	return s
}

type storiesLoadedMsg struct {
	seq  uint64
	req  stories.PageRequest
	resp *stories.PageResponse
	err  error
}

type storyRenderedMsg struct {
	content string
}

type storyOpenedMsg struct {
	url string
	err error
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/search"
)

const debounceDelay = 200 * time.Millisecond

type tuiMode int

const (
	modeSearch tuiMode = iota
	modeList
)

type resultsMsg struct {
	query   string
	role    string
	results []search.Result
	err     error
}

type debounceTickMsg struct {
	query string
}

type model struct {
	db         *index.DB
	opts       search.Options
	mode       tuiMode
	query      string
	results    []search.Result
	cursor     int
	listOffset int
	input      textinput.Model
	preview    viewport.Model
	previewKey string // export key and index of the rendered preview
	width      int
	height     int
	ready      bool
	quitting   bool
	selected   *search.Result
}

func newModel(db *index.DB, mode tuiMode, query string, opts search.Options) model {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	if mode == modeList {
		ti.Placeholder = "Filter..."
	}
	ti.Focus()
	ti.SetValue(query)
	ti.Prompt = "> "
	ti.PromptStyle = styleInput
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	return model{
		db:      db,
		opts:    opts,
		mode:    mode,
		query:   query,
		input:   ti,
		preview: viewport.New(0, 0),
	}
}

// Run starts the search TUI and blocks until it exits. The selected
// record's text is copied to the clipboard.
func Run(db *index.DB, query string, opts search.Options) error {
	return run(db, newModel(db, modeSearch, query, opts))
}

// RunList starts the TUI in browse mode, listing every indexed record.
func RunList(db *index.DB, opts search.Options) error {
	return run(db, newModel(db, modeList, "", opts))
}

func run(db *index.DB, m model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	if fm := final.(model); fm.selected != nil {
		return copyRecordText(db, *fm.selected)
	}
	return nil
}

// copyRecordText puts the full record text on the clipboard, printing it
// instead when no clipboard is available.
func copyRecordText(db *index.DB, r search.Result) error {
	rec, err := db.GetRecord(r.ExportKey, r.Index)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("record not found: %s #%d", r.ExportKey, r.Index)
	}

	if err := clipboard.WriteAll(rec.Text); err != nil {
		fmt.Println(rec.Text)
		return nil
	}
	fmt.Printf("Copied record #%d (%s, %d chars) to clipboard\n", rec.Index, rec.Role, rec.Length)
	return nil
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.mode == modeList || m.query != "" {
		cmds = append(cmds, m.fetch(m.query))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.preview = viewport.New(m.previewWidth(), m.panelHeight())
		m.previewKey = ""
		cmds = append(cmds, m.loadCurrentPreview())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.Copy):
			if r, ok := m.current(); ok {
				m.selected = &r
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, keys.Role):
			m.opts.Role = nextRole(m.opts.Role)
			return m, m.fetch(m.query)

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.results)-1 {
				m.cursor++
				m.adjustListScroll(m.panelHeight())
				cmds = append(cmds, m.loadCurrentPreview())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.PreviewUp):
			m.preview.LineUp(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PreviewDn):
			m.preview.LineDown(m.panelHeight() / 2)
			return m, nil

		case key.Matches(msg, keys.PageUp):
			m.preview.LineUp(m.panelHeight())
			return m, nil

		case key.Matches(msg, keys.PageDown):
			m.preview.LineDown(m.panelHeight())
			return m, nil
		}

		var tiCmd tea.Cmd
		m.input, tiCmd = m.input.Update(msg)
		cmds = append(cmds, tiCmd)

		if q := m.input.Value(); q != m.query {
			m.query = q
			cmds = append(cmds, tea.Tick(debounceDelay, func(time.Time) tea.Msg {
				return debounceTickMsg{query: q}
			}))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case debounceTickMsg:
		// a newer keystroke supersedes this tick
		if msg.query == m.query {
			return m, m.fetch(msg.query)
		}
		return m, nil

	case resultsMsg:
		if msg.query != m.query || msg.role != m.opts.Role {
			return m, nil // stale
		}
		m.cursor = 0
		m.listOffset = 0
		m.previewKey = ""
		if msg.err != nil {
			m.results = nil
			m.preview.SetContent("Error: " + msg.err.Error())
			return m, nil
		}
		m.results = msg.results
		if len(m.results) == 0 {
			m.preview.SetContent("")
			return m, nil
		}
		return m, m.loadCurrentPreview()

	case previewRenderedMsg:
		r, ok := m.current()
		if !ok || previewKey(r) != msg.key || msg.key == m.previewKey {
			return m, nil
		}
		if msg.err != nil {
			m.preview.SetContent("Preview error: " + msg.err.Error())
		} else {
			m.preview.SetContent(msg.content)
			if msg.hitLine > 0 {
				m.preview.SetYOffset(msg.hitLine)
			} else {
				m.preview.GotoTop()
			}
		}
		m.previewKey = msg.key
		return m, nil
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !m.ready || len(m.results) == 0 {
		return m, nil
	}

	region, item := m.hitTest(msg.X, msg.Y)
	switch {
	case region == regionList && msg.Button == tea.MouseButtonWheelUp:
		if m.listOffset > 0 {
			m.listOffset--
		}

	case region == regionList && msg.Button == tea.MouseButtonWheelDown:
		maxOffset := len(m.results) - m.panelHeight()/linesPerItem
		if m.listOffset < maxOffset {
			m.listOffset++
		}

	case region == regionList && msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if item >= 0 && item < len(m.results) && item != m.cursor {
			m.cursor = item
			m.adjustListScroll(m.panelHeight())
			return m, m.loadCurrentPreview()
		}

	case region == regionPreview && (msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown):
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	panelH := m.panelHeight()

	listPanel := stylePanelBorder.
		Width(m.listWidth()).
		Height(panelH).
		Render(m.renderList(m.listWidth(), panelH))

	m.preview.Width = m.previewWidth()
	m.preview.Height = panelH
	previewPanel := styleActiveBorder.
		Width(m.previewWidth()).
		Height(panelH).
		Render(m.preview.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, previewPanel)
	return lipgloss.JoinVertical(lipgloss.Left, m.input.View(), panels, m.statusBar())
}

func (m model) current() (search.Result, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return search.Result{}, false
	}
	return m.results[m.cursor], true
}

func (m model) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	// 40% for list, minus border padding
	return max(m.width*40/100-4, 20)
}

func (m model) previewWidth() int {
	if m.width <= 0 {
		return 60
	}
	return max(m.width*60/100-4, 20)
}

func (m model) panelHeight() int {
	if m.height <= 0 {
		return 20
	}
	// input row, status bar and two borders on each panel
	return max(m.height-6, 5)
}

type mouseRegion int

const (
	regionNone mouseRegion = iota
	regionList
	regionPreview
)

// hitTest maps terminal coordinates to a panel region and list item index.
func (m model) hitTest(x, y int) (mouseRegion, int) {
	top := 2 // input row + top border
	if y < top || y > top+m.panelHeight()-1 {
		return regionNone, -1
	}

	lw := m.listWidth()
	switch {
	case x >= 1 && x <= lw:
		return regionList, m.listOffset + (y-top)/linesPerItem
	case x > lw+2:
		return regionPreview, -1
	default:
		return regionNone, -1
	}
}

func (m model) statusBar() string {
	role := m.opts.Role
	if role == "" {
		role = "all"
	}
	parts := []string{
		fmt.Sprintf("%d records", len(m.results)),
		"role: " + role + " (C-r)",
		"up/dn navigate",
		"C-u/C-d preview",
		"Enter copy text",
		"Esc quit",
	}
	return styleStatusBar.Render(strings.Join(parts, " | "))
}

// fetch runs the query for the current mode in the background.
func (m model) fetch(query string) tea.Cmd {
	db := m.db
	opts := m.opts
	opts.Query = query
	mode := m.mode
	return func() tea.Msg {
		var results []search.Result
		var err error
		switch {
		case mode == modeList && query == "":
			results, err = search.ListAll(db, opts)
		case query == "":
			// nothing to search yet
		default:
			results, err = search.Search(db, opts)
		}
		return resultsMsg{query: query, role: opts.Role, results: results, err: err}
	}
}

func (m model) loadCurrentPreview() tea.Cmd {
	r, ok := m.current()
	if !ok || previewKey(r) == m.previewKey {
		return nil
	}
	return loadPreviewCmd(m.db, r, m.query, m.previewWidth())
}

func previewKey(r search.Result) string {
	return fmt.Sprintf("%s:%d", r.ExportKey, r.Index)
}
